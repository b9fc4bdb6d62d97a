package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"minerva/internal/domain/lexicon"
	"minerva/pkg/errors"
)

// Compile-time check
var _ lexicon.Source = (*LexiconSource)(nil)

// LexiconSource loads the Loughran-McDonald master table from Postgres.
// It is only touched on cache rebuilds.
type LexiconSource struct {
	db *sqlx.DB
}

// NewLexiconSource creates a new lexicon source
func NewLexiconSource(db *sqlx.DB) *LexiconSource {
	return &LexiconSource{db: db}
}

type lexiconRow struct {
	Word         string  `db:"word"`
	Positive     float64 `db:"positive"`
	Negative     float64 `db:"negative"`
	Uncertainty  float64 `db:"uncertainty"`
	Litigious    float64 `db:"litigious"`
	Constraining float64 `db:"constraining"`
}

// LoadAll returns every entry keyed by uppercase word
func (s *LexiconSource) LoadAll(ctx context.Context) (map[string]lexicon.Entry, error) {
	var rows []lexiconRow

	query := `
		SELECT word, positive, negative, uncertainty, litigious, constraining
		FROM lm_master`

	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "load lexicon master table")
	}

	entries := make(map[string]lexicon.Entry, len(rows))
	for _, row := range rows {
		entries[strings.ToUpper(row.Word)] = lexicon.Entry{
			Positive:     row.Positive,
			Negative:     row.Negative,
			Uncertainty:  row.Uncertainty,
			Litigious:    row.Litigious,
			Constraining: row.Constraining,
		}
	}

	return entries, nil
}
