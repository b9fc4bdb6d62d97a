package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"minerva/internal/domain/article"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// Compile-time check
var _ article.Repository = (*ArticleRepository)(nil)

const articleColumns = `ticker, sector, title, body, date, week_start, title_embedding`

// ArticleRepository implements article.Repository using sqlx.
// The article store is a read model; a failed query is retried once
// and then surfaces as an empty slice plus a wrapped ErrUnavailable
// so the HTTP collaborator can answer 5xx while per-article callers
// keep handling empties.
type ArticleRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{
		db:  db,
		log: logger.Get().With("component", "article_repository"),
	}
}

// GetByTickerRange returns articles for a ticker inside [from, to]
func (r *ArticleRepository) GetByTickerRange(ctx context.Context, ticker string, from, to time.Time) ([]article.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE ticker = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC`

	return r.selectArticles(ctx, query, ticker, from, to)
}

// GetBySectorWeek returns articles for a sector within one week bucket
func (r *ArticleRepository) GetBySectorWeek(ctx context.Context, sector string, weekStart time.Time) ([]article.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE sector = $1 AND week_start = $2
		ORDER BY date DESC`

	return r.selectArticles(ctx, query, sector, weekStart)
}

// GetByWeek returns all articles within one week bucket
func (r *ArticleRepository) GetByWeek(ctx context.Context, weekStart time.Time) ([]article.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE week_start = $1
		ORDER BY date DESC`

	return r.selectArticles(ctx, query, weekStart)
}

// StoreTitleEmbedding caches a title embedding for (ticker, date)
func (r *ArticleRepository) StoreTitleEmbedding(ctx context.Context, ticker string, date time.Time, emb pgvector.Vector) error {
	query := `
		UPDATE articles
		SET title_embedding = $3
		WHERE ticker = $1 AND date = $2`

	_, err := r.db.ExecContext(ctx, query, ticker, date, emb)
	return err
}

// selectArticles runs a query with a single retry on failure
func (r *ArticleRepository) selectArticles(ctx context.Context, query string, args ...interface{}) ([]article.Article, error) {
	var articles []article.Article

	err := r.db.SelectContext(ctx, &articles, query, args...)
	if err != nil {
		// one retry for transient connection failures
		err = r.db.SelectContext(ctx, &articles, query, args...)
	}
	if err != nil {
		r.log.Warnw("Article store query failed, returning empty result", "error", err)
		return nil, errors.Wrap(errors.ErrUnavailable, err.Error())
	}

	return articles, nil
}
