package article

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Article is a single news article keyed by (ticker, date).
// WeekStart is always the Sunday on or before Date; sector is constant
// per ticker within the store.
type Article struct {
	Ticker    string    `db:"ticker"`
	Sector    string    `db:"sector"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Date      time.Time `db:"date"`
	WeekStart time.Time `db:"week_start"`

	// TitleEmbedding is a cached sentence embedding of the title,
	// populated lazily by the selector's read-through path
	TitleEmbedding *pgvector.Vector `db:"title_embedding"`
}

// HasTitle reports whether the article can participate in title clustering
func (a Article) HasTitle() bool {
	return a.Title != ""
}
