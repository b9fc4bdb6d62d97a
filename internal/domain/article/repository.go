package article

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Repository defines read access to the article store.
// The store is an external read model; all queries return articles
// sorted descending by date. Connection failures surface as empty
// slices with a logged warning, so callers must handle empties.
type Repository interface {
	// GetByTickerRange returns articles for a ticker inside [from, to]
	GetByTickerRange(ctx context.Context, ticker string, from, to time.Time) ([]Article, error)

	// GetBySectorWeek returns articles for a sector within one week bucket
	GetBySectorWeek(ctx context.Context, sector string, weekStart time.Time) ([]Article, error)

	// GetByWeek returns all articles within one week bucket, sector carried through
	GetByWeek(ctx context.Context, weekStart time.Time) ([]Article, error)

	// StoreTitleEmbedding caches a title embedding for (ticker, date)
	StoreTitleEmbedding(ctx context.Context, ticker string, date time.Time, emb pgvector.Vector) error
}
