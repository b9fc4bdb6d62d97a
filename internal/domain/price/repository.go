package price

import (
	"context"
	"time"
)

// Repository defines read access to the sharded price store.
// The store is partitioned by the first character of the ticker
// (A-D, E-M, N-Z); implementations resolve the shard internally.
type Repository interface {
	// GetDaily returns daily candles for a ticker sorted ascending by date
	GetDaily(ctx context.Context, ticker string, from, to time.Time) ([]Candle, error)
}

// IndexRepository defines read access to the benchmark index store
type IndexRepository interface {
	// GetCloses returns benchmark closes inside [from, to] sorted ascending
	GetCloses(ctx context.Context, from, to time.Time) ([]IndexClose, error)
}
