package clickhouse

import (
	"context"
	"time"

	"minerva/internal/adapters/clickhouse"
	"minerva/internal/domain/price"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// Compile-time check
var _ price.Repository = (*PriceRepository)(nil)

// PriceRepository implements price.Repository over the three shard
// tables partitioned by the first character of the ticker
type PriceRepository struct {
	client *clickhouse.Client
	log    *logger.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(client *clickhouse.Client) *PriceRepository {
	return &PriceRepository{
		client: client,
		log:    logger.Get().With("component", "price_repository"),
	}
}

// shardTable resolves the shard for a ticker.
// Shards: A-D, E-M, N-Z; anything else lands in the last shard.
func shardTable(ticker string) string {
	if ticker == "" {
		return "prices_n_z"
	}
	switch c := ticker[0]; {
	case c >= 'A' && c <= 'D':
		return "prices_a_d"
	case c >= 'E' && c <= 'M':
		return "prices_e_m"
	default:
		return "prices_n_z"
	}
}

// GetDaily returns daily candles for a ticker sorted ascending by date
func (r *PriceRepository) GetDaily(ctx context.Context, ticker string, from, to time.Time) ([]price.Candle, error) {
	query := `
		SELECT ticker, date, open, high, low, close, adj_close, volume
		FROM ` + shardTable(ticker) + `
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`

	var candles []price.Candle
	if err := r.client.Query(ctx, &candles, query, ticker, from, to); err != nil {
		r.log.Warnw("Price store query failed", "ticker", ticker, "error", err)
		return nil, errors.Wrap(errors.ErrUnavailable, err.Error())
	}

	return candles, nil
}
