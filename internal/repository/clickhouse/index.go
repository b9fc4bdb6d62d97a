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
var _ price.IndexRepository = (*IndexRepository)(nil)

// IndexRepository reads benchmark closes for the performance collaborator
type IndexRepository struct {
	client *clickhouse.Client
	log    *logger.Logger
}

// NewIndexRepository creates a new index repository
func NewIndexRepository(client *clickhouse.Client) *IndexRepository {
	return &IndexRepository{
		client: client,
		log:    logger.Get().With("component", "index_repository"),
	}
}

// GetCloses returns benchmark closes inside [from, to] sorted ascending
func (r *IndexRepository) GetCloses(ctx context.Context, from, to time.Time) ([]price.IndexClose, error) {
	query := `
		SELECT date, sp500, nasdaq, dow
		FROM index_closes
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC`

	var closes []price.IndexClose
	if err := r.client.Query(ctx, &closes, query, from, to); err != nil {
		r.log.Warnw("Index store query failed", "error", err)
		return nil, errors.Wrap(errors.ErrUnavailable, err.Error())
	}

	return closes, nil
}
