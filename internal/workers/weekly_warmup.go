package workers

import (
	"context"
	"time"

	"minerva/internal/analytics"
	"minerva/pkg/errors"
)

// WeeklyWarmupWorker precomputes the previous (closed) week's market
// result so the first reader of the week hits the response cache
// instead of running the full pipeline
type WeeklyWarmupWorker struct {
	*BaseWorker
	service *analytics.Service
}

// NewWeeklyWarmupWorker creates the warmup worker
func NewWeeklyWarmupWorker(service *analytics.Service, interval time.Duration, enabled bool) *WeeklyWarmupWorker {
	return &WeeklyWarmupWorker{
		BaseWorker: NewBaseWorker("weekly_warmup", interval, enabled),
		service:    service,
	}
}

// Run computes last week's market pipeline; an overfull week is not a
// worker failure, just a skipped warmup
func (w *WeeklyWarmupWorker) Run(ctx context.Context) error {
	lastWeek := time.Now().AddDate(0, 0, -7)

	result, err := w.service.MarketWeekly(ctx, lastWeek)
	if err != nil {
		if errors.Is(err, errors.ErrTooManyArticles) {
			w.Log().Warnw("Skipping warmup for overfull week", "error", err)
			return nil
		}
		return err
	}

	w.Log().Infow("Warmed weekly market result", "week", result.Week, "articles", len(result.Top3))
	return nil
}
