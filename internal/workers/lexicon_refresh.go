package workers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minerva/internal/adapters/kafka"
	"minerva/internal/sentiment"
)

// LexiconRefreshWorker rebuilds the sentiment lexicon snapshot on the
// cache TTL cadence so no request ever pays the rebuild cost
type LexiconRefreshWorker struct {
	*BaseWorker
	cache    *sentiment.LexiconCache
	producer *kafka.Producer // optional
}

// NewLexiconRefreshWorker creates the refresh worker
func NewLexiconRefreshWorker(cache *sentiment.LexiconCache, producer *kafka.Producer, interval time.Duration) *LexiconRefreshWorker {
	return &LexiconRefreshWorker{
		BaseWorker: NewBaseWorker("lexicon_refresh", interval, true),
		cache:      cache,
		producer:   producer,
	}
}

type lexiconRefreshedEvent struct {
	ID          string `json:"id"`
	WordCount   int    `json:"word_count"`
	RefreshedAt string `json:"refreshed_at"`
}

// Run rebuilds the lexicon from the master table and announces the
// new snapshot
func (w *LexiconRefreshWorker) Run(ctx context.Context) error {
	if err := w.cache.Refresh(ctx); err != nil {
		return err
	}

	info := w.cache.Info(ctx)
	w.Log().Infow("Lexicon refreshed", "words", info.WordCount)

	if w.producer != nil {
		event := lexiconRefreshedEvent{
			ID:          uuid.NewString(),
			WordCount:   info.WordCount,
			RefreshedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := w.producer.Publish(ctx, kafka.TopicLexiconRefreshed, "lexicon", event); err != nil {
			w.Log().Warnw("Failed to publish lexicon refresh event", "error", err)
		}
	}

	return nil
}
