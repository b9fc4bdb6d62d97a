package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"minerva/internal/adapters/kafka"
	"minerva/internal/adapters/redis"
	"minerva/internal/calendar"
	"minerva/internal/domain/analytics"
	"minerva/internal/domain/article"
	"minerva/internal/metrics"
	"minerva/internal/sentiment"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

// Service composes the weekly news pipeline: week bucketing, article
// reads, top-3 selection, sentiment, keywords, and summaries. Within a
// request sentiment always runs before keywords and summaries, and the
// selector runs exactly once.
type Service struct {
	articles   article.Repository
	scorer     *sentiment.Scorer
	selector   *Selector
	keywords   *KeywordExtractor
	summarizer *Summarizer

	cache    *redis.Client   // optional: closed-week response cache
	producer *kafka.Producer // optional: completion events
	cacheTTL time.Duration
	maxWeek  int // article cap per week bucket

	log *logger.Logger
}

// ServiceParams wires the pipeline dependencies
type ServiceParams struct {
	Articles   article.Repository
	Scorer     *sentiment.Scorer
	Selector   *Selector
	Keywords   *KeywordExtractor
	Summarizer *Summarizer

	Cache              *redis.Client
	Producer           *kafka.Producer
	CacheTTL           time.Duration
	MaxArticlesPerWeek int
}

// NewService creates the weekly analytics orchestrator
func NewService(p ServiceParams) *Service {
	if p.MaxArticlesPerWeek <= 0 {
		p.MaxArticlesPerWeek = 2000
	}
	if p.CacheTTL <= 0 {
		p.CacheTTL = 24 * time.Hour
	}
	return &Service{
		articles:   p.Articles,
		scorer:     p.Scorer,
		selector:   p.Selector,
		keywords:   p.Keywords,
		summarizer: p.Summarizer,
		cache:      p.Cache,
		producer:   p.Producer,
		cacheTTL:   p.CacheTTL,
		maxWeek:    p.MaxArticlesPerWeek,
		log:        logger.Get().With("component", "weekly_analytics"),
	}
}

// completedEvent is published after each successful pipeline run
type completedEvent struct {
	ID         string `json:"id"`
	Entrypoint string `json:"entrypoint"`
	Entity     string `json:"entity"`
	Week       string `json:"week"`
	Articles   int    `json:"articles"`
	FinishedAt string `json:"finished_at"`
}

// StockWeekly returns one result per week bucket inside [from, to]
// for a ticker: sentiment top-3 per week, each augmented with keywords
// and a summary
func (s *Service) StockWeekly(ctx context.Context, ticker string, from, to time.Time) ([]analytics.WeeklyResult, error) {
	weekly, err := s.scorer.WeeklyScores(ctx, ticker, from, to)
	if err != nil {
		metrics.PipelineRequests.WithLabelValues("stock", "server_error").Inc()
		return nil, err
	}

	weeks := make([]string, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)

	results := make([]analytics.WeeklyResult, 0, len(weeks))
	for _, week := range weeks {
		ws := weekly[week]

		result := analytics.WeeklyResult{Week: week, Top3: []analytics.EnrichedArticle{}}
		for _, sa := range ws.Top3 {
			enriched := analytics.EnrichedArticle{
				Ticker:    ticker,
				Title:     sa.Title,
				Body:      sa.Body,
				Date:      sa.Date,
				WeekStart: sa.Week,
				Score:     sa.Score,
			}
			s.enrich(ctx, &enriched)
			result.Top3 = append(result.Top3, enriched)
		}
		results = append(results, result)
	}

	metrics.PipelineRequests.WithLabelValues("stock", "success").Inc()
	s.publish(ctx, "stock", ticker, calendar.FormatWeek(calendar.WeekStart(to)), len(results))
	return results, nil
}

// IndustryWeekly returns the three representative articles for a
// sector in the week bucket of ref
func (s *Service) IndustryWeekly(ctx context.Context, sector string, ref time.Time) (analytics.WeeklyResult, error) {
	return s.clusteredWeekly(ctx, "industry", sector, ref, func(ctx context.Context, weekStart time.Time) ([]article.Article, error) {
		return s.articles.GetBySectorWeek(ctx, sector, weekStart)
	})
}

// MarketWeekly returns the three representative articles across the
// whole market in the week bucket of ref
func (s *Service) MarketWeekly(ctx context.Context, ref time.Time) (analytics.WeeklyResult, error) {
	return s.clusteredWeekly(ctx, "market", "market", ref, s.articles.GetByWeek)
}

// clusteredWeekly is the shared industry/market path: resolve the week
// bucket, load articles, select three representatives, then enrich
// each with sentiment, keywords, and a summary in that order
func (s *Service) clusteredWeekly(
	ctx context.Context,
	entrypoint, entity string,
	ref time.Time,
	load func(context.Context, time.Time) ([]article.Article, error),
) (analytics.WeeklyResult, error) {
	weekStart := calendar.WeekStart(ref)
	week := calendar.FormatWeek(weekStart)
	result := analytics.WeeklyResult{Week: week, Top3: []analytics.EnrichedArticle{}}

	cacheKey := fmt.Sprintf("weekly:%s:%s:%s", entrypoint, entity, week)
	if s.cacheGet(ctx, weekStart, cacheKey, &result) {
		metrics.PipelineRequests.WithLabelValues(entrypoint, "success").Inc()
		return result, nil
	}

	arts, err := load(ctx, weekStart)
	if err != nil {
		metrics.PipelineRequests.WithLabelValues(entrypoint, "server_error").Inc()
		return result, err
	}

	if len(arts) > s.maxWeek {
		metrics.PipelineRequests.WithLabelValues(entrypoint, "client_error").Inc()
		return result, errors.Wrapf(errors.ErrTooManyArticles, "%d articles in week %s (cap %d)", len(arts), week, s.maxWeek)
	}

	started := time.Now()
	selected, err := s.selector.SelectTop3(ctx, arts, nil)
	metrics.StageDuration.WithLabelValues("select").Observe(time.Since(started).Seconds())
	if err != nil {
		// degraded: response stays well-formed with an empty top-3
		s.log.Warnw("Selector failed, returning empty top3", "week", week, "error", err)
		metrics.DegradedResponses.WithLabelValues("selector").Inc()
		metrics.PipelineRequests.WithLabelValues(entrypoint, "success").Inc()
		return result, nil
	}

	for _, a := range selected {
		score := s.scorer.ScoreArticle(ctx, a.Body)

		enriched := analytics.EnrichedArticle{
			Ticker:    a.Ticker,
			Sector:    a.Sector,
			Title:     a.Title,
			Body:      a.Body,
			Date:      a.Date,
			WeekStart: week,
			Score:     score.Mean,
		}
		s.enrich(ctx, &enriched)
		result.Top3 = append(result.Top3, enriched)
	}

	s.cacheSet(ctx, weekStart, cacheKey, result)
	s.publish(ctx, entrypoint, entity, week, len(arts))
	metrics.PipelineRequests.WithLabelValues(entrypoint, "success").Inc()
	return result, nil
}

// enrich adds keywords and a summary to an already-scored article.
// Keyword extraction failures degrade to an empty list.
func (s *Service) enrich(ctx context.Context, a *analytics.EnrichedArticle) {
	started := time.Now()
	keywords, err := s.keywords.Extract(ctx, a.Body)
	metrics.StageDuration.WithLabelValues("keywords").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.DegradedResponses.WithLabelValues("keywords").Inc()
		keywords = nil
	}
	a.Keywords = keywords

	started = time.Now()
	a.Summary = s.summarizer.Summarize(ctx, a.Body)
	metrics.StageDuration.WithLabelValues("summarize").Observe(time.Since(started).Seconds())
}

// cacheGet tries the closed-week response cache
func (s *Service) cacheGet(ctx context.Context, weekStart time.Time, key string, dest *analytics.WeeklyResult) bool {
	if s.cache == nil || !weekClosed(weekStart) {
		return false
	}

	if err := s.cache.Get(ctx, key, dest); err != nil {
		if err != redis.Nil {
			s.log.Debugw("Weekly cache read failed", "key", key, "error", err)
		}
		metrics.WeeklyCacheHits.WithLabelValues("miss").Inc()
		return false
	}

	metrics.WeeklyCacheHits.WithLabelValues("hit").Inc()
	return true
}

// cacheSet stores responses for closed weeks only; an open week can
// still gain articles
func (s *Service) cacheSet(ctx context.Context, weekStart time.Time, key string, result analytics.WeeklyResult) {
	if s.cache == nil || !weekClosed(weekStart) {
		return
	}
	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.log.Debugw("Weekly cache write failed", "key", key, "error", err)
	}
}

func weekClosed(weekStart time.Time) bool {
	return time.Now().After(weekStart.AddDate(0, 0, 7))
}

// publish emits a completion event; failures are logged only
func (s *Service) publish(ctx context.Context, entrypoint, entity, week string, articles int) {
	if s.producer == nil {
		return
	}

	event := completedEvent{
		ID:         uuid.NewString(),
		Entrypoint: entrypoint,
		Entity:     entity,
		Week:       week,
		Articles:   articles,
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.producer.Publish(ctx, kafka.TopicWeeklyCompleted, entity, event); err != nil {
		s.log.Warnw("Failed to publish completion event", "week", week, "error", err)
	}
}
