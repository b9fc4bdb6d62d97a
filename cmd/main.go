package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minerva/internal/adapters/ai"
	"minerva/internal/adapters/clickhouse"
	"minerva/internal/adapters/config"
	"minerva/internal/adapters/embeddings"
	"minerva/internal/adapters/errors/noop"
	"minerva/internal/adapters/errors/sentry"
	"minerva/internal/adapters/kafka"
	"minerva/internal/adapters/postgres"
	"minerva/internal/adapters/redis"
	"minerva/internal/analytics"
	"minerva/internal/api"
	"minerva/internal/metrics"
	"minerva/internal/predictor"
	"minerva/internal/sentiment"
	"minerva/internal/workers"
	"minerva/pkg/errors"
	"minerva/pkg/logger"

	clickhouserepo "minerva/internal/repository/clickhouse"
	postgresrepo "minerva/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Register()

	// Stores
	pg, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	ch, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer ch.Close()

	cache, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	defer producer.Close()

	// Repositories
	articles := postgresrepo.NewArticleRepository(pg.DB())
	lexiconSource := postgresrepo.NewLexiconSource(pg.DB())
	prices := clickhouserepo.NewPriceRepository(ch)
	indexes := clickhouserepo.NewIndexRepository(ch)

	// Model providers
	embedder, err := embeddings.NewOpenAIProvider(cfg.AI.OpenAIKey, cfg.AI.EmbeddingModel, cfg.AI.RequestTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}

	chat, err := ai.NewOpenAIChat(cfg.AI.OpenAIKey, cfg.AI.ChatModel, cfg.AI.RequestTimeout, cfg.AI.RequestsPerMin)
	if err != nil {
		log.Fatalf("Failed to initialize chat provider: %v", err)
	}

	// Pipeline components
	lexiconCache := sentiment.NewLexiconCache(cfg.Lexicon.CacheDir, cfg.Lexicon.TTL, lexiconSource)
	scorer := sentiment.NewScorer(lexiconCache, articles)

	weekly := analytics.NewService(analytics.ServiceParams{
		Articles:           articles,
		Scorer:             scorer,
		Selector:           analytics.NewSelector(embedder, articles),
		Keywords:           analytics.NewKeywordExtractor(embedder, cfg.Analytics.TopKeywords),
		Summarizer:         analytics.NewSummarizer(chat),
		Cache:              cache,
		Producer:           producer,
		CacheTTL:           cfg.Analytics.ResponseCacheTTL,
		MaxArticlesPerWeek: cfg.Analytics.MaxArticlesPerWeek,
	})

	directions := predictor.NewService(prices, chat, producer, cfg.Predictor)
	defer directions.Close()

	surface := api.New(weekly, directions, indexes)
	log.Info("Pipeline initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewLexiconRefreshWorker(lexiconCache, producer, cfg.Workers.LexiconRefreshInterval))
	scheduler.RegisterWorker(workers.NewWeeklyWarmupWorker(weekly, cfg.Workers.WeeklyWarmupInterval, cfg.Workers.WeeklyWarmupEnabled))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	startOpsServer(cfg.App.MetricsPort, surface, lexiconCache, log)

	waitForShutdown(ctx, cancel, scheduler, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// startOpsServer exposes metrics, health, and the callable surface
// over JSON for the HTTP collaborator
func startOpsServer(port int, surface *api.API, lexicon *sentiment.LexiconCache, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"lexicon": lexicon.Info(r.Context()),
		})
	})

	mux.HandleFunc("/v1/weekly/stock", jsonEntrypoint(log, func(ctx context.Context, dec *json.Decoder) (interface{}, error) {
		var req api.StockWeeklyRequest
		if err := dec.Decode(&req); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
		}
		return surface.StockWeekly(ctx, req)
	}))
	mux.HandleFunc("/v1/weekly/industry", jsonEntrypoint(log, func(ctx context.Context, dec *json.Decoder) (interface{}, error) {
		var req api.IndustryWeeklyRequest
		if err := dec.Decode(&req); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
		}
		return surface.IndustryWeekly(ctx, req)
	}))
	mux.HandleFunc("/v1/weekly/market", jsonEntrypoint(log, func(ctx context.Context, dec *json.Decoder) (interface{}, error) {
		var req api.MarketWeeklyRequest
		if err := dec.Decode(&req); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
		}
		return surface.MarketWeekly(ctx, req)
	}))
	mux.HandleFunc("/v1/predict", jsonEntrypoint(log, func(ctx context.Context, dec *json.Decoder) (interface{}, error) {
		var req api.PredictRequest
		if err := dec.Decode(&req); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
		}
		return surface.Predict(ctx, req)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("Ops server listening on :%d", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Ops server error: %v", err)
		}
	}()
}

// jsonEntrypoint adapts one callable-surface method to a JSON POST
// handler with the 4xx/5xx mapping from the error taxonomy
func jsonEntrypoint(log *logger.Logger, handle func(context.Context, *json.Decoder) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, err := handle(r.Context(), json.NewDecoder(r.Body))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.IsClientError(err) {
				status = http.StatusBadRequest
			} else {
				log.Errorw("Entrypoint failed", "path", r.URL.Path, "error", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// waitForShutdown blocks until a signal arrives, then stops workers
// and flushes the error tracker
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, scheduler *workers.Scheduler, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
