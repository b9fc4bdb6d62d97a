package predictor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minerva/internal/adapters/ai"
	"minerva/internal/adapters/config"
	"minerva/internal/adapters/kafka"
	"minerva/internal/calendar"
	"minerva/internal/domain/prediction"
	"minerva/internal/domain/price"
	"minerva/internal/metrics"
	"minerva/pkg/logger"
)

// historyYears is how far back the daily price window reaches from the
// reference date; enough weekly rows for a stable forest fit
const historyYears = 3

// minTrainRows guards the fit: with fewer resampled rows the forest
// degenerates and the graceful message is more honest than a guess
const minTrainRows = 30

// Service runs the weekly direction prediction per request: load
// prices, engineer daily features, resample to Friday weeks, fit a
// balanced forest on the training window, predict the next Friday row,
// explain it, and narrate the result in Korean.
type Service struct {
	prices   price.Repository
	chat     ai.ChatProvider
	producer *kafka.Producer // optional
	onnx     *ONNXModel      // optional pretrained label backend
	cfg      config.PredictorConfig
	log      *logger.Logger
}

// NewService creates the direction predictor. When cfg.ModelPath is
// set, the exported model supplies the label while the in-process
// forest still backs the explanation.
func NewService(prices price.Repository, chat ai.ChatProvider, producer *kafka.Producer, cfg config.PredictorConfig) *Service {
	s := &Service{
		prices:   prices,
		chat:     chat,
		producer: producer,
		cfg:      cfg,
		log:      logger.Get().With("component", "direction_predictor"),
	}

	if cfg.ModelPath != "" {
		model, err := LoadONNXModel(cfg.ModelPath)
		if err != nil {
			s.log.Warnw("Failed to load exported model, using in-process forest only",
				"path", cfg.ModelPath, "error", err)
		} else {
			s.onnx = model
		}
	}

	return s
}

// Predict produces the direction prediction for the week after
// endDate. Empty price windows and missing prediction rows return a
// graceful record, never an error; only store failures propagate.
func (s *Service) Predict(ctx context.Context, ticker string, endDate time.Time) (prediction.Prediction, error) {
	refWeekEnd := calendar.FridayWeekEnd(endDate)
	nextFriday := calendar.NextFriday(endDate)

	result := prediction.Prediction{
		Ticker:        ticker,
		RefWeekEnd:    refWeekEnd,
		NextWeekStart: nextFriday.AddDate(0, 0, -4), // Monday of the predicted week
		NextWeekEnd:   nextFriday,
	}

	from := endDate.AddDate(-historyYears, 0, 0)
	candles, err := s.prices.GetDaily(ctx, ticker, from, nextFriday)
	if err != nil {
		metrics.PipelineRequests.WithLabelValues("predict", "server_error").Inc()
		return result, err
	}
	if len(candles) == 0 {
		s.log.Warnw("No price data in window", "ticker", ticker, "from", from, "to", nextFriday)
		result.Summary = EmptyWindowNarrative(ticker)
		metrics.PipelineRequests.WithLabelValues("predict", "success").Inc()
		return result, nil
	}

	started := time.Now()
	daily := BuildFeatures(candles)
	weekly := ResampleWeekly(daily)
	train, predictRow, found := SplitTrainPredict(weekly, endDate)
	metrics.StageDuration.WithLabelValues("features").Observe(time.Since(started).Seconds())

	if !found || len(train) < minTrainRows {
		s.log.Warnw("Prediction window too thin",
			"ticker", ticker, "train_rows", len(train), "prediction_row", found)
		result.Summary = EmptyWindowNarrative(ticker)
		metrics.DegradedResponses.WithLabelValues("predictor").Inc()
		metrics.PipelineRequests.WithLabelValues("predict", "success").Inc()
		return result, nil
	}

	started = time.Now()
	forest, err := FitForest(train, ForestConfig{Trees: s.cfg.Trees, Seed: s.cfg.Seed})
	metrics.StageDuration.WithLabelValues("fit").Observe(time.Since(started).Seconds())
	if err != nil {
		result.Summary = EmptyWindowNarrative(ticker)
		metrics.DegradedResponses.WithLabelValues("predictor").Inc()
		metrics.PipelineRequests.WithLabelValues("predict", "success").Inc()
		return result, nil
	}

	features := predictRow.Vector()
	result.Label = s.predictLabel(forest, features)

	started = time.Now()
	result.Contributions = forest.Explain(features, result.Label)
	metrics.StageDuration.WithLabelValues("explain").Observe(time.Since(started).Seconds())

	started = time.Now()
	result.Summary = s.narrate(ctx, refWeekEnd, result.Label, result.Contributions)
	metrics.StageDuration.WithLabelValues("narrate").Observe(time.Since(started).Seconds())

	s.publish(ctx, result)
	metrics.PipelineRequests.WithLabelValues("predict", "success").Inc()
	return result, nil
}

// predictLabel prefers the exported model when loaded and falls back
// to the in-process forest on any inference failure
func (s *Service) predictLabel(forest *Forest, features []float64) prediction.Label {
	if s.onnx != nil {
		label, _, err := s.onnx.Predict(features)
		if err == nil {
			return label
		}
		s.log.Warnw("Exported model inference failed, using in-process forest", "error", err)
	}
	return forest.Predict(features)
}

// narrate sends the assembled prompt to the language model; failures
// degrade to the deterministic template
func (s *Service) narrate(ctx context.Context, refDate time.Time, label prediction.Label, contributions []prediction.Contribution) string {
	prompt := BuildNarrativePrompt(refDate, label, contributions)

	out, err := s.chat.Complete(ctx, ai.ChatRequest{
		System:      narrativeSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   400,
		Temperature: 0.5,
	})
	if err != nil {
		s.log.Warnw("Narrative generation degraded to template", "error", err)
		metrics.DegradedResponses.WithLabelValues("narrative").Inc()
		return FallbackNarrative(refDate, label, contributions)
	}
	return out
}

type predictionEvent struct {
	ID         string `json:"id"`
	Ticker     string `json:"ticker"`
	RefWeekEnd string `json:"ref_week_end"`
	Label      int    `json:"label"`
	FinishedAt string `json:"finished_at"`
}

func (s *Service) publish(ctx context.Context, p prediction.Prediction) {
	if s.producer == nil {
		return
	}

	event := predictionEvent{
		ID:         uuid.NewString(),
		Ticker:     p.Ticker,
		RefWeekEnd: p.RefWeekEnd.Format(calendar.WeekFormat),
		Label:      int(p.Label),
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.producer.Publish(ctx, kafka.TopicPredictionCompleted, p.Ticker, event); err != nil {
		s.log.Warnw("Failed to publish prediction event", "ticker", p.Ticker, "error", err)
	}
}

// Close releases model resources
func (s *Service) Close() {
	if s.onnx != nil {
		s.onnx.Destroy()
	}
}
