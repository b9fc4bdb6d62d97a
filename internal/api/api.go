package api

import (
	"context"
	"strings"
	"time"

	"minerva/internal/analytics"
	"minerva/internal/calendar"
	"minerva/internal/domain/prediction"
	"minerva/internal/domain/price"
	"minerva/internal/predictor"
	"minerva/pkg/errors"

	analyticsdomain "minerva/internal/domain/analytics"
)

// API is the callable surface the outer HTTP layer embeds. Each entry
// point takes a small request struct with string dates, validates it,
// and delegates to the pipeline. Validation failures are client
// errors; the HTTP layer maps them with errors.IsClientError.
type API struct {
	weekly     *analytics.Service
	directions *predictor.Service
	indexes    price.IndexRepository
}

// New wires the entry points
func New(weekly *analytics.Service, directions *predictor.Service, indexes price.IndexRepository) *API {
	return &API{
		weekly:     weekly,
		directions: directions,
		indexes:    indexes,
	}
}

// validSectors is the sector taxonomy of the article store
var validSectors = map[string]bool{
	"basic_materials":        true,
	"communication_services": true,
	"consumer_cyclical":      true,
	"consumer_defensive":     true,
	"energy":                 true,
	"financial_services":     true,
	"healthcare":             true,
	"industrials":            true,
	"real_estate":            true,
	"technology":             true,
	"utilities":              true,
}

// StockWeeklyRequest queries per-week results for one ticker
type StockWeeklyRequest struct {
	Ticker string `json:"ticker"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// IndustryWeeklyRequest queries one week bucket for a sector
type IndustryWeeklyRequest struct {
	Sector string `json:"sector"`
	Date   string `json:"date"`
}

// MarketWeeklyRequest queries one week bucket across the market
type MarketWeeklyRequest struct {
	Date string `json:"date"`
}

// PredictRequest queries the direction for the week after Date
type PredictRequest struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
}

// BenchmarkRequest queries benchmark closes inside a date range
type BenchmarkRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StockWeekly returns one result per week bucket in the range
func (a *API) StockWeekly(ctx context.Context, req StockWeeklyRequest) ([]analyticsdomain.WeeklyResult, error) {
	if req.Ticker == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "ticker is required")
	}
	from, err := parseDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(req.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "range end %s precedes start %s", req.To, req.From)
	}

	return a.weekly.StockWeekly(ctx, strings.ToUpper(req.Ticker), from, to)
}

// IndustryWeekly returns the sector result for the week bucket of Date
func (a *API) IndustryWeekly(ctx context.Context, req IndustryWeeklyRequest) (analyticsdomain.WeeklyResult, error) {
	sector := strings.ToLower(strings.TrimSpace(req.Sector))
	if !validSectors[sector] {
		return analyticsdomain.WeeklyResult{}, errors.Wrapf(errors.ErrUnknownSector, "%q", req.Sector)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return analyticsdomain.WeeklyResult{}, err
	}

	return a.weekly.IndustryWeekly(ctx, sector, date)
}

// MarketWeekly returns the market-wide result for the week bucket of Date
func (a *API) MarketWeekly(ctx context.Context, req MarketWeeklyRequest) (analyticsdomain.WeeklyResult, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return analyticsdomain.WeeklyResult{}, err
	}
	return a.weekly.MarketWeekly(ctx, date)
}

// Predict returns the direction prediction for the week after Date
func (a *API) Predict(ctx context.Context, req PredictRequest) (prediction.Prediction, error) {
	if req.Ticker == "" {
		return prediction.Prediction{}, errors.Wrap(errors.ErrInvalidInput, "ticker is required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return prediction.Prediction{}, err
	}

	return a.directions.Predict(ctx, strings.ToUpper(req.Ticker), date)
}

// BenchmarkCloses returns index closes for the performance collaborator
func (a *API) BenchmarkCloses(ctx context.Context, req BenchmarkRequest) ([]price.IndexClose, error) {
	from, err := parseDate(req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(req.To)
	if err != nil {
		return nil, err
	}

	return a.indexes.GetCloses(ctx, from, to)
}

func parseDate(s string) (time.Time, error) {
	d, err := calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrMalformedDate, "%q", s)
	}
	return d, nil
}
