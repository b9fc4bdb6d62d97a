package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/domain/prediction"
	"minerva/internal/domain/price"
)

func TestLabelReturnThresholds(t *testing.T) {
	tests := []struct {
		ret  float64
		want prediction.Label
	}{
		{0.003, prediction.LabelUp},
		{0.00267, prediction.LabelUp},
		{0.00266, prediction.LabelFlat},
		{0.0, prediction.LabelFlat},
		{-0.00266, prediction.LabelFlat},
		{-0.00267, prediction.LabelDown},
		{-0.003, prediction.LabelDown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelReturn(tt.ret), "return %v", tt.ret)
	}
}

// weekdayCandles generates len(closes) consecutive weekday candles
// starting Monday 2025-01-06
func weekdayCandles(closes []float64) []price.Candle {
	candles := make([]price.Candle, 0, len(closes))
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for _, c := range closes {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		candles = append(candles, price.Candle{Ticker: "TKR", Date: day, Close: c})
		day = day.AddDate(0, 0, 1)
	}
	return candles
}

func TestBuildFeaturesDropsWarmupAndLabelsForwardReturns(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	closes[24] = 101 // forward return of row 19 is +1%
	closes[26] = 99  // forward return of row 21 is -1%

	rows := BuildFeatures(weekdayCandles(closes))
	require.Len(t, rows, 40-warmup)

	first := rows[0]
	assert.Equal(t, weekdayCandles(closes)[warmup].Date, first.Date)
	require.True(t, first.HasTarget)
	assert.Equal(t, prediction.LabelUp, first.Target)

	assert.Equal(t, prediction.LabelFlat, rows[1].Target) // closes[25] back at 100
	assert.Equal(t, prediction.LabelDown, rows[2].Target)

	// the final forwardSteps rows have no forward return
	for _, row := range rows[len(rows)-forwardSteps:] {
		assert.False(t, row.HasTarget)
	}
	assert.True(t, rows[len(rows)-forwardSteps-1].HasTarget)
}

func TestBuildFeaturesStreaks(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i) // strictly rising
	}

	rows := BuildFeatures(weekdayCandles(closes))
	require.NotEmpty(t, rows)

	first := rows[0]
	assert.Equal(t, float64(warmup), first.ConsecutiveUpDays)
	assert.Zero(t, first.ConsecutiveDownDays)
	assert.Positive(t, first.SMADiff, "short average leads in a rising series")
	assert.InDelta(t, 1.0, first.PriceToPeak, 1e-9, "rising close is the rolling peak")
}

func TestResampleWeeklyKeepsLastObservationPerFridayWeek(t *testing.T) {
	mon := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rows := []prediction.FeatureRow{
		{Date: mon, Close: 1},
		{Date: mon.AddDate(0, 0, 2), Close: 2},  // Wednesday
		{Date: mon.AddDate(0, 0, 4), Close: 3},  // Friday
		{Date: mon.AddDate(0, 0, 7), Close: 4},  // next Monday
		{Date: mon.AddDate(0, 0, 10), Close: 5}, // next Thursday
	}

	weekly := ResampleWeekly(rows)
	require.Len(t, weekly, 2)

	assert.Equal(t, time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC), weekly[0].Date)
	assert.Equal(t, 3.0, weekly[0].Close)
	assert.Equal(t, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), weekly[1].Date)
	assert.Equal(t, 5.0, weekly[1].Close, "Thursday is the last observation of an incomplete week")
}

func TestSplitTrainPredict(t *testing.T) {
	friday := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	rows := []prediction.FeatureRow{
		{Date: friday.AddDate(0, 0, -14), HasTarget: true},
		{Date: friday.AddDate(0, 0, -7), HasTarget: true},
		{Date: friday, HasTarget: true},
		{Date: friday.AddDate(0, 0, 7)}, // prediction row, no target yet
	}

	train, predictRow, found := SplitTrainPredict(rows, friday)
	require.True(t, found)
	assert.Len(t, train, 3)
	assert.Equal(t, friday.AddDate(0, 0, 7), predictRow.Date)

	// the next Friday row is absent
	_, _, found = SplitTrainPredict(rows[:3], friday)
	assert.False(t, found)
}
