package predictor

import (
	"sort"
	"time"

	"github.com/markcheno/go-talib"

	"minerva/internal/calendar"
	"minerva/internal/domain/prediction"
	"minerva/internal/domain/price"
)

const (
	smaShortPeriod = 5
	smaLongPeriod  = 20
	rsiPeriod      = 14
	momentumPeriod = 10
	rocPeriod      = 10
	rollingPeriod  = 20
	forwardSteps   = 5

	// upThreshold labels the 5-step forward return; returns inside
	// (-upThreshold, upThreshold) are flat
	upThreshold = 0.00267
)

// warmup rows carry indicator padding instead of real values and are
// dropped, matching the longest lookback above
const warmup = rollingPeriod - 1

// LabelReturn maps a 5-step forward return to the ternary direction
func LabelReturn(r float64) prediction.Label {
	switch {
	case r >= upThreshold:
		return prediction.LabelUp
	case r <= -upThreshold:
		return prediction.LabelDown
	default:
		return prediction.LabelFlat
	}
}

// BuildFeatures computes the daily feature matrix from candles sorted
// ascending by date. Rows inside the indicator warmup window are
// dropped; the trailing rows without a forward return keep their
// features with HasTarget false.
func BuildFeatures(candles []price.Candle) []prediction.FeatureRow {
	n := len(candles)
	if n <= warmup {
		return nil
	}

	closes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
	}

	sma5 := talib.Sma(closes, smaShortPeriod)
	sma20 := talib.Sma(closes, smaLongPeriod)
	rsi14 := talib.Rsi(closes, rsiPeriod)
	mom10 := talib.Mom(closes, momentumPeriod)
	roc10 := talib.Roc(closes, rocPeriod)
	peaks := talib.Max(closes, rollingPeriod)
	troughs := talib.Min(closes, rollingPeriod)

	upStreak, downStreak := streaks(closes)

	rows := make([]prediction.FeatureRow, 0, n-warmup)
	for i := warmup; i < n; i++ {
		if peaks[i] == 0 || troughs[i] == 0 {
			continue
		}

		row := prediction.FeatureRow{
			Date:                candles[i].Date,
			Close:               closes[i],
			SMA5:                sma5[i],
			SMA20:               sma20[i],
			SMADiff:             sma5[i] - sma20[i],
			RSI14:               rsi14[i],
			Momentum10:          mom10[i],
			ROC10:               roc10[i],
			PriceToPeak:         closes[i] / peaks[i],
			PriceToTrough:       closes[i] / troughs[i],
			ConsecutiveUpDays:   float64(upStreak[i]),
			ConsecutiveDownDays: float64(downStreak[i]),
		}

		if i+forwardSteps < n {
			forward := closes[i+forwardSteps]/closes[i] - 1
			row.Target = LabelReturn(forward)
			row.HasTarget = true
		}

		rows = append(rows, row)
	}

	return rows
}

// streaks returns the running length of the current monotone up and
// down runs at each index
func streaks(closes []float64) (up, down []int) {
	n := len(closes)
	up = make([]int, n)
	down = make([]int, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			up[i] = up[i-1] + 1
		case closes[i] < closes[i-1]:
			down[i] = down[i-1] + 1
		}
	}
	return up, down
}

// ResampleWeekly keeps the last observation per Friday-anchored week.
// Each returned row's Date is moved to its Friday week end, sorted
// ascending.
func ResampleWeekly(rows []prediction.FeatureRow) []prediction.FeatureRow {
	byWeek := make(map[time.Time]prediction.FeatureRow)
	for _, row := range rows {
		weekEnd := calendar.FridayWeekEnd(row.Date)
		last, ok := byWeek[weekEnd]
		if !ok || row.Date.After(last.Date) {
			byWeek[weekEnd] = row
		}
	}

	out := make([]prediction.FeatureRow, 0, len(byWeek))
	for weekEnd, row := range byWeek {
		row.Date = weekEnd
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SplitTrainPredict separates the training window (rows dated on or
// before endDate that carry a target) from the prediction row, which
// must sit exactly on the next Friday after endDate. The second return
// is false when that row is absent.
func SplitTrainPredict(rows []prediction.FeatureRow, endDate time.Time) ([]prediction.FeatureRow, prediction.FeatureRow, bool) {
	nextFriday := calendar.NextFriday(endDate)

	var train []prediction.FeatureRow
	var predictRow prediction.FeatureRow
	found := false
	for _, row := range rows {
		if !row.Date.After(endDate) && row.HasTarget {
			train = append(train, row)
		}
		if row.Date.Equal(nextFriday) {
			predictRow = row
			found = true
		}
	}
	return train, predictRow, found
}
