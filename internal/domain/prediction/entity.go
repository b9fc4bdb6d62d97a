package prediction

import "time"

// Label is the ternary weekly direction
type Label int

const (
	LabelDown Label = -1
	LabelFlat Label = 0
	LabelUp   Label = 1
)

// Direction returns the Korean direction word used by the narrative prompt
func (l Label) Direction() string {
	switch l {
	case LabelUp:
		return "상승"
	case LabelDown:
		return "하락"
	default:
		return "보합"
	}
}

// FeatureRow is one weekly feature-engineered observation
type FeatureRow struct {
	Date               time.Time
	Close              float64
	SMA5               float64
	SMA20              float64
	SMADiff            float64
	RSI14              float64
	Momentum10         float64
	ROC10              float64
	PriceToPeak        float64
	PriceToTrough      float64
	ConsecutiveUpDays  float64
	ConsecutiveDownDays float64
	Target             Label
	HasTarget          bool
}

// FeatureNames lists feature columns in model input order
var FeatureNames = []string{
	"SMA_5", "SMA_20", "SMA_diff", "RSI_14", "Momentum_10", "ROC_10",
	"price_to_peak", "price_to_trough", "consecutive_up_days", "consecutive_down_days",
}

// Vector returns the feature values in model input order
func (r FeatureRow) Vector() []float64 {
	return []float64{
		r.SMA5, r.SMA20, r.SMADiff, r.RSI14, r.Momentum10, r.ROC10,
		r.PriceToPeak, r.PriceToTrough, r.ConsecutiveUpDays, r.ConsecutiveDownDays,
	}
}

// Contribution is one SHAP attribution for the predicted class
type Contribution struct {
	Feature string  `json:"feature"`
	SHAP    float64 `json:"shap"`
	Rank    int     `json:"rank"`
}

// Prediction is the weekly direction prediction record.
// Summary is non-empty iff the feature window contained at least one
// row after resampling.
type Prediction struct {
	Ticker        string         `json:"ticker"`
	RefWeekEnd    time.Time      `json:"ref_week_end"`
	NextWeekStart time.Time      `json:"next_week_start"`
	NextWeekEnd   time.Time      `json:"next_week_end"`
	Label         Label          `json:"label"`
	Contributions []Contribution `json:"contributions,omitempty"`
	Summary       string         `json:"summary"`
}
