package predictor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/domain/prediction"
)

// separableRows builds rows where the sign of SMADiff fully determines
// the target, plus a flat band around zero
func separableRows(n int, seed int64) []prediction.FeatureRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]prediction.FeatureRow, 0, n)
	for i := 0; i < n; i++ {
		diff := rng.Float64()*4 - 2
		row := prediction.FeatureRow{
			SMA5:      100 + diff,
			SMA20:     100,
			SMADiff:   diff,
			RSI14:     50 + diff*10,
			HasTarget: true,
		}
		switch {
		case diff > 0.5:
			row.Target = prediction.LabelUp
		case diff < -0.5:
			row.Target = prediction.LabelDown
		default:
			row.Target = prediction.LabelFlat
		}
		rows = append(rows, row)
	}
	return rows
}

func TestFitForestRejectsEmptyInput(t *testing.T) {
	_, err := FitForest(nil, ForestConfig{Trees: 10, Seed: 1})
	require.Error(t, err)
}

func TestForestLearnsSeparableData(t *testing.T) {
	rows := separableRows(200, 7)
	forest, err := FitForest(rows, ForestConfig{Trees: 50, Seed: 42})
	require.NoError(t, err)

	up := prediction.FeatureRow{SMA5: 101.5, SMA20: 100, SMADiff: 1.5, RSI14: 65}
	down := prediction.FeatureRow{SMA5: 98.5, SMA20: 100, SMADiff: -1.5, RSI14: 35}
	flat := prediction.FeatureRow{SMA5: 100, SMA20: 100, SMADiff: 0, RSI14: 50}

	assert.Equal(t, prediction.LabelUp, forest.Predict(up.Vector()))
	assert.Equal(t, prediction.LabelDown, forest.Predict(down.Vector()))
	assert.Equal(t, prediction.LabelFlat, forest.Predict(flat.Vector()))
}

func TestForestIsSeedDeterministic(t *testing.T) {
	rows := separableRows(120, 3)

	a, err := FitForest(rows, ForestConfig{Trees: 25, Seed: 42})
	require.NoError(t, err)
	b, err := FitForest(rows, ForestConfig{Trees: 25, Seed: 42})
	require.NoError(t, err)

	probe := prediction.FeatureRow{SMA5: 100.7, SMA20: 100, SMADiff: 0.7, RSI14: 57}
	assert.Equal(t, a.Probabilities(probe.Vector()), b.Probabilities(probe.Vector()))
}

func TestExplainAdditivity(t *testing.T) {
	rows := separableRows(150, 11)
	forest, err := FitForest(rows, ForestConfig{Trees: 30, Seed: 42})
	require.NoError(t, err)

	probe := prediction.FeatureRow{SMA5: 101.2, SMA20: 100, SMADiff: 1.2, RSI14: 62}
	features := probe.Vector()
	label := forest.Predict(features)

	phi := forest.attributions(features, classIndex(label))
	var total float64
	for _, v := range phi {
		total += v
	}

	probs := forest.Probabilities(features)
	assert.InDelta(t, probs[classIndex(label)], forest.Baseline(label)+total, 1e-9,
		"baseline plus attributions must reproduce the class probability")
}

func TestExplainReturnsRankedTopThree(t *testing.T) {
	rows := separableRows(150, 5)
	forest, err := FitForest(rows, ForestConfig{Trees: 30, Seed: 42})
	require.NoError(t, err)

	probe := prediction.FeatureRow{SMA5: 101.4, SMA20: 100, SMADiff: 1.4, RSI14: 64}
	contributions := forest.Explain(probe.Vector(), prediction.LabelUp)

	require.Len(t, contributions, 3)
	for i, c := range contributions {
		assert.Equal(t, i+1, c.Rank)
		assert.Contains(t, prediction.FeatureNames, c.Feature)
	}
	// an informative feature dominates the attribution
	assert.Contains(t, []string{"SMA_5", "SMA_diff", "RSI_14"}, contributions[0].Feature)
}
