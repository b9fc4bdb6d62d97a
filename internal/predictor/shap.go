package predictor

import (
	"math"
	"sort"

	"minerva/internal/domain/prediction"
)

// Per-feature attribution of the forest output, computed by walking
// each tree's decision path and crediting every probability change to
// the feature that gated it. Attributions are exactly additive:
// baseline + sum of contributions equals the forest probability of the
// explained class.

// Explain returns the top-3 features by absolute attribution for
// class label, with signed values and 1-based ranks
func (f *Forest) Explain(features []float64, label prediction.Label) []prediction.Contribution {
	phi := f.attributions(features, classIndex(label))

	type scored struct {
		feature int
		value   float64
	}
	ranked := make([]scored, 0, len(phi))
	for i, v := range phi {
		ranked = append(ranked, scored{feature: i, value: v})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].value) > math.Abs(ranked[j].value)
	})

	top := 3
	if len(ranked) < top {
		top = len(ranked)
	}

	out := make([]prediction.Contribution, 0, top)
	for rank, s := range ranked[:top] {
		out = append(out, prediction.Contribution{
			Feature: prediction.FeatureNames[s.feature],
			SHAP:    s.value,
			Rank:    rank + 1,
		})
	}
	return out
}

// Baseline is the forest-averaged root probability of label, the
// additivity anchor for attributions
func (f *Forest) Baseline(label prediction.Label) float64 {
	c := classIndex(label)
	var sum float64
	for _, tree := range f.trees {
		sum += tree.dist[c]
	}
	return sum / float64(len(f.trees))
}

// attributions sums per-tree path attributions for class c, averaged
// over the ensemble
func (f *Forest) attributions(features []float64, c int) []float64 {
	phi := make([]float64, len(features))
	for _, tree := range f.trees {
		node := tree
		for !node.isLeaf {
			var next *treeNode
			if features[node.feature] <= node.threshold {
				next = node.left
			} else {
				next = node.right
			}
			phi[node.feature] += next.dist[c] - node.dist[c]
			node = next
		}
	}
	for i := range phi {
		phi[i] /= float64(len(f.trees))
	}
	return phi
}
