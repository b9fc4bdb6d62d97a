package predictor

import (
	"math"
	"math/rand"
	"sort"

	"minerva/internal/domain/prediction"
	"minerva/pkg/errors"
)

// numClasses covers the ternary direction: index 0 = down, 1 = flat,
// 2 = up
const numClasses = 3

func classIndex(l prediction.Label) int { return int(l) + 1 }
func indexClass(i int) prediction.Label { return prediction.Label(i - 1) }

// treeNode is one node of a fitted decision tree. Leaves carry the
// class distribution of the training samples that reached them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	dist      [numClasses]float64 // normalized class distribution
	isLeaf    bool
}

// Forest is a balanced random forest over the weekly feature rows:
// each tree trains on a bootstrap drawn equally from every present
// class, so the majority class cannot drown out the rare directions.
type Forest struct {
	trees []*treeNode
	mtry  int
}

// ForestConfig holds the ensemble hyperparameters
type ForestConfig struct {
	Trees       int
	Seed        int64
	minLeafSize int
}

// FitForest trains the ensemble on rows that carry a target. The seed
// fixes every bootstrap and split draw, so equal inputs yield equal
// forests.
func FitForest(rows []prediction.FeatureRow, cfg ForestConfig) (*Forest, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no training rows")
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.minLeafSize <= 0 {
		cfg.minLeafSize = 1
	}

	samples := make([][]float64, len(rows))
	labels := make([]int, len(rows))
	byClass := make(map[int][]int)
	for i, row := range rows {
		samples[i] = row.Vector()
		labels[i] = classIndex(row.Target)
		byClass[labels[i]] = append(byClass[labels[i]], i)
	}

	// balanced bootstrap size: the smallest class count, drawn with
	// replacement from each class present
	perClass := len(rows)
	for _, idxs := range byClass {
		if len(idxs) < perClass {
			perClass = len(idxs)
		}
	}

	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	nFeatures := len(samples[0])
	mtry := int(math.Sqrt(float64(nFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := &Forest{trees: make([]*treeNode, 0, cfg.Trees), mtry: mtry}
	for t := 0; t < cfg.Trees; t++ {
		var bootstrap []int
		for _, c := range classes {
			idxs := byClass[c]
			for k := 0; k < perClass; k++ {
				bootstrap = append(bootstrap, idxs[rng.Intn(len(idxs))])
			}
		}
		tree := growTree(samples, labels, bootstrap, mtry, cfg.minLeafSize, rng)
		forest.trees = append(forest.trees, tree)
	}

	return forest, nil
}

// Predict averages per-tree class distributions and returns the argmax
// label; ties resolve toward the lower label so flat beats up
func (f *Forest) Predict(features []float64) prediction.Label {
	probs := f.Probabilities(features)

	best := 0
	for c := 1; c < numClasses; c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return indexClass(best)
}

// Probabilities returns the forest-averaged class distribution
func (f *Forest) Probabilities(features []float64) [numClasses]float64 {
	var sum [numClasses]float64
	for _, tree := range f.trees {
		leaf := descend(tree, features)
		for c := 0; c < numClasses; c++ {
			sum[c] += leaf.dist[c]
		}
	}
	for c := 0; c < numClasses; c++ {
		sum[c] /= float64(len(f.trees))
	}
	return sum
}

func descend(node *treeNode, features []float64) *treeNode {
	for !node.isLeaf {
		if features[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node
}

// growTree builds one CART tree with gini splits over mtry random
// feature candidates per node
func growTree(samples [][]float64, labels []int, idxs []int, mtry, minLeaf int, rng *rand.Rand) *treeNode {
	node := &treeNode{dist: distribution(labels, idxs)}

	if len(idxs) <= minLeaf || pure(labels, idxs) {
		node.isLeaf = true
		return node
	}

	feature, threshold, ok := bestSplit(samples, labels, idxs, mtry, rng)
	if !ok {
		node.isLeaf = true
		return node
	}

	var left, right []int
	for _, i := range idxs {
		if samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		node.isLeaf = true
		return node
	}

	node.feature = feature
	node.threshold = threshold
	node.left = growTree(samples, labels, left, mtry, minLeaf, rng)
	node.right = growTree(samples, labels, right, mtry, minLeaf, rng)
	return node
}

// bestSplit scans mtry random features for the gini-optimal threshold
func bestSplit(samples [][]float64, labels []int, idxs []int, mtry int, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(samples[idxs[0]])
	order := rng.Perm(nFeatures)

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, feature := range order[:mtry] {
		values := make([]float64, 0, len(idxs))
		for _, i := range idxs {
			values = append(values, samples[i][feature])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			g := splitGini(samples, labels, idxs, feature, threshold)
			if g < bestGini {
				bestGini = g
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// splitGini is the size-weighted gini impurity of the two partitions
func splitGini(samples [][]float64, labels []int, idxs []int, feature int, threshold float64) float64 {
	var leftCounts, rightCounts [numClasses]int
	leftN, rightN := 0, 0
	for _, i := range idxs {
		if samples[i][feature] <= threshold {
			leftCounts[labels[i]]++
			leftN++
		} else {
			rightCounts[labels[i]]++
			rightN++
		}
	}

	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftCounts, leftN) +
		float64(rightN)/total*gini(rightCounts, rightN)
}

func gini(counts [numClasses]int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func distribution(labels []int, idxs []int) [numClasses]float64 {
	var dist [numClasses]float64
	for _, i := range idxs {
		dist[labels[i]]++
	}
	for c := range dist {
		dist[c] /= float64(len(idxs))
	}
	return dist
}

func pure(labels []int, idxs []int) bool {
	first := labels[idxs[0]]
	for _, i := range idxs[1:] {
		if labels[i] != first {
			return false
		}
	}
	return true
}
