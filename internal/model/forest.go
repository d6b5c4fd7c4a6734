package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Config defines the forest hyperparameters. Depth is bounded to limit
// overfitting on a single season of data.
type Config struct {
	TreeCount int
	MaxDepth  int
	MinLeaf   int
	TestSplit float64
	Seed      int64
}

// Forest is a bagged ensemble of regression trees.
type Forest struct {
	trees       []*regressionTree
	importances []float64
	nFeatures   int
}

// Metrics reports how the fit went on the held-out split.
type Metrics struct {
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`
	TestMAE   float64 `json:"test_mae"`
}

// Train fits a random forest on the feature matrix. The split and every
// bootstrap draw come from the seeded generator, so identical inputs and
// config produce identical forests.
func Train(features [][]float64, labels []float64, cfg Config) (*Forest, Metrics, error) {
	if len(features) == 0 {
		return nil, Metrics{}, fmt.Errorf("no training samples")
	}
	if len(features) != len(labels) {
		return nil, Metrics{}, fmt.Errorf("feature/label length mismatch: %d vs %d", len(features), len(labels))
	}

	nFeatures := len(features[0])
	if cfg.TreeCount <= 0 {
		cfg.TreeCount = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 12
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 2
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	trainIdx, testIdx := splitIndices(len(features), cfg.TestSplit, rng)
	if len(trainIdx) == 0 {
		return nil, Metrics{}, fmt.Errorf("training split is empty")
	}

	// Standard regression-forest default: a third of the features are
	// considered at each split.
	featuresPer := nFeatures / 3
	if featuresPer < 1 {
		featuresPer = 1
	}

	forest := &Forest{
		trees:       make([]*regressionTree, 0, cfg.TreeCount),
		importances: make([]float64, nFeatures),
		nFeatures:   nFeatures,
	}

	params := &treeParams{
		maxDepth:    cfg.MaxDepth,
		minLeaf:     cfg.MinLeaf,
		featuresPer: featuresPer,
		rng:         rng,
		importances: forest.importances,
	}

	for t := 0; t < cfg.TreeCount; t++ {
		sample := make([]int, len(trainIdx))
		for i := range sample {
			sample[i] = trainIdx[rng.Intn(len(trainIdx))]
		}
		forest.trees = append(forest.trees, growTree(features, labels, sample, params))
	}

	if total := floats.Sum(forest.importances); total > 0 {
		floats.Scale(1/total, forest.importances)
	}

	metrics := Metrics{TrainSize: len(trainIdx), TestSize: len(testIdx)}
	if len(testIdx) > 0 {
		var absErr float64
		for _, idx := range testIdx {
			absErr += math.Abs(forest.Predict(features[idx]) - labels[idx])
		}
		metrics.TestMAE = absErr / float64(len(testIdx))
	}

	return forest, metrics, nil
}

// Predict averages the per-tree predictions for one feature vector.
func (f *Forest) Predict(x []float64) float64 {
	sum := 0.0
	for _, tree := range f.trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(f.trees))
}

// PredictAll scores every row of the matrix.
func (f *Forest) PredictAll(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, x := range features {
		out[i] = f.Predict(x)
	}
	return out
}

// FeatureImportances returns the normalized impurity-decrease share per
// feature, in feature-schema order. Sums to 1 when any split was made.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

// splitIndices shuffles 0..n-1 and carves off the tail as the test split.
func splitIndices(n int, testSplit float64, rng *rand.Rand) ([]int, []int) {
	perm := rng.Perm(n)
	if testSplit <= 0 || testSplit >= 1 {
		return perm, nil
	}
	testSize := int(float64(n) * testSplit)
	if testSize == 0 {
		return perm, nil
	}
	cut := n - testSize
	return perm[:cut], perm[cut:]
}
