package model

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// regressionTree is a single CART tree grown on a bootstrap sample with a
// random feature subset considered at every split.
type regressionTree struct {
	root *treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// treeParams carries everything tree growth needs, including the shared
// importance accumulator the forest aggregates across trees.
type treeParams struct {
	maxDepth    int
	minLeaf     int
	featuresPer int
	rng         *rand.Rand
	importances []float64
}

func growTree(features [][]float64, labels []float64, indices []int, params *treeParams) *regressionTree {
	return &regressionTree{
		root: growNode(features, labels, indices, 0, params),
	}
}

func growNode(features [][]float64, labels []float64, indices []int, depth int, params *treeParams) *treeNode {
	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = labels[idx]
	}
	mean := stat.Mean(values, nil)

	if depth >= params.maxDepth || len(indices) < 2*params.minLeaf || stat.Variance(values, nil) == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, gain, ok := bestSplit(features, labels, indices, params)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var left, right []int
	for _, idx := range indices {
		if features[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < params.minLeaf || len(right) < params.minLeaf {
		return &treeNode{leaf: true, value: mean}
	}

	params.importances[feature] += gain

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growNode(features, labels, left, depth+1, params),
		right:     growNode(features, labels, right, depth+1, params),
	}
}

// bestSplit scans a random feature subset for the split with the largest
// sum-of-squared-error reduction, using prefix sums over the sorted
// feature column.
func bestSplit(features [][]float64, labels []float64, indices []int, params *treeParams) (int, float64, float64, bool) {
	nFeatures := len(features[indices[0]])
	candidates := params.rng.Perm(nFeatures)[:params.featuresPer]

	n := float64(len(indices))
	var totalSum, totalSqSum float64
	for _, idx := range indices {
		totalSum += labels[idx]
		totalSqSum += labels[idx] * labels[idx]
	}
	parentSSE := totalSqSum - totalSum*totalSum/n

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	sorted := make([]int, len(indices))
	for _, feature := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return features[sorted[i]][feature] < features[sorted[j]][feature]
		})

		var leftSum, leftSqSum float64
		for i := 0; i < len(sorted)-1; i++ {
			y := labels[sorted[i]]
			leftSum += y
			leftSqSum += y * y

			cur := features[sorted[i]][feature]
			next := features[sorted[i+1]][feature]
			if cur == next {
				continue
			}

			nLeft := float64(i + 1)
			nRight := n - nLeft
			rightSum := totalSum - leftSum
			rightSqSum := totalSqSum - leftSqSum

			leftSSE := leftSqSum - leftSum*leftSum/nLeft
			rightSSE := rightSqSum - rightSum*rightSum/nRight
			gain := parentSSE - leftSSE - rightSSE

			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

func (t *regressionTree) predict(x []float64) float64 {
	node := t.root
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}
