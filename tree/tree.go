// Package tree implements a CART-style decision tree classifier.
//
// The classifier follows the estimator conventions of core/model: construct
// with functional options, Fit on (X, y) matrices, then Predict or
// PredictProba. Feature subsampling at each split (WithMaxFeatures) is the
// hook the ensemble package uses to decorrelate forest members.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/forestcv/forestcv/core/model"
	"github.com/forestcv/forestcv/metrics"
	"github.com/forestcv/forestcv/pkg/errors"
)

// DecisionTreeClassifier is a binary-split decision tree for multiclass
// classification. Splits are axis-aligned thresholds on single features,
// chosen to minimize the configured impurity criterion.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	criterion      string
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
	seed           int64

	root      *node
	classes   []float64
	nFeatures int
}

// node is one decision point or leaf of the fitted tree.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	leaf       bool
	prediction int       // class index
	probs      []float64 // class distribution at this leaf
}

// NewDecisionTreeClassifier creates a classifier with the given options.
// Defaults: gini criterion, unlimited depth, one sample per leaf, all
// features considered at each split.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		criterion:      "gini",
		minSamplesLeaf: 1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// Fit grows the tree on training data X (n×p) and labels y (n×1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "empty matrix")
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector (n×1 matrix)")
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be \"gini\" or \"entropy\"", dt.criterion)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", dt.minSamplesLeaf)
	}
	if dt.maxFeatures < 0 || dt.maxFeatures > nFeatures {
		return errors.NewValidationError("max_features", "must be in [0, n_features]", dt.maxFeatures)
	}

	dt.Reset()
	dt.nFeatures = nFeatures
	dt.classes = uniqueSorted(y, nSamples)

	classIndex := make(map[float64]int, len(dt.classes))
	for i, c := range dt.classes {
		classIndex[c] = i
	}

	// Class index per sample; avoids map lookups during recursion.
	yIdx := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		yIdx[i] = classIndex[y.At(i, 0)]
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	rng := rand.New(rand.NewPCG(uint64(dt.seed), uint64(dt.seed)))
	dt.root = dt.grow(X, yIdx, indices, 0, rng)

	dt.SetFitted()
	return nil
}

// grow recursively builds the subtree over the samples in indices.
func (dt *DecisionTreeClassifier) grow(X mat.Matrix, yIdx, indices []int, depth int, rng *rand.Rand) *node {
	counts := dt.classCounts(yIdx, indices)

	if dt.isLeaf(counts, indices, depth) {
		return dt.makeLeaf(counts, len(indices))
	}

	feature, threshold, ok := dt.bestSplit(X, yIdx, indices, rng)
	if !ok {
		return dt.makeLeaf(counts, len(indices))
	}

	var left, right []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      dt.grow(X, yIdx, left, depth+1, rng),
		right:     dt.grow(X, yIdx, right, depth+1, rng),
	}
}

func (dt *DecisionTreeClassifier) isLeaf(counts []float64, indices []int, depth int) bool {
	if dt.maxDepth > 0 && depth >= dt.maxDepth {
		return true
	}
	if len(indices) < 2*dt.minSamplesLeaf {
		return true
	}
	// Pure node.
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func (dt *DecisionTreeClassifier) makeLeaf(counts []float64, total int) *node {
	probs := make([]float64, len(counts))
	best := 0
	for i, c := range counts {
		probs[i] = c / float64(total)
		if c > counts[best] {
			best = i
		}
	}
	return &node{leaf: true, prediction: best, probs: probs}
}

func (dt *DecisionTreeClassifier) classCounts(yIdx, indices []int) []float64 {
	counts := make([]float64, len(dt.classes))
	for _, i := range indices {
		counts[yIdx[i]]++
	}
	return counts
}

// bestSplit searches a random subset of features for the threshold that
// minimizes weighted child impurity. Splits leaving fewer than
// minSamplesLeaf samples on either side are not considered.
func (dt *DecisionTreeClassifier) bestSplit(X mat.Matrix, yIdx, indices []int, rng *rand.Rand) (int, float64, bool) {
	nFeatures := dt.nFeatures
	mtry := dt.maxFeatures
	if mtry == 0 {
		mtry = nFeatures
	}

	features := rng.Perm(nFeatures)[:mtry]

	parentImpurity := dt.impurity(dt.classCounts(yIdx, indices), float64(len(indices)))

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	order := make([]int, len(indices))
	for _, f := range features {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool {
			return X.At(order[a], f) < X.At(order[b], f)
		})

		total := float64(len(order))
		leftCounts := make([]float64, len(dt.classes))
		rightCounts := dt.classCounts(yIdx, order)

		// Move samples from right to left one at a time; a split is valid
		// between positions with distinct feature values.
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			leftCounts[yIdx[i]]++
			rightCounts[yIdx[i]]--

			nLeft := pos + 1
			nRight := len(order) - nLeft
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			v, next := X.At(i, f), X.At(order[pos+1], f)
			if v == next {
				continue
			}

			weighted := (float64(nLeft)*dt.impurity(leftCounts, float64(nLeft)) +
				float64(nRight)*dt.impurity(rightCounts, float64(nRight))) / total
			gain := parentImpurity - weighted
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (dt *DecisionTreeClassifier) impurity(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	switch dt.criterion {
	case "entropy":
		h := 0.0
		for _, c := range counts {
			if c == 0 {
				continue
			}
			p := c / total
			h -= p * math.Log2(p)
		}
		return h
	default: // gini
		g := 1.0
		for _, c := range counts {
			p := c / total
			g -= p * p
		}
		return g
	}
}

// Predict returns the predicted class label for each row of X as an n×1 matrix.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.Predict", dt.nFeatures, nFeatures, 1)
	}

	out := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		n := dt.traverse(X, i)
		out.Set(i, 0, dt.classes[n.prediction])
	}
	return out, nil
}

// PredictProba returns per-class probability estimates (n×nClasses), with
// columns ordered as Classes().
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures, nFeatures, 1)
	}

	out := mat.NewDense(nSamples, len(dt.classes), nil)
	for i := 0; i < nSamples; i++ {
		n := dt.traverse(X, i)
		for j, p := range n.probs {
			out.Set(i, j, p)
		}
	}
	return out, nil
}

func (dt *DecisionTreeClassifier) traverse(X mat.Matrix, row int) *node {
	n := dt.root
	for !n.leaf {
		if X.At(row, n.feature) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

// Classes returns the class labels seen during fitting, sorted ascending.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	out := make([]float64, len(dt.classes))
	copy(out, dt.classes)
	return out
}

// Score returns the mean accuracy of Predict(X) against y.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := y.Dims()
	yVec := mat.NewVecDense(n, nil)
	pVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yVec.SetVec(i, y.At(i, 0))
		pVec.SetVec(i, pred.At(i, 0))
	}
	return metrics.Accuracy(yVec, pVec)
}

func uniqueSorted(y mat.Matrix, n int) []float64 {
	seen := make(map[float64]struct{})
	for i := 0; i < n; i++ {
		seen[y.At(i, 0)] = struct{}{}
	}
	classes := make([]float64, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Float64s(classes)
	return classes
}
