// Package ensemble implements bagged tree ensembles for classification.
//
// RandomForestClassifier trains a fixed number of decision trees on bootstrap
// resamples of the training data, with random feature subsampling at each
// split, and predicts by majority vote. Tree training runs in parallel across
// CPU cores; results are deterministic for a given seed because every tree
// draws its own seed from the forest seed up front, independent of
// goroutine scheduling.
package ensemble

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/forestcv/forestcv/core/model"
	"github.com/forestcv/forestcv/core/parallel"
	"github.com/forestcv/forestcv/metrics"
	"github.com/forestcv/forestcv/pkg/errors"
	"github.com/forestcv/forestcv/pkg/log"
	"github.com/forestcv/forestcv/tree"
)

// RandomForestClassifier is a bootstrap-aggregated ensemble of
// tree.DecisionTreeClassifier for multiclass problems.
type RandomForestClassifier struct {
	model.BaseEstimator

	nEstimators    int
	maxFeatures    int
	minSamplesLeaf int
	maxDepth       int
	criterion      string
	seed           int64

	trees     []*tree.DecisionTreeClassifier
	classes   []float64
	nFeatures int
}

// NewRandomForestClassifier creates a forest with the given options.
// Defaults: 100 trees, gini criterion, one sample per leaf, unlimited depth,
// sqrt(n_features) features per split.
func NewRandomForestClassifier(opts ...Option) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		nEstimators:    100,
		minSamplesLeaf: 1,
		criterion:      "gini",
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Fit trains the forest on X (n×p) and labels y (n×1).
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestClassifier.Fit")

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewValueError("RandomForestClassifier.Fit", "empty matrix")
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "y must be a column vector (n×1 matrix)")
	}
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", rf.nEstimators)
	}

	mtry := rf.maxFeatures
	if mtry == 0 {
		mtry = int(math.Floor(math.Sqrt(float64(nFeatures))))
		if mtry < 1 {
			mtry = 1
		}
	}
	if mtry < 0 || mtry > nFeatures {
		return errors.NewValidationError("max_features", "must be in [0, n_features]", rf.maxFeatures)
	}

	rf.Reset()
	rf.nFeatures = nFeatures
	rf.classes = collectClasses(y, nSamples)

	slog.Debug("training forest",
		log.ModelNameKey, "RandomForestClassifier",
		log.OperationKey, "fit",
		log.ComponentKey, "ensemble",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, len(rf.classes),
		log.SeedKey, rf.seed,
	)

	// Draw all per-tree seeds before spawning workers so the forest is
	// reproducible regardless of scheduling order.
	seedRng := rand.New(rand.NewPCG(uint64(rf.seed), uint64(rf.seed)))
	treeSeeds := make([]int64, rf.nEstimators)
	for i := range treeSeeds {
		treeSeeds[i] = int64(seedRng.Uint64() >> 1)
	}

	rf.trees = make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	fitErrs := make([]error, rf.nEstimators)

	parallel.Each(rf.nEstimators, func(i int) {
		bootRng := rand.New(rand.NewPCG(uint64(treeSeeds[i]), uint64(treeSeeds[i])))

		Xb, yb := bootstrap(X, y, nSamples, nFeatures, bootRng)

		t := tree.NewDecisionTreeClassifier(
			tree.WithCriterion(rf.criterion),
			tree.WithMaxDepth(rf.maxDepth),
			tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
			tree.WithMaxFeatures(mtry),
			tree.WithSeed(treeSeeds[i]),
		)
		if err := t.Fit(Xb, yb); err != nil {
			fitErrs[i] = errors.Wrapf(err, "tree %d", i)
			return
		}
		rf.trees[i] = t
	})

	for _, e := range fitErrs {
		if e != nil {
			return e
		}
	}

	rf.SetFitted()
	return nil
}

// bootstrap draws n samples with replacement from (X, y).
func bootstrap(X, y mat.Matrix, nSamples, nFeatures int, rng *rand.Rand) (*mat.Dense, *mat.Dense) {
	Xb := mat.NewDense(nSamples, nFeatures, nil)
	yb := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		src := rng.IntN(nSamples)
		for j := 0; j < nFeatures; j++ {
			Xb.Set(i, j, X.At(src, j))
		}
		yb.Set(i, 0, y.At(src, 0))
	}
	return Xb, yb
}

// Predict returns the majority-vote class label for each row of X (n×1).
// Ties break toward the lowest class label, which keeps predictions
// deterministic.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	out := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for j := 1; j < len(rf.classes); j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.Set(i, 0, rf.classes[best])
	}
	return out, nil
}

// PredictProba returns the fraction of trees voting for each class
// (n×nClasses), with columns ordered as Classes().
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.nFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", rf.nFeatures, nFeatures, 1)
	}

	classCol := make(map[float64]int, len(rf.classes))
	for j, c := range rf.classes {
		classCol[c] = j
	}

	votes := mat.NewDense(nSamples, len(rf.classes), nil)
	chunkErrs := make([]error, nSamples)

	// Trees vote in parallel over row chunks; each chunk owns its rows of
	// the votes matrix and records failures in its own slot, so no locking
	// is needed.
	parallel.ParallelizeWithThreshold(nSamples, 64, func(start, end int) {
		sub := extractRows(X, start, end, nFeatures)
		for _, t := range rf.trees {
			preds, err := t.Predict(sub)
			if err != nil {
				chunkErrs[start] = err
				return
			}
			for i := start; i < end; i++ {
				col := classCol[preds.At(i-start, 0)]
				votes.Set(i, col, votes.At(i, col)+1)
			}
		}
	})
	for _, e := range chunkErrs {
		if e != nil {
			return nil, e
		}
	}

	nTrees := float64(len(rf.trees))
	for i := 0; i < nSamples; i++ {
		for j := range rf.classes {
			votes.Set(i, j, votes.At(i, j)/nTrees)
		}
	}
	return votes, nil
}

func extractRows(X mat.Matrix, start, end, nFeatures int) *mat.Dense {
	sub := mat.NewDense(end-start, nFeatures, nil)
	for i := start; i < end; i++ {
		for j := 0; j < nFeatures; j++ {
			sub.Set(i-start, j, X.At(i, j))
		}
	}
	return sub
}

// Classes returns the class labels seen during fitting, sorted ascending.
func (rf *RandomForestClassifier) Classes() []float64 {
	out := make([]float64, len(rf.classes))
	copy(out, rf.classes)
	return out
}

// Score returns the mean accuracy of Predict(X) against y.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
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

func collectClasses(y mat.Matrix, n int) []float64 {
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
