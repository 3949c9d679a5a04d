package modelselection

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/forestcv/forestcv/core/model"
	"github.com/forestcv/forestcv/metrics"
	"github.com/forestcv/forestcv/pkg/errors"
	"github.com/forestcv/forestcv/pkg/log"
)

// GridSearchCV evaluates every candidate of a parameter grid with
// cross-validation, selects the best-scoring candidate, and refits it on
// the full training set.
//
// The zero value is not usable: NewEstimator is required. Unset CV defaults
// to shuffled 5-fold, unset Scorer to held-out accuracy. All randomness is
// governed by Seed (or an explicit Seeds schedule), so repeated runs produce
// identical result tables.
type GridSearchCV struct {
	// Grid spans the candidates to evaluate.
	Grid ParamGrid

	// CV is the resampling strategy. Defaults to NewKFold(5, true, Seed).
	CV Splitter

	// Metric names the optimization metric. A Scorer returning a
	// differently named Score aborts the search. Defaults to "Accuracy"
	// when Scorer is nil.
	Metric string

	// Scorer computes the optimization metric from held-out labels.
	// Defaults to AccuracyScorer().
	Scorer Scorer

	// Minimize flips the selection policy. The default picks the highest
	// mean score.
	Minimize bool

	// Seed drives fold shuffling and the derived seed schedule.
	Seed int64

	// Seeds optionally pins every per-fit seed explicitly. When nil, a
	// schedule is derived from Seed.
	Seeds *SeedSchedule

	// NewEstimator constructs the estimator for one candidate. The seed
	// comes from the schedule and makes the fit reproducible.
	NewEstimator func(c Candidate, seed int64) model.Classifier
}

// CandidateResult is one row of the search result table.
type CandidateResult struct {
	Candidate  Candidate
	FoldScores []float64
	// Mean and Std aggregate FoldScores. Std is the sample standard
	// deviation (n-1 denominator). A fold where the metric was undefined
	// (NaN) propagates into both.
	Mean float64
	Std  float64
}

// SearchResult holds the outcome of a grid search.
type SearchResult struct {
	// Metric is the name of the optimization metric used.
	Metric string

	// Results has one entry per candidate, in grid order.
	Results []CandidateResult

	// BestIndex points at the selected candidate in Results.
	BestIndex int

	// BestModel is the best candidate refit on the full training set.
	BestModel model.Classifier

	// OutOfFold cross-tabulates the held-out predictions of the best
	// candidate against the observed labels, aggregated over all folds.
	OutOfFold *metrics.ConfusionMatrix
}

// Best returns the selected candidate's result row.
func (sr *SearchResult) Best() CandidateResult {
	return sr.Results[sr.BestIndex]
}

// Table formats the result table, one candidate per row with the mean and
// standard deviation of the optimization metric across folds.
func (sr *SearchResult) Table() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-18s %-10s %12s %12s\n",
		"mtry", "min_samples_leaf", "criterion", sr.Metric, "SD")
	for i, r := range sr.Results {
		marker := " "
		if i == sr.BestIndex {
			marker = "*"
		}
		fmt.Fprintf(&b, "%-6d %-18d %-10s %12.4f %12.4f %s\n",
			r.Candidate.MaxFeatures, r.Candidate.MinSamplesLeaf, r.Candidate.Criterion,
			r.Mean, r.Std, marker)
	}
	fmt.Fprintf(&b, "\nSelected: %s (%s = %.4f)\n",
		sr.Best().Candidate, sr.Metric, sr.Best().Mean)
	return b.String()
}

// Run executes the search on X (n×p) and labels y (n×1).
func (gs *GridSearchCV) Run(X, y mat.Matrix) (*SearchResult, error) {
	if gs.NewEstimator == nil {
		return nil, errors.NewValidationError("NewEstimator", "must not be nil", nil)
	}

	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return nil, errors.NewDimensionError("GridSearchCV.Run", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewValueError("GridSearchCV.Run", "y must be a column vector (n×1 matrix)")
	}

	candidates, err := gs.Grid.Candidates()
	if err != nil {
		return nil, err
	}

	scorer := gs.Scorer
	metric := gs.Metric
	if scorer == nil {
		// Built-in metrics are selected by name; anything else needs a
		// user-supplied Scorer.
		switch metric {
		case "", MetricAccuracy:
			scorer = AccuracyScorer()
			metric = MetricAccuracy
		case MetricKappa:
			scorer = KappaScorer()
		default:
			return nil, errors.NewValidationError("Metric", "unknown built-in metric; supply a Scorer", metric)
		}
	} else if metric == "" {
		return nil, errors.NewValidationError("Metric", "required when a custom Scorer is supplied", nil)
	}

	cv := gs.CV
	if cv == nil {
		cv = NewKFold(5, true, gs.Seed)
	}
	folds := cv.Split(X, y)

	seeds := gs.Seeds
	if seeds == nil {
		seeds = NewSeedSchedule(gs.Seed, len(folds), len(candidates))
	}
	if err := seeds.validate(len(folds), len(candidates)); err != nil {
		return nil, err
	}

	labels := labelSet(y, nSamples)

	logger := slog.Default().With(
		log.ComponentKey, "modelselection",
		log.OperationKey, "search",
		log.MetricKey, metric,
	)
	logger.Info("starting grid search",
		log.SamplesKey, nSamples,
		"candidates", len(candidates),
		"folds", len(folds),
	)

	// Held-out predictions per candidate, indexed by sample. Samples a
	// splitter never places in a test set stay uncovered.
	oof := make([][]float64, len(candidates))
	for c := range oof {
		oof[c] = make([]float64, nSamples)
	}
	covered := make([]bool, nSamples)

	scores := make([][]float64, len(candidates))
	for c := range scores {
		scores[c] = make([]float64, len(folds))
	}

	for f, fold := range folds {
		trainX, trainY := subset(X, y, fold.TrainIndices)

		// Row k of the extracted test set is sample testIdx[k]; every use
		// of the held-out predictions below must follow this order.
		testIdx := sortedCopy(fold.TestIndices)
		testX, testY := subset(X, y, testIdx)
		yTest := colVec(testY)

		for _, i := range testIdx {
			covered[i] = true
		}

		for c, cand := range candidates {
			seed := seeds.Folds[f][c]
			est := gs.NewEstimator(cand, seed)

			err := errors.SafeExecute("GridSearchCV.fit", func() error {
				return est.Fit(trainX, trainY)
			})
			if err != nil {
				return nil, errors.Wrapf(err, "fold %d candidate %d (%s)", f, c, cand)
			}

			pred, err := est.Predict(testX)
			if err != nil {
				return nil, errors.Wrapf(err, "fold %d candidate %d (%s)", f, c, cand)
			}
			yPred := colVec(pred)

			s, err := scorer(yTest, yPred)
			if err != nil {
				return nil, errors.Wrapf(err, "fold %d candidate %d (%s)", f, c, cand)
			}
			if s.Name != metric {
				return nil, errors.NewMetricMismatchError(metric, s.Name)
			}
			scores[c][f] = s.Value

			for k, i := range testIdx {
				oof[c][i] = yPred.AtVec(k)
			}

			logger.Debug("candidate evaluated",
				log.FoldKey, f,
				log.CandidateKey, c,
				log.SeedKey, seed,
				log.ScoreKey, s.Value,
			)
		}
	}

	results := make([]CandidateResult, len(candidates))
	for c, cand := range candidates {
		results[c] = CandidateResult{
			Candidate:  cand,
			FoldScores: scores[c],
			Mean:       stat.Mean(scores[c], nil),
			Std:        stat.StdDev(scores[c], nil),
		}
	}

	bestIdx := -1
	for c, r := range results {
		if math.IsNaN(r.Mean) {
			continue
		}
		if bestIdx < 0 {
			bestIdx = c
			continue
		}
		if gs.Minimize {
			if r.Mean < results[bestIdx].Mean {
				bestIdx = c
			}
		} else if r.Mean > results[bestIdx].Mean {
			bestIdx = c
		}
	}
	if bestIdx < 0 {
		return nil, errors.New("grid search: every candidate scored NaN")
	}

	// Refit the winner on the full training set with the schedule's final
	// seed.
	best := gs.NewEstimator(candidates[bestIdx], seeds.Final)
	if err := best.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "refitting best candidate")
	}

	cm, err := outOfFoldConfusion(y, oof[bestIdx], covered, labels)
	if err != nil {
		return nil, err
	}

	logger.Info("grid search finished",
		log.CandidateKey, bestIdx,
		log.ScoreKey, results[bestIdx].Mean,
	)

	return &SearchResult{
		Metric:    metric,
		Results:   results,
		BestIndex: bestIdx,
		BestModel: best,
		OutOfFold: cm,
	}, nil
}

// subset copies the rows named by indices out of (X, y). Indices are sorted
// first so the extracted rows keep the dataset's original order.
func subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, nFeatures := X.Dims()

	sorted := sortedCopy(indices)

	Xs := mat.NewDense(len(sorted), nFeatures, nil)
	ys := mat.NewDense(len(sorted), 1, nil)
	for i, idx := range sorted {
		for j := 0; j < nFeatures; j++ {
			Xs.Set(i, j, X.At(idx, j))
		}
		ys.Set(i, 0, y.At(idx, 0))
	}
	return Xs, ys
}

// sortedCopy returns the indices in ascending order without mutating the
// caller's slice.
func sortedCopy(indices []int) []int {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)
	return sorted
}

// colVec copies the first column of m into a vector.
func colVec(m mat.Matrix) *mat.VecDense {
	n, _ := m.Dims()
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}

func labelSet(y mat.Matrix, n int) []float64 {
	seen := make(map[float64]struct{})
	for i := 0; i < n; i++ {
		seen[y.At(i, 0)] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)
	return labels
}

func outOfFoldConfusion(y mat.Matrix, pred []float64, covered []bool, labels []float64) (*metrics.ConfusionMatrix, error) {
	nCovered := 0
	for _, c := range covered {
		if c {
			nCovered++
		}
	}
	if nCovered == 0 {
		return nil, errors.New("grid search: splitter produced no held-out samples")
	}

	obs := mat.NewVecDense(nCovered, nil)
	got := mat.NewVecDense(nCovered, nil)
	k := 0
	for i, c := range covered {
		if !c {
			continue
		}
		obs.SetVec(k, y.At(i, 0))
		got.SetVec(k, pred[i])
		k++
	}
	return metrics.NewConfusionMatrixWithLabels(obs, got, labels)
}
