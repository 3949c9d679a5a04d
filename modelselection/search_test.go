package modelselection

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/forestcv/forestcv/core/model"
	"github.com/forestcv/forestcv/metrics"
	"github.com/forestcv/forestcv/pkg/errors"
)

// majorityClassifier always predicts the most frequent training label.
// Cheap and deterministic, which keeps the search-mechanics tests fast.
type majorityClassifier struct {
	fitted  bool
	label   float64
	classes []float64
}

func (m *majorityClassifier) Fit(_, y mat.Matrix) error {
	n, _ := y.Dims()
	counts := map[float64]int{}
	for i := 0; i < n; i++ {
		counts[y.At(i, 0)]++
	}
	m.classes = m.classes[:0]
	best, bestCount := 0.0, -1
	for label, c := range counts {
		m.classes = append(m.classes, label)
		if c > bestCount || (c == bestCount && label < best) {
			best, bestCount = label, c
		}
	}
	m.label = best
	m.fitted = true
	return nil
}

func (m *majorityClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError("majorityClassifier", "Predict")
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, m.label)
	}
	return out, nil
}

func (m *majorityClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, len(m.classes), nil)
	for i := 0; i < n; i++ {
		for j, c := range m.classes {
			if c == m.label {
				out.Set(i, j, 1)
			}
		}
	}
	return out, nil
}

func (m *majorityClassifier) Classes() []float64 { return m.classes }

func (m *majorityClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(colVec(y), colVec(pred))
}

func stubFactory(c Candidate, seed int64) model.Classifier {
	return &majorityClassifier{}
}

func smallGrid() ParamGrid {
	return ParamGrid{
		MaxFeatures:    []int{1, 2},
		MinSamplesLeaf: []int{1},
		Criterion:      []string{"gini"},
	}
}

func balancedData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(n-i))
		y.Set(i, 0, float64(i%3))
	}
	return X, y
}

func TestGridSearchCV_Defaults(t *testing.T) {
	X, y := balancedData(30)

	gs := &GridSearchCV{
		Grid:         smallGrid(),
		Seed:         17,
		NewEstimator: stubFactory,
	}

	res, err := gs.Run(X, y)
	require.NoError(t, err)

	assert.Equal(t, MetricAccuracy, res.Metric)
	require.Len(t, res.Results, 2)
	for _, r := range res.Results {
		assert.Len(t, r.FoldScores, 5, "default CV is 5-fold")
		assert.False(t, r.Mean < 0 || r.Mean > 1, "accuracy must stay in [0,1]")
	}

	require.NotNil(t, res.BestModel)
	require.NotNil(t, res.OutOfFold)
	assert.Equal(t, 30, res.OutOfFold.N(), "every sample held out exactly once")

	table := res.Table()
	assert.True(t, strings.Contains(table, MetricAccuracy))
	assert.True(t, strings.Contains(table, "Selected:"))
}

func TestGridSearchCV_Reproducibility(t *testing.T) {
	X, y := balancedData(30)

	run := func() *SearchResult {
		gs := &GridSearchCV{
			Grid:         smallGrid(),
			Seed:         5,
			NewEstimator: stubFactory,
		}
		res, err := gs.Run(X, y)
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	require.Equal(t, a.BestIndex, b.BestIndex)
	for c := range a.Results {
		assert.Equal(t, a.Results[c].FoldScores, b.Results[c].FoldScores,
			"identical seeds must reproduce every fold score")
	}
}

// oracleClassifier reads the label straight off the first feature. Every
// prediction is correct, so any pairing of a held-out prediction with the
// wrong sample is visible in the aggregated confusion matrix.
type oracleClassifier struct{ fitted bool }

func (o *oracleClassifier) Fit(_, _ mat.Matrix) error {
	o.fitted = true
	return nil
}

func (o *oracleClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !o.fitted {
		return nil, errors.NewNotFittedError("oracleClassifier", "Predict")
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, X.At(i, 0))
	}
	return out, nil
}

func (o *oracleClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	out := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		out.Set(i, int(X.At(i, 0)), 1)
	}
	return out, nil
}

func (o *oracleClassifier) Classes() []float64 { return []float64{0, 1, 2} }

func (o *oracleClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := o.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(colVec(y), colVec(pred))
}

func TestGridSearchCV_OutOfFoldMatchesHeldOutSamples(t *testing.T) {
	// First feature equals the label, so the oracle is perfect per fold.
	// Shuffled folds hold samples out in scrambled order; the out-of-fold
	// matrix must still pair every observed label with that same sample's
	// prediction.
	n := 30
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 3)
		X.Set(i, 0, label)
		X.Set(i, 1, float64(i))
		y.Set(i, 0, label)
	}

	gs := &GridSearchCV{
		Grid: smallGrid(),
		CV:   NewKFold(5, true, 99),
		Seed: 99,
		NewEstimator: func(_ Candidate, _ int64) model.Classifier {
			return &oracleClassifier{}
		},
	}

	res, err := gs.Run(X, y)
	require.NoError(t, err)

	for _, r := range res.Results {
		for f, s := range r.FoldScores {
			assert.InDelta(t, 1.0, s, 1e-12, "fold %d must score perfectly", f)
		}
	}
	assert.Equal(t, n, res.OutOfFold.N())
	assert.InDelta(t, 1.0, res.OutOfFold.Accuracy(), 1e-12,
		"held-out predictions must be paired with their own samples")
	for i := range res.OutOfFold.Labels {
		assert.InDelta(t, 10, res.OutOfFold.At(i, i), 1e-12,
			"all 10 samples of class %d must land on the diagonal", i)
	}
}

func TestGridSearchCV_MetricMismatchAborts(t *testing.T) {
	X, y := balancedData(30)

	gs := &GridSearchCV{
		Grid:   smallGrid(),
		Seed:   1,
		Metric: MetricAccuracy,
		Scorer: func(yTrue, yPred *mat.VecDense) (Score, error) {
			return Score{Name: "SomethingElse", Value: 0.5}, nil
		},
		NewEstimator: stubFactory,
	}

	_, err := gs.Run(X, y)
	require.Error(t, err)

	var mismatch *errors.MetricMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, MetricAccuracy, mismatch.Requested)
	assert.Equal(t, "SomethingElse", mismatch.Returned)
}

func TestGridSearchCV_CustomScorerNeedsName(t *testing.T) {
	X, y := balancedData(30)

	gs := &GridSearchCV{
		Grid: smallGrid(),
		Scorer: func(yTrue, yPred *mat.VecDense) (Score, error) {
			return Score{Name: "X", Value: 0}, nil
		},
		NewEstimator: stubFactory,
	}

	_, err := gs.Run(X, y)
	require.Error(t, err)
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestGridSearchCV_RequiresFactory(t *testing.T) {
	X, y := balancedData(30)

	gs := &GridSearchCV{Grid: smallGrid()}
	_, err := gs.Run(X, y)
	require.Error(t, err)
}

func TestGridSearchCV_ForestWithHarmonicScorer(t *testing.T) {
	// Three well-separated blobs; a small forest should classify the
	// held-out folds perfectly under the harmonic sensitivity/accuracy
	// score, same shape as the iris demonstration.
	X := mat.NewDense(12, 2, []float64{
		0, 0, 0, 1, 1, 0, 1, 1,
		5, 5, 5, 6, 6, 5, 6, 6,
		10, 0, 10, 1, 11, 0, 11, 1,
	})
	y := mat.NewDense(12, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2})

	labels := []float64{0, 1, 2}
	scorer := func(yTrue, yPred *mat.VecDense) (Score, error) {
		cm, err := metrics.NewConfusionMatrixWithLabels(yTrue, yPred, labels)
		if err != nil {
			return Score{}, err
		}
		sens, err := cm.Sensitivity(2)
		if err != nil {
			return Score{}, err
		}
		v, err := metrics.HarmonicMean(sens, cm.Accuracy())
		if err != nil {
			return Score{}, err
		}
		return Score{Name: "SensAccHarmonic", Value: v}, nil
	}

	gs := &GridSearchCV{
		Grid:         smallGrid(),
		CV:           NewStratifiedKFold(3, true, 21),
		Metric:       "SensAccHarmonic",
		Scorer:       scorer,
		Seed:         21,
		NewEstimator: ForestFactory(15),
	}

	res, err := gs.Run(X, y)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Best().Mean, 1e-9)
	assert.InDelta(t, 1.0, res.OutOfFold.Accuracy(), 1e-9)

	sens, err := res.OutOfFold.Sensitivity(2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sens, 1e-9)
}
