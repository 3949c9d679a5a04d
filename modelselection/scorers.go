package modelselection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/forestcv/forestcv/metrics"
)

// Score is a named scalar produced by a Scorer. The name must match the
// metric the search was asked to optimize; a mismatch aborts the search.
type Score struct {
	Name  string
	Value float64
}

// Scorer computes a Score from paired held-out observed and predicted
// labels of one fold/candidate combination. User-supplied scorers plug the
// custom optimization metric into the grid search.
type Scorer func(yTrue, yPred *mat.VecDense) (Score, error)

// Built-in metric names.
const (
	MetricAccuracy = "Accuracy"
	MetricKappa    = "Kappa"
)

// AccuracyScorer scores candidates by held-out accuracy. This is the
// default optimization metric.
func AccuracyScorer() Scorer {
	return func(yTrue, yPred *mat.VecDense) (Score, error) {
		acc, err := metrics.Accuracy(yTrue, yPred)
		if err != nil {
			return Score{}, err
		}
		return Score{Name: MetricAccuracy, Value: acc}, nil
	}
}

// KappaScorer scores candidates by Cohen's kappa, the built-in alternative
// to accuracy. Kappa discounts agreement expected by chance, which matters
// when class frequencies are unbalanced.
func KappaScorer() Scorer {
	return func(yTrue, yPred *mat.VecDense) (Score, error) {
		kappa, err := metrics.CohenKappa(yTrue, yPred)
		if err != nil {
			return Score{}, err
		}
		return Score{Name: MetricKappa, Value: kappa}, nil
	}
}
