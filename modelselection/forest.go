package modelselection

import (
	"github.com/forestcv/forestcv/core/model"
	"github.com/forestcv/forestcv/ensemble"
)

// ForestFactory adapts a grid Candidate into a RandomForestClassifier
// constructor for GridSearchCV.NewEstimator. The tree count is held fixed
// across the whole search; only the grid parameters and the scheduled seed
// vary per fit.
func ForestFactory(nEstimators int) func(c Candidate, seed int64) model.Classifier {
	return func(c Candidate, seed int64) model.Classifier {
		return ensemble.NewRandomForestClassifier(
			ensemble.WithNEstimators(nEstimators),
			ensemble.WithMaxFeatures(c.MaxFeatures),
			ensemble.WithMinSamplesLeaf(c.MinSamplesLeaf),
			ensemble.WithCriterion(c.Criterion),
			ensemble.WithSeed(seed),
		)
	}
}
