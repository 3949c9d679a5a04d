// Package forestcv provides random-forest classification with
// cross-validated hyperparameter search and pluggable optimization metrics.
//
// The library follows a scikit-learn-like estimator design: models are
// constructed with functional options, trained with Fit, and queried with
// Predict/PredictProba on gonum matrices.
//
// # Quick Start
//
// Tune a random forest on the bundled iris dataset with 5-fold
// cross-validation:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/forestcv/forestcv/datasets"
//	    "github.com/forestcv/forestcv/modelselection"
//	)
//
//	func main() {
//	    iris, err := datasets.LoadIris()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    gs := &modelselection.GridSearchCV{
//	        Grid: modelselection.ParamGrid{
//	            MaxFeatures:    []int{2, 3},
//	            MinSamplesLeaf: []int{1, 2, 3},
//	            Criterion:      []string{"gini"},
//	        },
//	        Seed:         42,
//	        NewEstimator: modelselection.ForestFactory(500),
//	    }
//
//	    res, err := gs.Run(iris.X, iris.Y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Table())
//	}
//
// The optimization metric defaults to held-out accuracy; set Metric to
// "Kappa" for Cohen's kappa, or supply a custom Scorer computing any scalar
// from the held-out confusion matrix.
//
// # Packages
//
//   - ensemble: RandomForestClassifier (bagged CART trees, parallel training)
//   - tree: DecisionTreeClassifier (gini/entropy splits, feature subsampling)
//   - modelselection: KFold/StratifiedKFold, ParamGrid, GridSearchCV, seed schedules
//   - metrics: confusion matrix, accuracy, per-class sensitivity, Cohen's kappa
//   - datasets: bundled reference data (iris)
//   - core/model, core/parallel, pkg/errors, pkg/log: shared estimator plumbing
package forestcv
