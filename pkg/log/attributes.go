// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys consistently across estimators and the model-selection
// machinery keeps the JSON log stream filterable: every fit, fold, and
// candidate evaluation carries the same field names.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "RandomForestClassifier", "DecisionTreeClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "score", "search"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "ensemble", "modelselection", "metrics"
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"
)

// Cross-validation context.
const (
	// FoldKey is the 0-based index of the current cross-validation fold.
	FoldKey = "cv.fold"

	// CandidateKey is the 0-based index of the current grid candidate.
	CandidateKey = "cv.candidate"

	// MetricKey names the optimization metric in use.
	// Examples: "Accuracy", "Kappa", or a user-chosen scorer name.
	MetricKey = "cv.metric"

	// ScoreKey carries a computed metric value.
	ScoreKey = "cv.score"

	// SeedKey carries the random seed used for a fit.
	SeedKey = "cv.seed"
)
