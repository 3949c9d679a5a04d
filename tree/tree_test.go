package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestDecisionTreeClassifier_FitPredict_Binary tests binary classification
func TestDecisionTreeClassifier_FitPredict_Binary(t *testing.T) {
	// Create simple linearly separable data
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})

	y := mat.NewDense(8, 1, []float64{
		0, 0, 0, 0, // Class 0 (lower left)
		1, 1, 1, 1, // Class 1 (upper right)
	})

	// Create and train model
	dt := NewDecisionTreeClassifier(
		WithCriterion("gini"),
		WithMaxDepth(5),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	// Test predictions on training data
	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	// Check all predictions are correct
	for i := 0; i < 8; i++ {
		pred := predictions.At(i, 0)
		actual := y.At(i, 0)
		if pred != actual {
			t.Errorf("Sample %d: expected %v, got %v", i, actual, pred)
		}
	}

	// Test on new data
	XTest := mat.NewDense(2, 2, []float64{
		0.5, 0.5, // Should be class 0
		3.5, 3.5, // Should be class 1
	})

	testPreds, err := dt.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict on test data: %v", err)
	}

	if testPreds.At(0, 0) != 0 {
		t.Errorf("Test point (0.5,0.5) should be class 0, got %v", testPreds.At(0, 0))
	}

	if testPreds.At(1, 0) != 1 {
		t.Errorf("Test point (3.5,3.5) should be class 1, got %v", testPreds.At(1, 0))
	}
}

// TestDecisionTreeClassifier_Multiclass tests three-class separation
func TestDecisionTreeClassifier_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		5, 5,
		5, 6,
		6, 5,
		10, 0,
		10, 1,
		11, 0,
	})
	y := mat.NewDense(9, 1, []float64{
		0, 0, 0,
		1, 1, 1,
		2, 2, 2,
	})

	dt := NewDecisionTreeClassifier(WithCriterion("entropy"))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	classes := dt.Classes()
	if len(classes) != 3 {
		t.Fatalf("Classes() returned %d classes, want 3", len(classes))
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Failed to score: %v", err)
	}
	if score != 1.0 {
		t.Errorf("Training accuracy = %v, want 1.0", score)
	}
}

// TestDecisionTreeClassifier_PredictProba tests probability predictions
func TestDecisionTreeClassifier_PredictProba(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})

	y := mat.NewDense(6, 1, []float64{
		0, 0, 0, // Class 0
		1, 1, 1, // Class 1
	})

	dt := NewDecisionTreeClassifier(
		WithMaxDepth(3),
	)

	err := dt.Fit(X, y)
	if err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	probs, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probs.Dims()
	if rows != 6 || cols != 2 {
		t.Fatalf("PredictProba dims = (%d, %d), want (6, 2)", rows, cols)
	}

	// Each row must sum to 1
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += probs.At(i, j)
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("Row %d probabilities sum to %v, want 1.0", i, sum)
		}
	}
}

// TestDecisionTreeClassifier_MinSamplesLeaf ensures leaves respect the minimum
func TestDecisionTreeClassifier_MinSamplesLeaf(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	// With min_samples_leaf = 3 no split can produce two valid children,
	// so the tree must stay a single leaf.
	dt := NewDecisionTreeClassifier(WithMinSamplesLeaf(3))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	preds, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	first := preds.At(0, 0)
	for i := 1; i < 4; i++ {
		if preds.At(i, 0) != first {
			t.Errorf("expected a constant prediction from a single leaf, got %v and %v", first, preds.At(i, 0))
		}
	}
}

// TestDecisionTreeClassifier_NotFitted checks the error for unfitted use
func TestDecisionTreeClassifier_NotFitted(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	X := mat.NewDense(1, 2, []float64{0, 0})

	if _, err := dt.Predict(X); err == nil {
		t.Error("Predict on unfitted model should return an error")
	}
	if _, err := dt.PredictProba(X); err == nil {
		t.Error("PredictProba on unfitted model should return an error")
	}
}

// TestDecisionTreeClassifier_InvalidParams checks parameter validation
func TestDecisionTreeClassifier_InvalidParams(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 1})
	y := mat.NewDense(2, 1, []float64{0, 1})

	tests := []struct {
		name string
		dt   *DecisionTreeClassifier
	}{
		{"Unknown criterion", NewDecisionTreeClassifier(WithCriterion("chi2"))},
		{"Zero min_samples_leaf", NewDecisionTreeClassifier(WithMinSamplesLeaf(0))},
		{"max_features beyond n_features", NewDecisionTreeClassifier(WithMaxFeatures(5))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.dt.Fit(X, y); err == nil {
				t.Error("Fit should reject invalid parameters")
			}
		})
	}
}

// TestDecisionTreeClassifier_SeedReproducibility: same seed, same tree
func TestDecisionTreeClassifier_SeedReproducibility(t *testing.T) {
	X := mat.NewDense(10, 3, []float64{
		0, 5, 1,
		1, 4, 0,
		2, 3, 1,
		3, 2, 0,
		4, 1, 1,
		5, 0, 0,
		6, 5, 1,
		7, 4, 0,
		8, 3, 1,
		9, 2, 0,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})

	fitPredict := func() mat.Matrix {
		dt := NewDecisionTreeClassifier(WithMaxFeatures(1), WithSeed(42))
		if err := dt.Fit(X, y); err != nil {
			t.Fatalf("Failed to fit model: %v", err)
		}
		preds, err := dt.Predict(X)
		if err != nil {
			t.Fatalf("Failed to predict: %v", err)
		}
		return preds
	}

	a, b := fitPredict(), fitPredict()
	for i := 0; i < 10; i++ {
		if a.At(i, 0) != b.At(i, 0) {
			t.Errorf("Sample %d: predictions differ across identical seeds: %v vs %v", i, a.At(i, 0), b.At(i, 0))
		}
	}
}
