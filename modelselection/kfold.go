// Package modelselection provides cross-validation splitters, parameter
// grids, and grid search with pluggable optimization metrics.
package modelselection

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Splitter defines the interface for cross-validation splitters.
type Splitter interface {
	Split(X, y mat.Matrix) []Fold
	NSplits() int
}

// Fold holds the train/test partition of one cross-validation round.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold partitions samples into k consecutive (optionally shuffled) folds.
type KFold struct {
	nSplits int
	shuffle bool
	seed    int64
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits falls back to 5.
func NewKFold(nSplits int, shuffle bool, seed int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{nSplits: nSplits, shuffle: shuffle, seed: seed}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int {
	return kf.nSplits
}

// Split generates train/test indices for each fold. y is ignored.
func (kf *KFold) Split(X, _ mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.seed), uint64(kf.seed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	return assembleFolds(indices, nSamples, kf.nSplits)
}

// StratifiedKFold preserves the per-class label proportions in every fold.
type StratifiedKFold struct {
	nSplits int
	shuffle bool
	seed    int64
}

// NewStratifiedKFold creates a stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, seed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{nSplits: nSplits, shuffle: shuffle, seed: seed}
}

// NSplits returns the number of folds.
func (skf *StratifiedKFold) NSplits() int {
	return skf.nSplits
}

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(_, y mat.Matrix) []Fold {
	nSamples, _ := y.Dims()

	// Group sample indices by class, preserving input order.
	classOrder := []float64{}
	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		if _, seen := classIndices[label]; !seen {
			classOrder = append(classOrder, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}

	if skf.shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.seed), uint64(skf.seed)))
		for _, label := range classOrder {
			idx := classIndices[label]
			r.Shuffle(len(idx), func(i, j int) {
				idx[i], idx[j] = idx[j], idx[i]
			})
		}
	}

	// Deal each class round-robin style across folds so every fold gets
	// close to the same class proportions.
	testSets := make([][]int, skf.nSplits)
	for _, label := range classOrder {
		idx := classIndices[label]
		nClass := len(idx)
		per := nClass / skf.nSplits
		rem := nClass % skf.nSplits

		pos := 0
		for f := 0; f < skf.nSplits; f++ {
			take := per
			if f < rem {
				take++
			}
			testSets[f] = append(testSets[f], idx[pos:pos+take]...)
			pos += take
		}
	}

	folds := make([]Fold, skf.nSplits)
	for f := 0; f < skf.nSplits; f++ {
		inTest := make(map[int]bool, len(testSets[f]))
		for _, i := range testSets[f] {
			inTest[i] = true
		}
		train := make([]int, 0, nSamples-len(testSets[f]))
		for i := 0; i < nSamples; i++ {
			if !inTest[i] {
				train = append(train, i)
			}
		}
		folds[f] = Fold{TrainIndices: train, TestIndices: testSets[f]}
	}
	return folds
}

// assembleFolds slices the (possibly shuffled) index list into nSplits test
// blocks and derives each fold's train set as the complement.
func assembleFolds(indices []int, nSamples, nSplits int) []Fold {
	folds := make([]Fold, nSplits)
	foldSize := nSamples / nSplits
	remainder := nSamples % nSplits

	pos := 0
	for f := 0; f < nSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}

		test := make([]int, size)
		copy(test, indices[pos:pos+size])

		inTest := make(map[int]bool, size)
		for _, i := range test {
			inTest[i] = true
		}
		train := make([]int, 0, nSamples-size)
		for _, i := range indices {
			if !inTest[i] {
				train = append(train, i)
			}
		}

		folds[f] = Fold{TrainIndices: train, TestIndices: test}
		pos += size
	}
	return folds
}
