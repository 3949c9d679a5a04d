package modelselection

import (
	"fmt"
	"math/rand/v2"

	"github.com/forestcv/forestcv/pkg/errors"
)

// Candidate is one point of the hyperparameter grid: the tuple the grid
// search trains and scores per fold.
type Candidate struct {
	// MaxFeatures is the feature-subset size tried at each split (mtry).
	MaxFeatures int
	// MinSamplesLeaf is the minimum number of samples at a tree leaf.
	MinSamplesLeaf int
	// Criterion is the split rule ("gini" or "entropy").
	Criterion string
}

func (c Candidate) String() string {
	return fmt.Sprintf("mtry=%d min_samples_leaf=%d criterion=%s",
		c.MaxFeatures, c.MinSamplesLeaf, c.Criterion)
}

// ParamGrid spans the Cartesian product of its value sets.
type ParamGrid struct {
	MaxFeatures    []int
	MinSamplesLeaf []int
	Criterion      []string
}

// Candidates expands the grid into the full Cartesian product, ordered with
// Criterion varying slowest and MinSamplesLeaf fastest. An empty dimension
// makes the whole grid empty.
func (g ParamGrid) Candidates() ([]Candidate, error) {
	if len(g.MaxFeatures) == 0 || len(g.MinSamplesLeaf) == 0 || len(g.Criterion) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyGrid, "ParamGrid.Candidates")
	}

	out := make([]Candidate, 0, len(g.MaxFeatures)*len(g.MinSamplesLeaf)*len(g.Criterion))
	for _, crit := range g.Criterion {
		for _, mtry := range g.MaxFeatures {
			for _, leaf := range g.MinSamplesLeaf {
				out = append(out, Candidate{
					MaxFeatures:    mtry,
					MinSamplesLeaf: leaf,
					Criterion:      crit,
				})
			}
		}
	}
	return out, nil
}

// SeedSchedule fixes every random draw of a grid search up front: one seed
// per (fold, candidate) fit plus one for the final refit on the full
// training set. Reusing a schedule reproduces a search exactly.
type SeedSchedule struct {
	// Folds[f][c] seeds the fit of candidate c in fold f.
	Folds [][]int64
	// Final seeds the refit of the best candidate.
	Final int64
}

// NewSeedSchedule derives a complete schedule from one base seed.
func NewSeedSchedule(base int64, nFolds, nCandidates int) *SeedSchedule {
	r := rand.New(rand.NewPCG(uint64(base), uint64(base)))

	folds := make([][]int64, nFolds)
	for f := range folds {
		folds[f] = make([]int64, nCandidates)
		for c := range folds[f] {
			folds[f][c] = int64(r.Uint64() >> 1)
		}
	}
	return &SeedSchedule{
		Folds: folds,
		Final: int64(r.Uint64() >> 1),
	}
}

// validate checks the schedule covers nFolds × nCandidates fits.
func (s *SeedSchedule) validate(nFolds, nCandidates int) error {
	if len(s.Folds) != nFolds {
		return errors.NewValidationError("seeds", "schedule must have one row per fold", len(s.Folds))
	}
	for f, row := range s.Folds {
		if len(row) != nCandidates {
			return errors.NewValidationError("seeds",
				fmt.Sprintf("fold %d must have one seed per candidate", f), len(row))
		}
	}
	return nil
}
