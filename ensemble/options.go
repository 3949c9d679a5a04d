package ensemble

// Option is a function that configures RandomForestClassifier
type Option func(*RandomForestClassifier)

// WithNEstimators sets the number of trees in the forest
func WithNEstimators(n int) Option {
	return func(rf *RandomForestClassifier) {
		rf.nEstimators = n
	}
}

// WithMaxFeatures sets the feature-subset size tried at each split
// (0 means floor(sqrt(n_features)), the usual forest default)
func WithMaxFeatures(n int) Option {
	return func(rf *RandomForestClassifier) {
		rf.maxFeatures = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required at a leaf
func WithMinSamplesLeaf(n int) Option {
	return func(rf *RandomForestClassifier) {
		rf.minSamplesLeaf = n
	}
}

// WithMaxDepth limits the depth of each tree (0 means unlimited)
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestClassifier) {
		rf.maxDepth = depth
	}
}

// WithCriterion sets the split rule for every tree ("gini" or "entropy")
func WithCriterion(criterion string) Option {
	return func(rf *RandomForestClassifier) {
		rf.criterion = criterion
	}
}

// WithSeed sets the random seed driving bootstrap sampling and per-tree
// feature subsampling. Identical seeds yield identical forests.
func WithSeed(seed int64) Option {
	return func(rf *RandomForestClassifier) {
		rf.seed = seed
	}
}
