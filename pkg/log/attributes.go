// Package log defines standard attribute keys for analysis operations.
//
// Using these keys keeps log output consistent across packages, which makes
// the JSON records of a full pipeline run filterable by field. The keys
// follow a hierarchical naming convention (e.g. "model.name", "data.samples").
package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator or transformer type.
	// Examples: "KMeans", "LassoLogistic", "TfidfVectorizer"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific estimator instance, useful when
	// a tuning sweep fits many instances of the same type.
	EstimatorIDKey = "estimator.id"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "cluster", "linear", "dataset"
	ComponentKey = "ml.component"

	// PhaseKey indicates the pipeline phase.
	// Examples: "training", "validation", "testing", "preprocessing"
	PhaseKey = "ml.phase"
)

// Data shape and provenance.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// ClassesKey is the number of distinct target classes.
	ClassesKey = "data.classes"

	// DatasetKey names the dataset a table came from.
	DatasetKey = "dataset.name"

	// URLKey is the source URL of a fetched dataset.
	URLKey = "dataset.url"

	// CacheHitKey reports whether a dataset fetch was served from cache.
	CacheHitKey = "dataset.cache_hit"
)

// Performance and metric context.
const (
	// DurationMsKey records the execution time of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy, typically in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// LossKey records a loss value during training or evaluation.
	LossKey = "metrics.loss"

	// InertiaKey records the within-cluster sum of squares after clustering.
	InertiaKey = "metrics.inertia"

	// AUCKey records an area under the ROC curve.
	AUCKey = "metrics.roc_auc"

	// IterationKey records the current iteration of an iterative solver.
	IterationKey = "training.iteration"

	// FoldKey records the cross-validation fold index.
	FoldKey = "cv.fold"
)

// Hyperparameters and configuration.
const (
	// ClustersKey records the number of clusters requested.
	ClustersKey = "hyperparams.n_clusters"

	// PenaltyKey records the regularization strength.
	PenaltyKey = "hyperparams.penalty"

	// RandomSeedKey records the random seed, essential for reproducing a
	// run exactly.
	RandomSeedKey = "config.random_seed"
)

// Error and warning context.
const (
	// ErrorCodeKey provides a structured error code for programmatic
	// handling. Examples: "DIMENSION_MISMATCH", "NOT_FITTED"
	ErrorCodeKey = "error.code"

	// SuggestionKey carries a hint for resolving the problem.
	// Examples: "Check input data shape", "Increase max_iterations"
	SuggestionKey = "error.suggestion"
)

// Standard attribute value constants for common operations.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationFetch        = "fetch"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
