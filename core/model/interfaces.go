// Package model provides the estimator and transformer contracts shared
// across the toolkit, plus fitted-state management.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score against
// ground truth, e.g. accuracy for classifiers.
type Scorer interface {
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Classifier combines the interfaces of a classification model.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns probability estimates, one column per class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the class values seen during fitting, sorted.
	Classes() []float64
}

// Clusterer combines the interfaces of a clustering model.
type Clusterer interface {
	Fitter

	// FitPredict fits the model and returns the cluster index of each row.
	FitPredict(X mat.Matrix) ([]int, error)

	// NClusters returns the number of clusters.
	NClusters() int
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter
// modification before fitting.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
