package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained.
type Fitter interface {
	// Fit trains the model on X with targets y. Unsupervised models
	// accept a nil y.
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that can predict.
type Predictor interface {
	// Predict returns predictions for X as a column matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Model is the basic interface of a supervised model.
type Model interface {
	Fitter
	Predictor
}
