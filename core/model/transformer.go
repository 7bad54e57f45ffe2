package model

import "gonum.org/v1/gonum/mat"

// Transformer is the interface of a data transformation step.
type Transformer interface {
	// Fit learns the parameters needed for the transformation.
	Fit(X mat.Matrix) error

	// Transform applies the transformation.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits and transforms in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
