package model

// EstimatorState represents the fitted state of a model.
type EstimatorState int

const (
	// NotFitted means the model has not been trained yet.
	NotFitted EstimatorState = iota
	// Fitted means the model has been trained.
	Fitted
)

// BaseEstimator is the embedded base for simple estimators that do not need
// thread-safe state. Estimators fitted concurrently use StateManager instead.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the model has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the model as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the model to its initial state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
