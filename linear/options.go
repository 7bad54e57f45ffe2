package linear

// Option configures a LassoLogistic before fitting.
type Option func(*LassoLogistic)

// WithPenalty sets the regularization strength lambda applied to the
// coefficients. Zero disables regularization.
func WithPenalty(penalty float64) Option {
	return func(lc *LassoLogistic) {
		lc.penalty = penalty
	}
}

// WithL1Ratio sets the elastic net mixing parameter. 1.0 is pure lasso,
// 0.0 is pure ridge.
func WithL1Ratio(ratio float64) Option {
	return func(lc *LassoLogistic) {
		lc.l1Ratio = ratio
	}
}

// WithMaxIter sets the iteration budget per one-vs-rest subproblem.
func WithMaxIter(maxIter int) Option {
	return func(lc *LassoLogistic) {
		lc.maxIter = maxIter
	}
}

// WithTol sets the convergence tolerance on the largest coefficient change.
func WithTol(tol float64) Option {
	return func(lc *LassoLogistic) {
		lc.tol = tol
	}
}

// WithFitIntercept sets whether an unpenalized intercept is fitted.
func WithFitIntercept(fit bool) Option {
	return func(lc *LassoLogistic) {
		lc.fitIntercept = fit
	}
}
