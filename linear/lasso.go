// Package linear provides regularized linear models for classification.
package linear

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/core/model"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// powerIterations bounds the spectral norm estimate used for the step size.
const powerIterations = 30

// LassoLogistic is a multiclass logistic regression classifier with L1
// regularization (optionally mixed with L2 as an elastic net). Each class
// is trained one-vs-rest by proximal gradient descent: a gradient step on
// the logistic loss followed by soft-threshold shrinkage of the
// coefficients. The intercept is never penalized.
//
// Training starts from zero coefficients and uses a fixed iteration order,
// so a fit on the same data with the same parameters always produces the
// same model.
type LassoLogistic struct {
	model.BaseEstimator

	penalty      float64
	l1Ratio      float64
	maxIter      int
	tol          float64
	fitIntercept bool

	coef_      [][]float64
	intercept_ []float64
	classes_   []float64
	nIter_     []int
	nFeatures_ int

	mu sync.RWMutex
}

// NewLassoLogistic creates a lasso logistic regression classifier.
//
// Usage:
//
//	clf := linear.NewLassoLogistic(linear.WithPenalty(0.01))
//	err := clf.Fit(X, y)
//	pred, err := clf.Predict(Xtest)
func NewLassoLogistic(opts ...Option) *LassoLogistic {
	lc := &LassoLogistic{
		penalty:      0.01,
		l1Ratio:      1.0,
		maxIter:      1000,
		tol:          1e-4,
		fitIntercept: true,
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc
}

// Fit trains one binary subproblem per class in y. X is the feature matrix
// and y a column vector of class codes. Subproblems that exhaust the
// iteration budget raise a ConvergenceWarning but do not fail the fit.
func (lc *LassoLogistic) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LassoLogistic.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LassoLogistic.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LassoLogistic.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LassoLogistic.Fit", "y must be a column vector")
	}
	if lc.penalty < 0 {
		return errors.NewValidationError("penalty", "must be non-negative", lc.penalty)
	}
	if lc.l1Ratio < 0 || lc.l1Ratio > 1 {
		return errors.NewValidationError("l1Ratio", "must be in [0, 1]", lc.l1Ratio)
	}
	if lc.maxIter < 1 {
		return errors.NewValidationError("maxIter", "must be positive", lc.maxIter)
	}
	if lc.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lc.tol)
	}
	if err := errors.CheckMatrix("LassoLogistic.Fit", X, r, c, 0); err != nil {
		return err
	}

	classes := distinctClasses(y, r)
	if len(classes) < 2 {
		return errors.NewValidationError("y", "need at least two classes", len(classes))
	}

	step := istaStep(X, lc.fitIntercept)

	coef := make([][]float64, len(classes))
	intercepts := make([]float64, len(classes))
	nIter := make([]int, len(classes))
	solveErrs := make([]error, len(classes))

	// One-vs-rest subproblems are independent, so each class trains in
	// its own goroutine writing to its own slot.
	var wg sync.WaitGroup
	for ci, class := range classes {
		wg.Add(1)
		go func(ci int, class float64) {
			defer wg.Done()

			yBin := make([]float64, r)
			for i := 0; i < r; i++ {
				if y.At(i, 0) == class {
					yBin[i] = 1
				}
			}

			res, solveErr := lc.solveBinary(X, yBin, step)
			if solveErr != nil {
				solveErrs[ci] = solveErr
				return
			}
			coef[ci] = res.weights
			intercepts[ci] = res.intercept
			nIter[ci] = res.nIter

			if !res.converged {
				errors.Warn(errors.NewConvergenceWarning("LassoLogistic", res.nIter,
					fmt.Sprintf("subproblem for class %v stopped at the iteration budget", class)))
			}
		}(ci, class)
	}
	wg.Wait()

	for _, solveErr := range solveErrs {
		if solveErr != nil {
			return solveErr
		}
	}

	lc.mu.Lock()
	lc.coef_ = coef
	lc.intercept_ = intercepts
	lc.classes_ = classes
	lc.nIter_ = nIter
	lc.nFeatures_ = c
	lc.mu.Unlock()

	lc.SetFitted()
	return nil
}

type binarySolution struct {
	weights   []float64
	intercept float64
	nIter     int
	converged bool
}

// solveBinary runs ISTA on one binary logistic subproblem. yBin holds
// 0/1 targets. step is the shared gradient step size.
func (lc *LassoLogistic) solveBinary(X mat.Matrix, yBin []float64, step float64) (binarySolution, error) {
	r, c := X.Dims()
	n := float64(r)

	w := make([]float64, c)
	b := 0.0
	resid := make([]float64, r)
	grad := make([]float64, c)

	l1 := lc.penalty * lc.l1Ratio
	l2 := lc.penalty * (1 - lc.l1Ratio)

	iter := 0
	converged := false
	for ; iter < lc.maxIter; iter++ {
		for i := 0; i < r; i++ {
			z := b
			for j := 0; j < c; j++ {
				z += X.At(i, j) * w[j]
			}
			resid[i] = sigmoid(z) - yBin[i]
		}

		for j := 0; j < c; j++ {
			g := 0.0
			for i := 0; i < r; i++ {
				g += X.At(i, j) * resid[i]
			}
			grad[j] = g / n
		}

		maxChange := 0.0
		for j := 0; j < c; j++ {
			next := softThreshold(w[j]-step*grad[j], step*l1)
			if l2 > 0 {
				next /= 1 + step*l2
			}
			if d := math.Abs(next - w[j]); d > maxChange {
				maxChange = d
			}
			w[j] = next
		}

		if lc.fitIntercept {
			gradB := 0.0
			for i := 0; i < r; i++ {
				gradB += resid[i]
			}
			next := b - step*gradB/n
			if d := math.Abs(next - b); d > maxChange {
				maxChange = d
			}
			b = next
		}

		if err := errors.CheckScalar("LassoLogistic.Fit", maxChange, iter); err != nil {
			return binarySolution{}, err
		}
		if maxChange < lc.tol {
			converged = true
			iter++
			break
		}
	}

	return binarySolution{weights: w, intercept: b, nIter: iter, converged: converged}, nil
}

// Predict returns the class code with the highest decision score for each
// row of X, as a column vector.
func (lc *LassoLogistic) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lc.IsFitted() {
		return nil, errors.NewNotFittedError("LassoLogistic", "Predict")
	}
	scores, err := lc.decisionFunction(X, "Predict")
	if err != nil {
		return nil, err
	}

	lc.mu.RLock()
	classes := lc.classes_
	lc.mu.RUnlock()

	r, k := scores.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		arg, best := 0, math.Inf(-1)
		for ci := 0; ci < k; ci++ {
			if s := scores.At(i, ci); s > best {
				arg, best = ci, s
			}
		}
		out.Set(i, 0, classes[arg])
	}
	return out, nil
}

// PredictProba returns class membership probabilities as the softmax of
// the one-vs-rest decision scores, one column per class in Classes order.
func (lc *LassoLogistic) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lc.IsFitted() {
		return nil, errors.NewNotFittedError("LassoLogistic", "PredictProba")
	}
	scores, err := lc.decisionFunction(X, "PredictProba")
	if err != nil {
		return nil, err
	}

	r, _ := scores.Dims()
	for i := 0; i < r; i++ {
		row := scores.RawRowView(i)
		maxScore := row[0]
		for _, v := range row[1:] {
			if v > maxScore {
				maxScore = v
			}
		}
		sum := 0.0
		for j := range row {
			row[j] = math.Exp(row[j] - maxScore)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
	return scores, nil
}

// Score returns the accuracy of Predict on X against y.
func (lc *LassoLogistic) Score(X, y mat.Matrix) (float64, error) {
	if !lc.IsFitted() {
		return 0, errors.NewNotFittedError("LassoLogistic", "Score")
	}

	r, _ := X.Dims()
	ry, _ := y.Dims()
	if ry != r {
		return 0, errors.NewDimensionError("LassoLogistic.Score", r, ry, 0)
	}
	if r == 0 {
		return 0, errors.NewModelError("LassoLogistic.Score", "empty data", errors.ErrEmptyData)
	}

	pred, err := lc.Predict(X)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < r; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// Sparsity returns the fraction of coefficients that are exactly zero.
func (lc *LassoLogistic) Sparsity() (float64, error) {
	if !lc.IsFitted() {
		return 0, errors.NewNotFittedError("LassoLogistic", "Sparsity")
	}
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	total, zeros := 0, 0
	for _, row := range lc.coef_ {
		for _, v := range row {
			total++
			if v == 0 {
				zeros++
			}
		}
	}
	if total == 0 {
		return 0, nil
	}
	return float64(zeros) / float64(total), nil
}

// Classes returns the class codes seen during fitting, sorted ascending.
func (lc *LassoLogistic) Classes() []float64 {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	out := make([]float64, len(lc.classes_))
	copy(out, lc.classes_)
	return out
}

// Coefficients returns a copy of the fitted coefficient matrix, one row
// per class.
func (lc *LassoLogistic) Coefficients() [][]float64 {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	out := make([][]float64, len(lc.coef_))
	for i, row := range lc.coef_ {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// Intercepts returns a copy of the fitted intercepts, one per class.
func (lc *LassoLogistic) Intercepts() []float64 {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	out := make([]float64, len(lc.intercept_))
	copy(out, lc.intercept_)
	return out
}

// NIterations returns the iterations spent on each class subproblem.
func (lc *LassoLogistic) NIterations() []int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	out := make([]int, len(lc.nIter_))
	copy(out, lc.nIter_)
	return out
}

// NFeatures returns the number of features seen during fitting.
func (lc *LassoLogistic) NFeatures() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.nFeatures_
}

// GetParams returns the hyperparameters as a map.
func (lc *LassoLogistic) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lc.penalty,
		"l1_ratio":      lc.l1Ratio,
		"max_iter":      lc.maxIter,
		"tol":           lc.tol,
		"fit_intercept": lc.fitIntercept,
	}
}

// String implements fmt.Stringer.
func (lc *LassoLogistic) String() string {
	if lc.IsFitted() {
		lc.mu.RLock()
		defer lc.mu.RUnlock()
		return fmt.Sprintf("LassoLogistic(penalty=%g, classes=%d, features=%d, fitted=true)",
			lc.penalty, len(lc.classes_), lc.nFeatures_)
	}
	return fmt.Sprintf("LassoLogistic(penalty=%g, fitted=false)", lc.penalty)
}

// decisionFunction computes the raw one-vs-rest scores for each row of X,
// one column per class. The caller must hold no lock.
func (lc *LassoLogistic) decisionFunction(X mat.Matrix, method string) (*mat.Dense, error) {
	r, c := X.Dims()

	lc.mu.RLock()
	defer lc.mu.RUnlock()

	if c != lc.nFeatures_ {
		return nil, errors.NewDimensionError("LassoLogistic."+method, lc.nFeatures_, c, 1)
	}

	k := len(lc.classes_)
	scores := mat.NewDense(r, k, nil)
	for i := 0; i < r; i++ {
		for ci := 0; ci < k; ci++ {
			z := lc.intercept_[ci]
			w := lc.coef_[ci]
			for j := 0; j < c; j++ {
				z += X.At(i, j) * w[j]
			}
			scores.Set(i, ci, z)
		}
	}
	return scores, nil
}

// distinctClasses collects the distinct values in the column vector y,
// sorted ascending.
func distinctClasses(y mat.Matrix, r int) []float64 {
	seen := make(map[float64]bool)
	classes := make([]float64, 0, 8)
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return classes
}

// istaStep returns the gradient step size 1/L, where L bounds the
// Lipschitz constant of the logistic loss gradient. L is the largest
// eigenvalue of X'X over 4n, estimated by power iteration on the design
// matrix including the intercept column when one is fitted.
func istaStep(X mat.Matrix, fitIntercept bool) float64 {
	r, c := X.Dims()
	n := float64(r)

	dim := c
	at := X.At
	if fitIntercept {
		dim = c + 1
		at = func(i, j int) float64 {
			if j == 0 {
				return 1
			}
			return X.At(i, j-1)
		}
	}

	v := make([]float64, dim)
	for j := range v {
		v[j] = 1 / math.Sqrt(float64(dim))
	}
	u := make([]float64, r)
	next := make([]float64, dim)

	eig := 0.0
	for iter := 0; iter < powerIterations; iter++ {
		for i := 0; i < r; i++ {
			s := 0.0
			for j := 0; j < dim; j++ {
				s += at(i, j) * v[j]
			}
			u[i] = s
		}
		for j := 0; j < dim; j++ {
			s := 0.0
			for i := 0; i < r; i++ {
				s += at(i, j) * u[i]
			}
			next[j] = s
		}

		norm := 0.0
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			break
		}
		eig = norm
		for j := range v {
			v[j] = next[j] / norm
		}
	}

	lipschitz := eig / (4 * n)
	if lipschitz <= 0 {
		return 1.0
	}
	return 1 / lipschitz
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softThreshold is the proximal operator of the L1 penalty.
func softThreshold(x, threshold float64) float64 {
	switch {
	case x > threshold:
		return x - threshold
	case x < -threshold:
		return x + threshold
	default:
		return 0
	}
}
