package linear

import (
	"fmt"
	"strconv"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// Tidy returns the fitted coefficients as a table with class, term and
// estimate columns. Coefficients shrunk to exactly zero are dropped, so
// the table shows only the terms the penalty kept. Intercepts appear
// under the term "(Intercept)".
//
// featureNames labels the coefficient columns and classNames the classes;
// either may be nil, falling back to x1..xn and the numeric class codes.
func (lc *LassoLogistic) Tidy(featureNames, classNames []string) (*dataset.Table, error) {
	if !lc.IsFitted() {
		return nil, errors.NewNotFittedError("LassoLogistic", "Tidy")
	}

	lc.mu.RLock()
	defer lc.mu.RUnlock()

	if featureNames == nil {
		featureNames = make([]string, lc.nFeatures_)
		for j := range featureNames {
			featureNames[j] = fmt.Sprintf("x%d", j+1)
		}
	}
	if len(featureNames) != lc.nFeatures_ {
		return nil, errors.NewDimensionError("LassoLogistic.Tidy", lc.nFeatures_, len(featureNames), 1)
	}

	if classNames == nil {
		classNames = make([]string, len(lc.classes_))
		for ci, class := range lc.classes_ {
			classNames[ci] = strconv.FormatFloat(class, 'g', -1, 64)
		}
	}
	if len(classNames) != len(lc.classes_) {
		return nil, errors.NewDimensionError("LassoLogistic.Tidy", len(lc.classes_), len(classNames), 0)
	}

	var classes, terms []string
	var estimates []float64
	for ci := range lc.classes_ {
		if lc.fitIntercept && lc.intercept_[ci] != 0 {
			classes = append(classes, classNames[ci])
			terms = append(terms, "(Intercept)")
			estimates = append(estimates, lc.intercept_[ci])
		}
		for j, v := range lc.coef_[ci] {
			if v == 0 {
				continue
			}
			classes = append(classes, classNames[ci])
			terms = append(terms, featureNames[j])
			estimates = append(estimates, v)
		}
	}

	return dataset.NewTable(
		dataset.NewStringColumn("class", classes),
		dataset.NewStringColumn("term", terms),
		dataset.NewFloatColumn("estimate", estimates),
	)
}
