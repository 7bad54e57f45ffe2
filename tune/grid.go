// Package tune provides hyperparameter search over cross-validation
// resamples.
package tune

import (
	"math"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// LogGrid returns levels values spaced evenly on a log10 scale between
// min and max inclusive. Both bounds must be positive.
func LogGrid(min, max float64, levels int) ([]float64, error) {
	if min <= 0 || max <= 0 {
		return nil, errors.NewValidationError("penalty", "grid bounds must be positive", min)
	}
	if max < min {
		return nil, errors.NewValidationError("penalty", "grid upper bound below lower bound", max)
	}
	if levels < 1 {
		return nil, errors.NewValidationError("levels", "must be positive", levels)
	}
	if levels == 1 {
		return []float64{min}, nil
	}

	lo, hi := math.Log10(min), math.Log10(max)
	grid := make([]float64, levels)
	for i := range grid {
		grid[i] = math.Pow(10, lo+(hi-lo)*float64(i)/float64(levels-1))
	}
	return grid, nil
}
