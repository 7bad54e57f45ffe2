package cluster

import (
	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// SweepK fits one KMeans per k in [kMin, kMax] and returns a table of k
// against the total within-cluster sum of squares, the data behind an
// elbow chart. The options are shared across fits, so passing
// WithRandomState gives every k the same seed derivation.
func SweepK(X mat.Matrix, kMin, kMax int, opts ...Option) (*dataset.Table, error) {
	if kMin < 1 {
		return nil, errors.NewValidationError("k_min", "must be at least 1", kMin)
	}
	if kMax < kMin {
		return nil, errors.NewValidationError("k_max", "must not be below k_min", kMax)
	}
	rows, _ := X.Dims()
	if kMax > rows {
		return nil, errors.NewValidationError("k_max", "must not exceed the number of samples", kMax)
	}

	ks := make([]float64, 0, kMax-kMin+1)
	withinSS := make([]float64, 0, kMax-kMin+1)

	for k := kMin; k <= kMax; k++ {
		km := NewKMeans(append(append([]Option{}, opts...), WithNClusters(k))...)
		if err := km.Fit(X, nil); err != nil {
			return nil, errors.Wrapf(err, "sweep at k=%d", k)
		}
		ks = append(ks, float64(k))
		withinSS = append(withinSS, km.Inertia())
	}

	return dataset.NewTable(
		dataset.NewFloatColumn("k", ks),
		dataset.NewFloatColumn("tot_withinss", withinSS),
	)
}
