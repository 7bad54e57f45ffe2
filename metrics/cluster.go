package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// SilhouetteScore returns the mean silhouette coefficient over all
// samples: (b - a) / max(a, b), where a is the mean distance to the
// sample's own cluster and b the smallest mean distance to any other
// cluster. Samples alone in their cluster score 0. Requires at least two
// clusters.
func SilhouetteScore(X mat.Matrix, labels []int) (float64, error) {
	n, _ := X.Dims()
	if n == 0 {
		return 0, errors.NewValueError("SilhouetteScore", "empty matrix")
	}
	if len(labels) != n {
		return 0, errors.NewDimensionError("SilhouetteScore", n, len(labels), 0)
	}

	clusterSizes := make(map[int]int)
	for _, l := range labels {
		clusterSizes[l]++
	}
	if len(clusterSizes) < 2 {
		return 0, errors.NewValueError("SilhouetteScore", "needs at least two clusters")
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		own := labels[i]
		if clusterSizes[own] == 1 {
			continue
		}

		// Mean distance from i to every cluster.
		distSums := make(map[int]float64, len(clusterSizes))
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			distSums[labels[j]] += rowDistance(X, i, j)
		}

		a := distSums[own] / float64(clusterSizes[own]-1)
		b := math.Inf(1)
		for cluster, total := range distSums {
			if cluster == own {
				continue
			}
			if mean := total / float64(clusterSizes[cluster]); mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			sum += (b - a) / denom
		}
	}
	return sum / float64(n), nil
}

func rowDistance(X mat.Matrix, i, j int) float64 {
	_, c := X.Dims()
	sum := 0.0
	for k := 0; k < c; k++ {
		d := X.At(i, k) - X.At(j, k)
		sum += d * d
	}
	return math.Sqrt(sum)
}
