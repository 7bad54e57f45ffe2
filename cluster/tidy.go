package cluster

import (
	"fmt"
	"strconv"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// Tidy returns one row per cluster center: the center coordinates, the
// cluster size, and the within-cluster sum of squares. Feature names label
// the coordinate columns; when omitted they default to x1..xn.
func (km *KMeans) Tidy(featureNames ...string) (*dataset.Table, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Tidy")
	}

	if len(featureNames) == 0 {
		featureNames = make([]string, km.nFeatures_)
		for j := range featureNames {
			featureNames[j] = fmt.Sprintf("x%d", j+1)
		}
	}
	if len(featureNames) != km.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Tidy", km.nFeatures_, len(featureNames), 1)
	}

	cols := make([]dataset.Column, 0, km.nFeatures_+3)
	for j, name := range featureNames {
		coords := make([]float64, km.nClusters)
		for c := 0; c < km.nClusters; c++ {
			coords[c] = km.clusterCenters_[c][j]
		}
		cols = append(cols, dataset.NewFloatColumn(name, coords))
	}

	sizes := make([]float64, km.nClusters)
	withinSS := make([]float64, km.nClusters)
	clusters := make([]string, km.nClusters)
	for c := 0; c < km.nClusters; c++ {
		sizes[c] = float64(km.sizes_[c])
		withinSS[c] = km.withinSS_[c]
		clusters[c] = strconv.Itoa(c)
	}
	cols = append(cols,
		dataset.NewFloatColumn("size", sizes),
		dataset.NewFloatColumn("withinss", withinSS),
		dataset.NewStringColumn("cluster", clusters),
	)

	return dataset.NewTable(cols...)
}

// Glance returns a one-row model summary: total sum of squares, total
// within-cluster sum of squares, the between-cluster share, and the
// iteration count of the winning restart.
func (km *KMeans) Glance() (*dataset.Table, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Glance")
	}

	betweenSS := km.totalSS_ - km.inertia_
	ratio := 0.0
	if km.totalSS_ > 0 {
		ratio = betweenSS / km.totalSS_
	}

	return dataset.NewTable(
		dataset.NewFloatColumn("totss", []float64{km.totalSS_}),
		dataset.NewFloatColumn("tot_withinss", []float64{km.inertia_}),
		dataset.NewFloatColumn("betweenss", []float64{betweenSS}),
		dataset.NewFloatColumn("ratio", []float64{ratio}),
		dataset.NewFloatColumn("iter", []float64{float64(km.nIter_)}),
	)
}

// Augment appends the fitted cluster assignment of each row to tbl as a
// ".cluster" string column. The table must be the data the model was
// fitted on, in the same row order.
func (km *KMeans) Augment(tbl *dataset.Table) (*dataset.Table, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Augment")
	}
	if tbl.NumRows() != km.nSamples_ {
		return nil, errors.NewDimensionError("KMeans.Augment", km.nSamples_, tbl.NumRows(), 0)
	}

	labels := km.labels_
	return tbl.MutateString(".cluster", func(r dataset.Row) string {
		return strconv.Itoa(labels[r.Index()])
	}), nil
}
