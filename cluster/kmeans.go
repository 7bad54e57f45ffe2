// Package cluster implements k-means clustering with tidy model summaries.
package cluster

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/core/model"
	"github.com/HayesJohnD/juliasilge/core/parallel"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// parallelThreshold is the row count above which the assignment step fans
// out across cores.
const parallelThreshold = 2048

// KMeans is full-batch Lloyd k-means with k-means++ initialization.
// Fit runs nInit restarts and keeps the solution with the lowest inertia.
type KMeans struct {
	model.BaseEstimator

	nClusters   int
	maxIter     int
	tol         float64
	nInit       int
	randomState int64

	clusterCenters_ [][]float64
	labels_         []int
	inertia_        float64
	withinSS_       []float64
	totalSS_        float64
	sizes_          []int
	nIter_          int

	mu         sync.RWMutex
	nFeatures_ int
	nSamples_  int
}

// Option configures a KMeans estimator.
type Option func(*KMeans)

// WithNClusters sets the number of clusters.
func WithNClusters(n int) Option {
	return func(km *KMeans) { km.nClusters = n }
}

// WithMaxIter sets the Lloyd iteration budget per restart.
func WithMaxIter(n int) Option {
	return func(km *KMeans) { km.maxIter = n }
}

// WithTol sets the center-movement threshold that ends iteration.
func WithTol(tol float64) Option {
	return func(km *KMeans) { km.tol = tol }
}

// WithNInit sets how many seeded restarts to run.
func WithNInit(n int) Option {
	return func(km *KMeans) { km.nInit = n }
}

// WithRandomState sets the random seed. A negative seed draws from the
// clock, making runs non-reproducible.
func WithRandomState(seed int64) Option {
	return func(km *KMeans) { km.randomState = seed }
}

// NewKMeans creates a KMeans estimator.
//
//	km := cluster.NewKMeans(cluster.WithNClusters(3), cluster.WithRandomState(123))
//	err := km.Fit(X, nil)
func NewKMeans(opts ...Option) *KMeans {
	km := &KMeans{
		nClusters:   8,
		maxIter:     300,
		tol:         1e-4,
		nInit:       10,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(km)
	}
	return km
}

// Fit clusters the rows of X. The y argument is ignored and may be nil.
func (km *KMeans) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "KMeans.Fit")

	km.mu.Lock()
	defer km.mu.Unlock()

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("KMeans.Fit", "empty data", errors.ErrEmptyData)
	}
	if km.nClusters < 1 {
		return errors.NewValidationError("n_clusters", "must be at least 1", km.nClusters)
	}
	if rows < km.nClusters {
		return errors.NewValidationError("n_clusters", "must not exceed the number of samples", km.nClusters)
	}
	if err := errors.CheckMatrix("KMeans.Fit", X, rows, cols, 0); err != nil {
		return err
	}

	seed := km.randomState
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	bestInertia := math.Inf(1)
	var bestCenters [][]float64
	var bestLabels []int
	var bestIter int

	for run := 0; run < km.nInit; run++ {
		centers, labels, inertia, iters := km.lloyd(X, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
			bestLabels = labels
			bestIter = iters
		}
	}

	km.clusterCenters_ = bestCenters
	km.labels_ = bestLabels
	km.inertia_ = bestInertia
	km.nIter_ = bestIter
	km.nSamples_ = rows
	km.nFeatures_ = cols
	km.computeFitStatistics(X)

	km.SetFitted()
	return nil
}

// lloyd runs one restart: k-means++ seeding followed by assignment and
// update steps until the largest center movement drops below tol.
func (km *KMeans) lloyd(X mat.Matrix, rng *rand.Rand) ([][]float64, []int, float64, int) {
	rows, cols := X.Dims()
	centers := km.initKMeansPlusPlus(X, rng)
	labels := make([]int, rows)
	iters := 0

	for iter := 0; iter < km.maxIter; iter++ {
		iters = iter + 1

		// Assignment step, parallel for large inputs.
		parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
			for i := start; i < end; i++ {
				labels[i] = nearestCenter(mat.Row(nil, i, X), centers)
			}
		})

		km.reseedEmpty(X, centers, labels)

		// Update step: centers move to the mean of their members.
		next := make([][]float64, km.nClusters)
		counts := make([]int, km.nClusters)
		for c := range next {
			next[c] = make([]float64, cols)
		}
		for i := 0; i < rows; i++ {
			c := labels[i]
			counts[c]++
			for j := 0; j < cols; j++ {
				next[c][j] += X.At(i, j)
			}
		}

		shift := 0.0
		for c := range next {
			for j := 0; j < cols; j++ {
				next[c][j] /= float64(counts[c])
			}
			if d := euclideanDistance(next[c], centers[c]); d > shift {
				shift = d
			}
		}
		centers = next

		if shift < km.tol {
			break
		}
	}

	inertia := 0.0
	for i := 0; i < rows; i++ {
		d := euclideanDistance(mat.Row(nil, i, X), centers[labels[i]])
		inertia += d * d
	}
	return centers, labels, inertia, iters
}

// reseedEmpty moves each empty cluster's center onto the point farthest
// from its assigned center. The scan order is fixed, so the repair is
// deterministic.
func (km *KMeans) reseedEmpty(X mat.Matrix, centers [][]float64, labels []int) {
	rows, _ := X.Dims()
	counts := make([]int, km.nClusters)
	for _, c := range labels {
		counts[c]++
	}

	for c := 0; c < km.nClusters; c++ {
		if counts[c] > 0 {
			continue
		}

		far, farDist := -1, -1.0
		for i := 0; i < rows; i++ {
			// Do not drain another cluster down to empty.
			if counts[labels[i]] <= 1 {
				continue
			}
			d := euclideanDistance(mat.Row(nil, i, X), centers[labels[i]])
			if d > farDist {
				farDist = d
				far = i
			}
		}
		if far < 0 {
			continue
		}

		counts[labels[far]]--
		counts[c] = 1
		labels[far] = c
		centers[c] = mat.Row(nil, far, X)
	}
}

// initKMeansPlusPlus seeds centers with the k-means++ scheme: the first
// center is a uniform draw, later centers are drawn proportionally to the
// squared distance from the nearest chosen center.
func (km *KMeans) initKMeansPlusPlus(X mat.Matrix, rng *rand.Rand) [][]float64 {
	rows, _ := X.Dims()
	centers := make([][]float64, km.nClusters)
	centers[0] = mat.Row(nil, rng.Intn(rows), X)

	for c := 1; c < km.nClusters; c++ {
		distances := make([]float64, rows)
		total := 0.0
		for i := 0; i < rows; i++ {
			sample := mat.Row(nil, i, X)
			minDist := math.Inf(1)
			for j := 0; j < c; j++ {
				if d := euclideanDistance(sample, centers[j]); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist * minDist
			total += distances[i]
		}

		target := rng.Float64() * total
		cumSum := 0.0
		selected := 0
		for i := 0; i < rows; i++ {
			cumSum += distances[i]
			if cumSum >= target {
				selected = i
				break
			}
		}
		centers[c] = mat.Row(nil, selected, X)
	}
	return centers
}

// computeFitStatistics fills the per-cluster and total sums of squares used
// by Tidy and Glance. Caller holds the write lock.
func (km *KMeans) computeFitStatistics(X mat.Matrix) {
	rows, cols := X.Dims()

	km.withinSS_ = make([]float64, km.nClusters)
	km.sizes_ = make([]int, km.nClusters)
	for i := 0; i < rows; i++ {
		c := km.labels_[i]
		km.sizes_[c]++
		d := euclideanDistance(mat.Row(nil, i, X), km.clusterCenters_[c])
		km.withinSS_[c] += d * d
	}

	grand := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			grand[j] += X.At(i, j)
		}
	}
	for j := range grand {
		grand[j] /= float64(rows)
	}

	km.totalSS_ = 0
	for i := 0; i < rows; i++ {
		d := euclideanDistance(mat.Row(nil, i, X), grand)
		km.totalSS_ += d * d
	}
}

// Predict assigns each row of X to its nearest cluster center. The result
// is a column vector of cluster indices.
func (km *KMeans) Predict(X mat.Matrix) (mat.Matrix, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Predict")
	}

	rows, cols := X.Dims()
	if cols != km.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Predict", km.nFeatures_, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		c := nearestCenter(mat.Row(nil, i, X), km.clusterCenters_)
		predictions.Set(i, 0, float64(c))
	}
	return predictions, nil
}

// Transform maps each row of X to its distances from the cluster centers.
func (km *KMeans) Transform(X mat.Matrix) (mat.Matrix, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Transform")
	}

	rows, cols := X.Dims()
	if cols != km.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Transform", km.nFeatures_, cols, 1)
	}

	distances := mat.NewDense(rows, km.nClusters, nil)
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		for c := 0; c < km.nClusters; c++ {
			distances.Set(i, c, euclideanDistance(sample, km.clusterCenters_[c]))
		}
	}
	return distances, nil
}

// FitPredict fits the model and returns the cluster index of each row.
func (km *KMeans) FitPredict(X mat.Matrix) ([]int, error) {
	if err := km.Fit(X, nil); err != nil {
		return nil, err
	}
	return km.Labels(), nil
}

// NClusters returns the number of clusters.
func (km *KMeans) NClusters() int {
	return km.nClusters
}

// ClusterCenters returns a copy of the fitted cluster centers.
func (km *KMeans) ClusterCenters() [][]float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()

	centers := make([][]float64, len(km.clusterCenters_))
	for i := range km.clusterCenters_ {
		centers[i] = make([]float64, len(km.clusterCenters_[i]))
		copy(centers[i], km.clusterCenters_[i])
	}
	return centers
}

// Labels returns a copy of the training-data cluster assignments.
func (km *KMeans) Labels() []int {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.labels_ == nil {
		return nil
	}
	labels := make([]int, len(km.labels_))
	copy(labels, km.labels_)
	return labels
}

// Inertia returns the within-cluster sum of squared distances.
func (km *KMeans) Inertia() float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.inertia_
}

// NIterations returns the Lloyd iterations of the winning restart.
func (km *KMeans) NIterations() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.nIter_
}

// nearestCenter returns the index of the closest center to sample.
func nearestCenter(sample []float64, centers [][]float64) int {
	minDist := math.Inf(1)
	nearest := 0
	for c, center := range centers {
		if d := euclideanDistance(sample, center); d < minDist {
			minDist = d
			nearest = c
		}
	}
	return nearest
}

// euclideanDistance computes the L2 distance between two vectors.
func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
