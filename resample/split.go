// Package resample provides train/test splitting and cross-validation
// fold generation over matrices and tables.
package resample

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Fold is one train/test division of row indices.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter generates cross-validation folds over the rows of X.
type Splitter interface {
	Split(X, y mat.Matrix) []Fold
	NSplits() int
}

// KFold divides rows into k folds of near-equal size. Earlier folds take
// the remainder rows when the division is uneven.
type KFold struct {
	nSplits int
	shuffle bool
	seed    int64
}

// NewKFold creates a k-fold splitter. Fewer than two splits falls back to
// the default of five.
func NewKFold(nSplits int, shuffle bool, seed int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{nSplits: nSplits, shuffle: shuffle, seed: seed}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int {
	return kf.nSplits
}

// Split generates train/test indices for each fold. Indices come back
// sorted ascending so downstream matrix assembly is stable.
func (kf *KFold) Split(X, _ mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.seed), uint64(kf.seed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.nSplits)
	foldSize := nSamples / kf.nSplits
	remainder := nSamples % kf.nSplits

	current := 0
	for i := 0; i < kf.nSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		test := make([]int, testSize)
		copy(test, indices[current:current+testSize])

		train := make([]int, 0, nSamples-testSize)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+testSize:]...)

		sort.Ints(test)
		sort.Ints(train)
		folds[i] = Fold{TrainIndices: train, TestIndices: test}

		current += testSize
	}
	return folds
}

// StratifiedKFold divides rows into k folds while preserving the class
// proportions of y in every fold. Each class is dealt round-robin across
// the folds, so per-fold class counts differ by at most one row.
type StratifiedKFold struct {
	nSplits int
	shuffle bool
	seed    int64
}

// NewStratifiedKFold creates a stratified k-fold splitter. Fewer than two
// splits falls back to the default of five.
func NewStratifiedKFold(nSplits int, shuffle bool, seed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{nSplits: nSplits, shuffle: shuffle, seed: seed}
}

// NSplits returns the number of folds.
func (skf *StratifiedKFold) NSplits() int {
	return skf.nSplits
}

// Split generates stratified train/test indices for each fold. y must be
// a column vector of class codes. Classes are processed in sorted order
// and indices come back sorted ascending, so the same seed always yields
// identical folds.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []Fold {
	nSamples, _ := X.Dims()

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	r := rand.New(rand.NewPCG(uint64(skf.seed), uint64(skf.seed)))

	testSets := make([][]int, skf.nSplits)
	for _, label := range labels {
		indices := classIndices[label]
		if skf.shuffle {
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		for j, idx := range indices {
			fold := j % skf.nSplits
			testSets[fold] = append(testSets[fold], idx)
		}
	}

	folds := make([]Fold, skf.nSplits)
	for i := 0; i < skf.nSplits; i++ {
		inTest := make(map[int]bool, len(testSets[i]))
		for _, idx := range testSets[i] {
			inTest[idx] = true
		}

		train := make([]int, 0, nSamples-len(testSets[i]))
		for j := 0; j < nSamples; j++ {
			if !inTest[j] {
				train = append(train, j)
			}
		}

		test := testSets[i]
		sort.Ints(test)
		folds[i] = Fold{TrainIndices: train, TestIndices: test}
	}
	return folds
}
