package preprocessing

import (
	"math/rand"
	"sort"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// Downsampler rebalances class frequencies by sampling every class down to
// the size of the smallest one, without replacement. Sampling is seeded so
// runs reproduce.
type Downsampler struct {
	seed int64
}

// NewDownsampler creates a Downsampler with the given random seed.
func NewDownsampler(seed int64) *Downsampler {
	return &Downsampler{seed: seed}
}

// Indices returns the row indices to keep, in ascending order. Each class
// contributes exactly as many rows as the rarest class has.
func (d *Downsampler) Indices(labels []string) ([]int, error) {
	if len(labels) == 0 {
		return nil, errors.NewModelError("Downsampler.Indices", "empty data", errors.ErrEmptyData)
	}

	// Group row indices by class, keeping first-seen class order so the
	// seeded shuffle below is deterministic.
	byClass := make(map[string][]int)
	var order []string
	for i, label := range labels {
		if _, ok := byClass[label]; !ok {
			order = append(order, label)
		}
		byClass[label] = append(byClass[label], i)
	}

	minCount := len(labels)
	for _, idxs := range byClass {
		if len(idxs) < minCount {
			minCount = len(idxs)
		}
	}

	rng := rand.New(rand.NewSource(d.seed))
	keep := make([]int, 0, minCount*len(order))
	for _, class := range order {
		idxs := byClass[class]
		for i := len(idxs) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			idxs[i], idxs[j] = idxs[j], idxs[i]
		}
		keep = append(keep, idxs[:minCount]...)
	}

	sort.Ints(keep)
	return keep, nil
}
