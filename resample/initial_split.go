package resample

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// TrainTestSplit divides a table into train and test tables, assigning
// prop of the rows to train. When stratifyCol names a string column the
// split preserves each stratum's proportions to within one row. Rows are
// shuffled under seed; within each side the original row order is kept.
func TrainTestSplit(tbl *dataset.Table, prop float64, stratifyCol string, seed int64) (*dataset.Table, *dataset.Table, error) {
	n := tbl.NumRows()
	if n == 0 {
		return nil, nil, errors.NewModelError("resample.TrainTestSplit", "empty table", errors.ErrEmptyData)
	}
	if prop <= 0 || prop >= 1 {
		return nil, nil, errors.NewValidationError("prop", "must be in (0, 1)", prop)
	}

	var groups [][]int
	if stratifyCol == "" {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		groups = [][]int{all}
	} else {
		labels, err := tbl.Strings(stratifyCol)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "stratifying on %s", stratifyCol)
		}
		byLabel := make(map[string][]int)
		for i, label := range labels {
			byLabel[label] = append(byLabel[label], i)
		}
		keys := make([]string, 0, len(byLabel))
		for label := range byLabel {
			keys = append(keys, label)
		}
		// Strata are processed in sorted order so the shuffle stream is
		// consumed identically on every run.
		sort.Strings(keys)
		for _, label := range keys {
			groups = append(groups, byLabel[label])
		}
	}

	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	var trainIdx, testIdx []int
	for _, group := range groups {
		r.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		nTrain := int(math.Round(prop * float64(len(group))))
		trainIdx = append(trainIdx, group[:nTrain]...)
		testIdx = append(testIdx, group[nTrain:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	train, err := tbl.TakeRows(trainIdx)
	if err != nil {
		return nil, nil, err
	}
	test, err := tbl.TakeRows(testIdx)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
