package tune

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/core/model"
	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/metrics"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
	"github.com/HayesJohnD/juliasilge/pkg/log"
	"github.com/HayesJohnD/juliasilge/resample"
)

// Factory builds a fresh classifier for one penalty candidate.
type Factory func(penalty float64) model.Classifier

// Metric scores a fitted classifier on held-out rows. Higher reports
// whether larger values are better.
type Metric struct {
	Name   string
	Higher bool
	Score  func(clf model.Classifier, X, y mat.Matrix) (float64, error)
}

// AccuracyMetric scores classifiers by their accuracy.
func AccuracyMetric() Metric {
	return Metric{
		Name:   "accuracy",
		Higher: true,
		Score: func(clf model.Classifier, X, y mat.Matrix) (float64, error) {
			return clf.Score(X, y)
		},
	}
}

// MacroAUCMetric scores classifiers by their one-vs-rest macro ROC AUC.
func MacroAUCMetric() Metric {
	return Metric{
		Name:   "roc_auc",
		Higher: true,
		Score: func(clf model.Classifier, X, y mat.Matrix) (float64, error) {
			proba, err := clf.PredictProba(X)
			if err != nil {
				return 0, err
			}
			r, _ := y.Dims()
			yVec := mat.NewVecDense(r, nil)
			for i := 0; i < r; i++ {
				yVec.SetVec(i, y.At(i, 0))
			}
			return metrics.MacroAUC(yVec, proba, clf.Classes())
		},
	}
}

// CandidateResult holds the per-fold scores collected for one penalty.
type CandidateResult struct {
	Penalty float64
	Scores  map[string][]float64
}

// Mean returns the mean score of the named metric across folds.
func (cr *CandidateResult) Mean(metric string) float64 {
	scores := cr.Scores[metric]
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// Std returns the sample standard deviation of the named metric across
// folds.
func (cr *CandidateResult) Std(metric string) float64 {
	scores := cr.Scores[metric]
	if len(scores) <= 1 {
		return 0
	}
	mean := cr.Mean(metric)
	sumSq := 0.0
	for _, s := range scores {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(scores)-1))
}

// Result holds the grid search outcome for every candidate, in grid
// order.
type Result struct {
	Candidates []CandidateResult

	factory Factory
	metrics []Metric
}

// Best returns the candidate with the best mean score for the named
// metric, respecting the metric's direction.
func (r *Result) Best(metric string) (*CandidateResult, error) {
	var def *Metric
	for i := range r.metrics {
		if r.metrics[i].Name == metric {
			def = &r.metrics[i]
			break
		}
	}
	if def == nil {
		return nil, errors.NewValueError("tune.Best", "metric "+metric+" was not collected")
	}
	if len(r.Candidates) == 0 {
		return nil, errors.NewValueError("tune.Best", "no candidates evaluated")
	}

	bestIdx := 0
	bestMean := r.Candidates[0].Mean(metric)
	for i := 1; i < len(r.Candidates); i++ {
		mean := r.Candidates[i].Mean(metric)
		if (def.Higher && mean > bestMean) || (!def.Higher && mean < bestMean) {
			bestIdx, bestMean = i, mean
		}
	}
	return &r.Candidates[bestIdx], nil
}

// Finalize refits the candidate winning the named metric on all the
// given rows and returns the fitted classifier.
func (r *Result) Finalize(metric string, X, y mat.Matrix) (model.Classifier, error) {
	best, err := r.Best(metric)
	if err != nil {
		return nil, err
	}
	clf := r.factory(best.Penalty)
	if err := clf.Fit(X, y); err != nil {
		return nil, errors.Wrapf(err, "refitting winning penalty %g", best.Penalty)
	}
	return clf, nil
}

// Table renders mean and standard deviation per metric for every
// candidate, one row per penalty.
func (r *Result) Table() (*dataset.Table, error) {
	penalties := make([]float64, len(r.Candidates))
	for i, cr := range r.Candidates {
		penalties[i] = cr.Penalty
	}
	cols := []dataset.Column{dataset.NewFloatColumn("penalty", penalties)}

	for _, m := range r.metrics {
		means := make([]float64, len(r.Candidates))
		stds := make([]float64, len(r.Candidates))
		for i, cr := range r.Candidates {
			means[i] = cr.Mean(m.Name)
			stds[i] = cr.Std(m.Name)
		}
		cols = append(cols,
			dataset.NewFloatColumn("mean_"+m.Name, means),
			dataset.NewFloatColumn("std_"+m.Name, stds),
		)
	}
	return dataset.NewTable(cols...)
}

// PreparedFold is one resample whose feature matrices were built ahead
// of the search. Pipelines whose preprocessing must be refit inside each
// fold (tf-idf vocabularies, scalers) prepare folds themselves and hand
// them to GridSearchPrepared.
type PreparedFold struct {
	XTrain mat.Matrix
	YTrain mat.Matrix
	XTest  mat.Matrix
	YTest  mat.Matrix
}

// GridSearch evaluates every penalty in grid across the folds produced
// by splitter, scoring each fitted model with every metric. Folds run
// concurrently per candidate; a failing fold fails the whole search.
func GridSearch(factory Factory, X, y mat.Matrix, splitter resample.Splitter, grid []float64, ms ...Metric) (*Result, error) {
	if factory == nil {
		return nil, errors.NewValueError("tune.GridSearch", "nil factory")
	}
	if len(grid) == 0 {
		return nil, errors.NewValueError("tune.GridSearch", "empty penalty grid")
	}
	if len(ms) == 0 {
		return nil, errors.NewValueError("tune.GridSearch", "no metrics given")
	}

	folds := splitter.Split(X, y)
	prepared := make([]PreparedFold, len(folds))
	for fi, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			return nil, errors.Newf("fold %d has an empty side, use fewer folds", fi)
		}
		trainX, trainY := takeRows(X, y, fold.TrainIndices)
		testX, testY := takeRows(X, y, fold.TestIndices)
		prepared[fi] = PreparedFold{XTrain: trainX, YTrain: trainY, XTest: testX, YTest: testY}
	}

	return search(factory, prepared, grid, ms)
}

// GridSearchPrepared evaluates every penalty in grid across folds whose
// feature matrices were already built, fold by fold, by the caller.
func GridSearchPrepared(factory Factory, folds []PreparedFold, grid []float64, ms ...Metric) (*Result, error) {
	if factory == nil {
		return nil, errors.NewValueError("tune.GridSearchPrepared", "nil factory")
	}
	if len(folds) == 0 {
		return nil, errors.NewValueError("tune.GridSearchPrepared", "no folds given")
	}
	if len(grid) == 0 {
		return nil, errors.NewValueError("tune.GridSearchPrepared", "empty penalty grid")
	}
	if len(ms) == 0 {
		return nil, errors.NewValueError("tune.GridSearchPrepared", "no metrics given")
	}
	for fi, fold := range folds {
		if fold.XTrain == nil || fold.YTrain == nil || fold.XTest == nil || fold.YTest == nil {
			return nil, errors.Newf("fold %d is missing a matrix", fi)
		}
	}
	return search(factory, folds, grid, ms)
}

// search runs the candidate loop over prepared folds, one goroutine per
// fold within each candidate.
func search(factory Factory, folds []PreparedFold, grid []float64, ms []Metric) (*Result, error) {
	nFolds := len(folds)
	logger := log.GetLoggerWithName("tune.gridsearch")
	logger.Info("grid search started",
		"candidates", len(grid),
		"folds", nFolds,
	)

	result := &Result{
		Candidates: make([]CandidateResult, len(grid)),
		factory:    factory,
		metrics:    ms,
	}

	for gi, penalty := range grid {
		scores := make(map[string][]float64, len(ms))
		for _, m := range ms {
			scores[m.Name] = make([]float64, nFolds)
		}

		var wg sync.WaitGroup
		foldErrs := make([]error, nFolds)
		for fi := 0; fi < nFolds; fi++ {
			wg.Add(1)
			go func(fi int) {
				defer wg.Done()
				fold := folds[fi]

				clf := factory(penalty)
				if err := clf.Fit(fold.XTrain, fold.YTrain); err != nil {
					foldErrs[fi] = errors.Wrapf(err, "penalty %g fold %d", penalty, fi)
					return
				}
				for _, m := range ms {
					score, err := m.Score(clf, fold.XTest, fold.YTest)
					if err != nil {
						foldErrs[fi] = errors.Wrapf(err, "penalty %g fold %d scoring %s", penalty, fi, m.Name)
						return
					}
					scores[m.Name][fi] = score
				}
			}(fi)
		}
		wg.Wait()

		for _, err := range foldErrs {
			if err != nil {
				return nil, err
			}
		}

		result.Candidates[gi] = CandidateResult{Penalty: penalty, Scores: scores}
		logger.Debug("candidate evaluated",
			log.PenaltyKey, penalty,
			log.AccuracyKey, result.Candidates[gi].Mean(ms[0].Name),
		)
	}
	return result, nil
}

// takeRows copies the selected rows of X and the matching entries of the
// column vector y.
func takeRows(X, y mat.Matrix, rows []int) (*mat.Dense, *mat.Dense) {
	_, c := X.Dims()
	outX := mat.NewDense(len(rows), c, nil)
	outY := mat.NewDense(len(rows), 1, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			outX.Set(i, j, X.At(r, j))
		}
		outY.Set(i, 0, y.At(r, 0))
	}
	return outX, outY
}
