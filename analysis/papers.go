package analysis

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/core/model"
	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/feature"
	"github.com/HayesJohnD/juliasilge/linear"
	"github.com/HayesJohnD/juliasilge/metrics"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
	"github.com/HayesJohnD/juliasilge/pkg/log"
	"github.com/HayesJohnD/juliasilge/preprocessing"
	"github.com/HayesJohnD/juliasilge/resample"
	"github.com/HayesJohnD/juliasilge/tune"
	"github.com/HayesJohnD/juliasilge/viz"
)

// PapersConfig parameterizes the paper classification study.
type PapersConfig struct {
	// Papers, Programs and PaperPrograms name the three source datasets
	// in the manifest, or give their URLs directly.
	Papers        string
	Programs      string
	PaperPrograms string
	// MaxTokens caps the tf-idf vocabulary built from titles.
	MaxTokens int
	// PenaltyMin, PenaltyMax and PenaltyLevels define the log-spaced
	// regularization grid.
	PenaltyMin    float64
	PenaltyMax    float64
	PenaltyLevels int
	// Folds is the number of stratified cross-validation folds.
	Folds int
	// TrainProp is the share of rows kept for training.
	TrainProp float64
	// TopTerms bounds the per-class coefficient chart.
	TopTerms int
	// Seed drives the split, the folds and the downsampling.
	Seed int64
	// OutDir receives charts and the report.
	OutDir string
}

// DefaultPapersConfig returns the study as published: 200 title tokens,
// twenty penalties between 1e-5 and 1, ten folds.
func DefaultPapersConfig() PapersConfig {
	return PapersConfig{
		Papers:        "nber-papers",
		Programs:      "nber-programs",
		PaperPrograms: "nber-paper-programs",
		MaxTokens:     200,
		PenaltyMin:    1e-5,
		PenaltyMax:    1,
		PenaltyLevels: 20,
		Folds:         10,
		TrainProp:     0.75,
		TopTerms:      10,
		Seed:          123,
		OutDir:        "out",
	}
}

func (c PapersConfig) validate() error {
	if c.MaxTokens < 1 {
		return errors.NewValidationError("max_tokens", "must be at least 1", c.MaxTokens)
	}
	if c.Folds < 2 {
		return errors.NewValidationError("folds", "must be at least 2", c.Folds)
	}
	if c.TrainProp <= 0 || c.TrainProp >= 1 {
		return errors.NewValidationError("train_prop", "must be in (0, 1)", c.TrainProp)
	}
	if c.TopTerms < 1 {
		return errors.NewValidationError("top_terms", "must be at least 1", c.TopTerms)
	}
	if c.OutDir == "" {
		return errors.NewValidationError("out_dir", "must not be empty", c.OutDir)
	}
	return nil
}

// PapersResult carries every artifact of the paper classification study.
type PapersResult struct {
	// Train and Test are the split rows of the joined paper table.
	Train *dataset.Table
	Test  *dataset.Table
	// TuneResults holds mean and std of every metric per penalty.
	TuneResults *dataset.Table
	// BestPenalty won the cross-validated accuracy comparison.
	BestPenalty float64
	// TestAccuracy and TestMacroAUC are held-out set performance.
	TestAccuracy float64
	TestMacroAUC float64
	// Confusion is the held-out confusion matrix rendered as a table.
	Confusion *dataset.Table
	// Coefficients is the class/term/estimate table of the final model.
	Coefficients *dataset.Table
	// Curves holds one held-out ROC curve per program category.
	Curves map[string]metrics.Curve
	// Classes are the program categories in code order.
	Classes []string

	TunePlotPath string
	ROCPlotPath  string
	CoefPlotPath string
	ReportPath   string
}

// Papers runs the classification study over NBER working papers.
type Papers struct {
	cfg     PapersConfig
	fetcher *dataset.Fetcher
	logger  log.Logger
}

// NewPapers creates the study. A nil fetcher gets the default one.
func NewPapers(cfg PapersConfig, fetcher *dataset.Fetcher) *Papers {
	if fetcher == nil {
		fetcher = dataset.NewFetcher()
	}
	return &Papers{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  log.GetLoggerWithName("analysis.papers"),
	}
}

// Run executes the full pipeline: fetch and join the three sources,
// split, tune the penalty over stratified folds with fold-local
// featurization, finalize, evaluate held out, chart and report.
func (p *Papers) Run(ctx context.Context) (*PapersResult, error) {
	if err := p.cfg.validate(); err != nil {
		return nil, err
	}

	joined, err := p.loadPapers(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Info("papers joined", "rows", joined.NumRows())

	train, test, err := resample.TrainTestSplit(joined, p.cfg.TrainProp, "program_category", p.cfg.Seed)
	if err != nil {
		return nil, err
	}
	p.logger.Info("split done",
		"train_rows", train.NumRows(),
		"test_rows", test.NumRows(),
		log.RandomSeedKey, p.cfg.Seed,
	)

	trainLabels, err := train.Strings("program_category")
	if err != nil {
		return nil, err
	}
	trainTitles, err := train.Strings("title")
	if err != nil {
		return nil, err
	}
	trainYears, err := train.Float("year")
	if err != nil {
		return nil, err
	}

	encoder := preprocessing.NewLabelEncoder()
	if err := encoder.Fit(trainLabels); err != nil {
		return nil, errors.Wrap(err, "encoding program categories")
	}
	yTrain, err := encoder.TransformVector(trainLabels)
	if err != nil {
		return nil, err
	}

	folds := resample.NewStratifiedKFold(p.cfg.Folds, true, p.cfg.Seed).Split(yTrain, yTrain)
	prepared, err := p.prepareFolds(folds, trainTitles, trainYears, trainLabels, encoder)
	if err != nil {
		return nil, err
	}

	grid, err := tune.LogGrid(p.cfg.PenaltyMin, p.cfg.PenaltyMax, p.cfg.PenaltyLevels)
	if err != nil {
		return nil, err
	}
	factory := func(penalty float64) model.Classifier {
		return linear.NewLassoLogistic(linear.WithPenalty(penalty))
	}
	searched, err := tune.GridSearchPrepared(factory, prepared, grid,
		tune.AccuracyMetric(), tune.MacroAUCMetric())
	if err != nil {
		return nil, err
	}
	tuneTable, err := searched.Table()
	if err != nil {
		return nil, err
	}
	best, err := searched.Best("accuracy")
	if err != nil {
		return nil, err
	}
	p.logger.Info("penalty selected",
		log.PenaltyKey, best.Penalty,
		log.AccuracyKey, best.Mean("accuracy"),
		log.AUCKey, best.Mean("roc_auc"),
	)

	// The final fit repeats the fold treatment on the whole training
	// set: downsample, then build vocabulary and year scale from the
	// kept rows.
	sampler := preprocessing.NewDownsampler(p.cfg.Seed)
	picks, err := sampler.Indices(trainLabels)
	if err != nil {
		return nil, errors.Wrap(err, "downsampling training rows")
	}
	feats, err := fitTitleFeatures(
		subsetStrings(trainTitles, picks),
		subsetFloats(trainYears, picks),
		p.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}
	XFinal, err := feats.transform(subsetStrings(trainTitles, picks), subsetFloats(trainYears, picks))
	if err != nil {
		return nil, err
	}
	yFinal, err := encoder.TransformVector(subsetStrings(trainLabels, picks))
	if err != nil {
		return nil, err
	}

	clf, err := searched.Finalize("accuracy", XFinal, yFinal)
	if err != nil {
		return nil, err
	}
	lasso, ok := clf.(*linear.LassoLogistic)
	if !ok {
		return nil, errors.Newf("unexpected classifier type %T from finalize", clf)
	}

	result, err := p.evaluate(lasso, feats, encoder, test)
	if err != nil {
		return nil, err
	}
	result.Train = train
	result.Test = test
	result.TuneResults = tuneTable
	result.BestPenalty = best.Penalty

	if err := p.render(result); err != nil {
		return nil, err
	}
	p.logger.Info("papers study finished", "report", result.ReportPath)
	return result, nil
}

// loadPapers fetches the three sources and joins them into one row per
// paper and program category, with year and title.
func (p *Papers) loadPapers(ctx context.Context) (*dataset.Table, error) {
	papers, err := p.fetcher.FetchTable(ctx, p.cfg.Papers)
	if err != nil {
		return nil, err
	}
	programs, err := p.fetcher.FetchTable(ctx, p.cfg.Programs)
	if err != nil {
		return nil, err
	}
	paperPrograms, err := p.fetcher.FetchTable(ctx, p.cfg.PaperPrograms)
	if err != nil {
		return nil, err
	}

	for table, cols := range map[*dataset.Table][]string{
		papers:        {"paper", "year", "title"},
		programs:      {"program", "program_category"},
		paperPrograms: {"paper", "program"},
	} {
		for _, col := range cols {
			if !table.HasColumn(col) {
				return nil, errors.Wrapf(errors.ErrColumnNotFound, "papers data column %q", col)
			}
		}
	}

	joined, err := paperPrograms.LeftJoin(programs, "program")
	if err != nil {
		return nil, err
	}
	joined, err = joined.LeftJoin(papers, "paper")
	if err != nil {
		return nil, err
	}
	joined = joined.
		DropNA("program_category", "year", "title").
		Distinct("paper", "program_category", "year", "title")
	return joined.Select("paper", "program_category", "year", "title")
}

// prepareFolds featurizes every fold in parallel. Each fold downsamples
// its own training half and builds its own vocabulary and year scale, so
// nothing about the held-out rows leaks into the features.
func (p *Papers) prepareFolds(folds []resample.Fold, titles []string, years []float64, labels []string, encoder *preprocessing.LabelEncoder) ([]tune.PreparedFold, error) {
	prepared := make([]tune.PreparedFold, len(folds))
	foldErrs := make([]error, len(folds))

	var wg sync.WaitGroup
	for fi := range folds {
		wg.Add(1)
		go func(fi int) {
			defer wg.Done()
			pf, err := p.prepareFold(folds[fi], fi, titles, years, labels, encoder)
			if err != nil {
				foldErrs[fi] = errors.Wrapf(err, "preparing fold %d", fi)
				return
			}
			prepared[fi] = pf
		}(fi)
	}
	wg.Wait()

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}
	return prepared, nil
}

func (p *Papers) prepareFold(fold resample.Fold, fi int, titles []string, years []float64, labels []string, encoder *preprocessing.LabelEncoder) (tune.PreparedFold, error) {
	if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
		return tune.PreparedFold{}, errors.Newf("fold has an empty side, use fewer folds")
	}

	sampler := preprocessing.NewDownsampler(p.cfg.Seed + int64(fi))
	picks, err := sampler.Indices(subsetStrings(labels, fold.TrainIndices))
	if err != nil {
		return tune.PreparedFold{}, err
	}
	trainRows := make([]int, len(picks))
	for i, pick := range picks {
		trainRows[i] = fold.TrainIndices[pick]
	}

	feats, err := fitTitleFeatures(
		subsetStrings(titles, trainRows),
		subsetFloats(years, trainRows),
		p.cfg.MaxTokens)
	if err != nil {
		return tune.PreparedFold{}, err
	}

	xTrain, err := feats.transform(subsetStrings(titles, trainRows), subsetFloats(years, trainRows))
	if err != nil {
		return tune.PreparedFold{}, err
	}
	xTest, err := feats.transform(subsetStrings(titles, fold.TestIndices), subsetFloats(years, fold.TestIndices))
	if err != nil {
		return tune.PreparedFold{}, err
	}
	yTrain, err := encoder.TransformVector(subsetStrings(labels, trainRows))
	if err != nil {
		return tune.PreparedFold{}, err
	}
	yTest, err := encoder.TransformVector(subsetStrings(labels, fold.TestIndices))
	if err != nil {
		return tune.PreparedFold{}, err
	}

	p.logger.Debug("fold prepared",
		log.FoldKey, fi,
		"train_rows", len(trainRows),
		"test_rows", len(fold.TestIndices),
	)
	return tune.PreparedFold{XTrain: xTrain, YTrain: yTrain, XTest: xTest, YTest: yTest}, nil
}

// evaluate scores the final model on the held-out rows and assembles the
// result tables and curves.
func (p *Papers) evaluate(lasso *linear.LassoLogistic, feats *titleFeatures, encoder *preprocessing.LabelEncoder, test *dataset.Table) (*PapersResult, error) {
	testLabels, err := test.Strings("program_category")
	if err != nil {
		return nil, err
	}
	testTitles, err := test.Strings("title")
	if err != nil {
		return nil, err
	}
	testYears, err := test.Float("year")
	if err != nil {
		return nil, err
	}

	XTest, err := feats.transform(testTitles, testYears)
	if err != nil {
		return nil, err
	}
	yTest, err := encoder.TransformVector(testLabels)
	if err != nil {
		return nil, errors.Wrap(err, "encoding held-out categories")
	}

	pred, err := lasso.Predict(XTest)
	if err != nil {
		return nil, err
	}
	predVec := mat.NewVecDense(len(testLabels), matrixColumn(pred, 0))

	accuracy, err := metrics.Accuracy(yTest, predVec)
	if err != nil {
		return nil, err
	}
	proba, err := lasso.PredictProba(XTest)
	if err != nil {
		return nil, err
	}
	macroAUC, err := metrics.MacroAUC(yTest, proba, lasso.Classes())
	if err != nil {
		return nil, err
	}
	p.logger.Info("held-out performance",
		log.AccuracyKey, accuracy,
		log.AUCKey, macroAUC,
	)

	confusion, err := metrics.NewConfusionMatrix(yTest, predVec)
	if err != nil {
		return nil, err
	}
	confusionTable, err := confusion.Table(encoder.Classes())
	if err != nil {
		return nil, err
	}

	curves := make(map[string]metrics.Curve, encoder.NClasses())
	classNames := encoder.Classes()
	n := yTest.Len()
	for j, code := range lasso.Classes() {
		yBin := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			if yTest.AtVec(i) == code {
				yBin.SetVec(i, 1)
			}
		}
		score := mat.NewVecDense(n, matrixColumn(proba, j))
		curve, err := metrics.ROCCurve(yBin, score)
		if err != nil {
			return nil, errors.Wrapf(err, "ROC for category %s", classNames[int(code)])
		}
		curves[classNames[int(code)]] = *curve
	}

	coefficients, err := lasso.Tidy(feats.names(), classNames)
	if err != nil {
		return nil, err
	}

	return &PapersResult{
		TestAccuracy: accuracy,
		TestMacroAUC: macroAUC,
		Confusion:    confusionTable,
		Coefficients: coefficients,
		Curves:       curves,
		Classes:      classNames,
	}, nil
}

// render writes the three charts and the Markdown report into OutDir.
func (p *Papers) render(result *PapersResult) error {
	tunePath, err := viz.TunePlot(result.TuneResults,
		filepath.Join(p.cfg.OutDir, "papers_tune.png"))
	if err != nil {
		return err
	}
	rocPath, err := viz.ROCPlot(result.Curves,
		filepath.Join(p.cfg.OutDir, "papers_roc.png"))
	if err != nil {
		return err
	}
	coefPath, err := viz.CoefficientPlot(result.Coefficients, p.cfg.TopTerms,
		filepath.Join(p.cfg.OutDir, "papers_coefficients.png"))
	if err != nil {
		return err
	}
	result.TunePlotPath = tunePath
	result.ROCPlotPath = rocPath
	result.CoefPlotPath = coefPath

	reportPath := filepath.Join(p.cfg.OutDir, "papers.md")
	if err := os.WriteFile(reportPath, []byte(result.Markdown()), 0o644); err != nil {
		return errors.Wrapf(err, "writing report %s", reportPath)
	}
	result.ReportPath = reportPath
	return nil
}

// titleFeatures bundles the fitted text and year treatment so the same
// transform applies to training, held-out and future rows.
type titleFeatures struct {
	vectorizer *feature.TfidfVectorizer
	yearScaler *preprocessing.StandardScaler
}

func fitTitleFeatures(titles []string, years []float64, maxTokens int) (*titleFeatures, error) {
	tokenizer := feature.NewTokenizer(feature.WithSnowballStopwords())
	vectorizer := feature.NewTfidfVectorizer(
		feature.WithMaxFeatures(maxTokens),
		feature.WithTokenizer(tokenizer),
	)
	if err := vectorizer.Fit(titles); err != nil {
		return nil, errors.Wrap(err, "building title vocabulary")
	}
	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(yearMatrix(years)); err != nil {
		return nil, errors.Wrap(err, "scaling publication years")
	}
	return &titleFeatures{vectorizer: vectorizer, yearScaler: scaler}, nil
}

// transform builds the design matrix: tf-idf weighted title terms with
// the scaled publication year appended as the last column.
func (f *titleFeatures) transform(titles []string, years []float64) (*mat.Dense, error) {
	text, err := f.vectorizer.Transform(titles)
	if err != nil {
		return nil, err
	}
	scaledYears, err := f.yearScaler.Transform(yearMatrix(years))
	if err != nil {
		return nil, err
	}

	r, c := text.Dims()
	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, text.At(i, j))
		}
		out.Set(i, c, scaledYears.At(i, 0))
	}
	return out, nil
}

func (f *titleFeatures) names() []string {
	vocab := f.vectorizer.FeatureNames()
	out := make([]string, 0, len(vocab)+1)
	out = append(out, vocab...)
	return append(out, "year")
}

func yearMatrix(years []float64) *mat.Dense {
	vals := make([]float64, len(years))
	copy(vals, years)
	return mat.NewDense(len(years), 1, vals)
}

func subsetStrings(values []string, rows []int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}

func subsetFloats(values []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}
