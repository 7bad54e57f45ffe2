// Package analysis composes the dataset, model and chart packages into
// the two end-to-end studies this project ships: clustering US employment
// demographics and classifying NBER working papers by program category.
// Each study is configured by a small struct, runs as a single pipeline,
// and produces result tables, chart files and a Markdown report.
package analysis

import (
	"context"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/cluster"
	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
	"github.com/HayesJohnD/juliasilge/pkg/log"
	"github.com/HayesJohnD/juliasilge/preprocessing"
	"github.com/HayesJohnD/juliasilge/viz"
)

// demographicGroups are the race_gender levels kept as clustering
// features, as they appear in the source data.
var demographicGroups = []string{"Asian", "Black or African American", "Women"}

// EmploymentConfig parameterizes the employment clustering study.
type EmploymentConfig struct {
	// Dataset is a manifest name or URL for the employment counts CSV.
	Dataset string
	// Clusters is the k used for the final model.
	Clusters int
	// MaxK bounds the elbow sweep.
	MaxK int
	// MinTotal drops occupations with at most this many employed people.
	MinTotal float64
	// Seed drives clustering initialization.
	Seed int64
	// OutDir receives charts and the report.
	OutDir string
}

// DefaultEmploymentConfig returns the study as published: three clusters
// over occupations with more than a thousand employed people.
func DefaultEmploymentConfig() EmploymentConfig {
	return EmploymentConfig{
		Dataset:  "employed",
		Clusters: 3,
		MaxK:     9,
		MinTotal: 1000,
		Seed:     123,
		OutDir:   "out",
	}
}

func (c EmploymentConfig) validate() error {
	if c.Clusters < 1 {
		return errors.NewValidationError("clusters", "must be at least 1", c.Clusters)
	}
	if c.MaxK < c.Clusters {
		return errors.NewValidationError("max_k", "must be at least the cluster count", c.MaxK)
	}
	if c.MinTotal < 0 {
		return errors.NewValidationError("min_total", "must not be negative", c.MinTotal)
	}
	if c.OutDir == "" {
		return errors.NewValidationError("out_dir", "must not be empty", c.OutDir)
	}
	return nil
}

// EmploymentResult carries every artifact of the employment study.
type EmploymentResult struct {
	// Demographics is the model-ready table: occupation plus scaled
	// demographic shares and log total employment.
	Demographics *dataset.Table
	// Clusters summarizes each cluster center with its size and
	// within-cluster sum of squares.
	Clusters *dataset.Table
	// Summary is the one-row model summary.
	Summary *dataset.Table
	// Assignments is Demographics with the fitted .cluster column.
	Assignments *dataset.Table
	// Elbow holds total within-cluster sum of squares for k = 1..MaxK.
	Elbow *dataset.Table
	// Inertia is the final model's total within-cluster sum of squares.
	Inertia float64

	ScatterPath string
	ElbowPath   string
	ReportPath  string
}

// Employment runs the clustering study over BLS employment counts.
type Employment struct {
	cfg     EmploymentConfig
	fetcher *dataset.Fetcher
	logger  log.Logger
}

// NewEmployment creates the study. A nil fetcher gets the default one,
// which resolves names against the built-in manifest.
func NewEmployment(cfg EmploymentConfig, fetcher *dataset.Fetcher) *Employment {
	if fetcher == nil {
		fetcher = dataset.NewFetcher()
	}
	return &Employment{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  log.GetLoggerWithName("analysis.employment"),
	}
}

// Run executes the full pipeline: fetch, wrangle, cluster, sweep, chart
// and report.
func (e *Employment) Run(ctx context.Context) (*EmploymentResult, error) {
	if err := e.cfg.validate(); err != nil {
		return nil, err
	}

	raw, err := e.fetcher.FetchTable(ctx, e.cfg.Dataset)
	if err != nil {
		return nil, err
	}
	e.logger.Info("employment data loaded",
		log.DatasetKey, e.cfg.Dataset,
		"rows", raw.NumRows(),
	)

	demo, featureCols, err := prepareEmployment(raw, e.cfg.MinTotal)
	if err != nil {
		return nil, err
	}
	e.logger.Info("occupations prepared",
		"occupations", demo.NumRows(),
		"features", len(featureCols),
	)

	X, err := demo.Matrix(featureCols...)
	if err != nil {
		return nil, err
	}

	km := cluster.NewKMeans(
		cluster.WithNClusters(e.cfg.Clusters),
		cluster.WithRandomState(e.cfg.Seed),
	)
	if err := km.Fit(X, nil); err != nil {
		return nil, errors.Wrapf(err, "clustering %d occupations", demo.NumRows())
	}
	e.logger.Info("clusters fitted",
		log.ClustersKey, e.cfg.Clusters,
		log.InertiaKey, km.Inertia(),
		log.RandomSeedKey, e.cfg.Seed,
	)

	clusters, err := km.Tidy(featureCols...)
	if err != nil {
		return nil, err
	}
	summary, err := km.Glance()
	if err != nil {
		return nil, err
	}
	assignments, err := km.Augment(demo)
	if err != nil {
		return nil, err
	}
	elbow, err := cluster.SweepK(X, 1, e.cfg.MaxK, cluster.WithRandomState(e.cfg.Seed))
	if err != nil {
		return nil, errors.Wrapf(err, "sweeping k up to %d", e.cfg.MaxK)
	}

	scatterPath, err := viz.ClusterScatter(assignments,
		"total", "women", ".cluster",
		filepath.Join(e.cfg.OutDir, "employment_clusters.png"))
	if err != nil {
		return nil, err
	}
	elbowPath, err := viz.ElbowPlot(elbow,
		filepath.Join(e.cfg.OutDir, "employment_elbow.png"))
	if err != nil {
		return nil, err
	}

	result := &EmploymentResult{
		Demographics: demo,
		Clusters:     clusters,
		Summary:      summary,
		Assignments:  assignments,
		Elbow:        elbow,
		Inertia:      km.Inertia(),
		ScatterPath:  scatterPath,
		ElbowPath:    elbowPath,
	}

	reportPath := filepath.Join(e.cfg.OutDir, "employment.md")
	if err := os.WriteFile(reportPath, []byte(result.Markdown()), 0o644); err != nil {
		return nil, errors.Wrapf(err, "writing report %s", reportPath)
	}
	result.ReportPath = reportPath

	e.logger.Info("employment study finished", "report", reportPath)
	return result, nil
}

// prepareEmployment wrangles the raw counts into the model-ready frame:
// one row per occupation, demographic employment shares, log total
// employment, all columns standardized. It returns the frame and the
// feature column names in matrix order.
func prepareEmployment(raw *dataset.Table, minTotal float64) (*dataset.Table, []string, error) {
	for _, col := range []string{"industry", "minor_occupation", "race_gender", "employ_n"} {
		if !raw.HasColumn(col) {
			return nil, nil, errors.Wrapf(errors.ErrColumnNotFound, "employment data column %q", col)
		}
	}

	// Average each occupation's counts across years.
	tidy := raw.DropNA("industry", "minor_occupation", "race_gender", "employ_n").
		MutateString("occupation", func(r dataset.Row) string {
			return r.String("industry") + " " + r.String("minor_occupation")
		})
	grouped, err := tidy.GroupBy("occupation", "race_gender")
	if err != nil {
		return nil, nil, err
	}
	counts, err := grouped.Summarize(dataset.Mean("employ_n", "n"))
	if err != nil {
		return nil, nil, err
	}

	keep := make(map[string]bool, len(demographicGroups))
	for _, g := range demographicGroups {
		keep[g] = true
	}
	wide, err := counts.
		Filter(func(r dataset.Row) bool { return keep[r.String("race_gender")] }).
		PivotWider("race_gender", "n", 0)
	if err != nil {
		return nil, nil, err
	}
	wide = wide.CleanNames()

	totals := counts.Filter(func(r dataset.Row) bool { return r.String("race_gender") == "TOTAL" })
	totals, err = totals.Select("occupation", "n")
	if err != nil {
		return nil, nil, err
	}
	totals, err = totals.Rename("n", "total")
	if err != nil {
		return nil, nil, err
	}

	joined, err := wide.LeftJoin(totals, "occupation")
	if err != nil {
		return nil, nil, err
	}
	joined = joined.DropNA("total").
		Filter(func(r dataset.Row) bool { return r.Float("total") > minTotal })
	if joined.NumRows() == 0 {
		return nil, nil, errors.Wrapf(errors.ErrEmptyData, "no occupations above total %g", minTotal)
	}

	groupCols := make([]string, len(demographicGroups))
	for i, g := range demographicGroups {
		groupCols[i] = dataset.CleanName(g)
		if !joined.HasColumn(groupCols[i]) {
			return nil, nil, errors.Wrapf(errors.ErrColumnNotFound, "demographic column %q", groupCols[i])
		}
	}

	// Counts become shares of the occupation total, totals move to the
	// log scale.
	for _, col := range groupCols {
		joined = joined.MutateFloat(col, func(r dataset.Row) float64 {
			return r.Float(col) / r.Float("total")
		})
	}
	joined = joined.MutateFloat("total", func(r dataset.Row) float64 {
		return math.Log(r.Float("total"))
	})

	featureCols := append(groupCols, "total")
	X, err := joined.Matrix(featureCols...)
	if err != nil {
		return nil, nil, err
	}
	scaler := preprocessing.NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		return nil, nil, err
	}

	occupation, err := joined.Column("occupation")
	if err != nil {
		return nil, nil, err
	}
	cols := []dataset.Column{occupation}
	n, _ := scaled.Dims()
	for j, name := range featureCols {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = scaled.At(i, j)
		}
		cols = append(cols, dataset.NewFloatColumn(name, vals))
	}
	demo, err := dataset.NewTable(cols...)
	if err != nil {
		return nil, nil, err
	}
	return demo, featureCols, nil
}

// matrixColumn copies column j of m into a new slice.
func matrixColumn(m mat.Matrix, j int) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = m.At(i, j)
	}
	return out
}
