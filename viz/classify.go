package viz

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/metrics"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

const (
	facetWidth  = 3 * vg.Inch
	facetHeight = 2.5 * vg.Inch
	facetCols   = 3
)

// ROCPlot draws one ROC curve per class together with the chance
// diagonal and returns the saved path. Curves are keyed by class name
// and drawn in sorted key order so colors are stable across runs.
func ROCPlot(curves map[string]metrics.Curve, path string) (string, error) {
	if len(curves) == 0 {
		return "", errors.NewValueError("ROCPlot", "no curves to draw")
	}
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)

	p := newPlot("ROC curves", "false positive rate", "true positive rate")
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = true
	p.Legend.Left = true

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return "", errors.Wrapf(err, "building chance diagonal")
	}
	diag.LineStyle.Color = paletteColor(len(palette) - 1)
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(diag)

	for i, name := range names {
		curve := curves[name]
		if len(curve.FPR) != len(curve.TPR) {
			return "", errors.NewDimensionError("ROCPlot", len(curve.FPR), len(curve.TPR), 0)
		}
		pts := make(plotter.XYs, len(curve.FPR))
		for j := range curve.FPR {
			pts[j].X = curve.FPR[j]
			pts[j].Y = curve.TPR[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", errors.Wrapf(err, "building ROC line for %s", name)
		}
		line.Color = paletteColor(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	return save(p, path)
}

// TunePlot draws mean cross-validation scores against the penalty grid
// from a tuning results table, one line per mean_* column, on a log
// penalty axis. It returns the saved path.
func TunePlot(tbl *dataset.Table, path string) (string, error) {
	penalties, err := tbl.Float("penalty")
	if err != nil {
		return "", errors.Wrapf(err, "reading tune results")
	}
	if len(penalties) == 0 {
		return "", errors.NewValueError("TunePlot", "tune table has no rows")
	}

	var metricCols []string
	for _, name := range tbl.ColumnNames() {
		if strings.HasPrefix(name, "mean_") {
			metricCols = append(metricCols, name)
		}
	}
	if len(metricCols) == 0 {
		return "", errors.NewValueError("TunePlot", "tune table has no mean_ columns")
	}
	sort.Strings(metricCols)

	p := newPlot("Cross-validation performance", "penalty", "mean score")
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true
	p.Legend.Left = true

	for i, col := range metricCols {
		scores, err := tbl.Float(col)
		if err != nil {
			return "", errors.Wrapf(err, "reading tune results")
		}
		pts := make(plotter.XYs, len(penalties))
		for j := range penalties {
			pts[j].X = penalties[j]
			pts[j].Y = scores[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", errors.Wrapf(err, "building tune line for %s", col)
		}
		line.Color = paletteColor(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(strings.TrimPrefix(col, "mean_"), line)
	}

	return save(p, path)
}

// coefFacet holds one class panel of a coefficient plot.
type coefFacet struct {
	class     string
	terms     []string
	estimates []float64
}

// CoefficientPlot draws the topN largest-magnitude model terms per class
// as horizontal bars, one facet per class, and writes a PNG grid. It
// returns the saved path. The input table needs class, term and estimate
// columns as produced by the lasso Tidy method.
func CoefficientPlot(tidy *dataset.Table, topN int, path string) (string, error) {
	if topN < 1 {
		return "", errors.NewValidationError("topN", "must be at least 1", topN)
	}
	classes, err := tidy.Strings("class")
	if err != nil {
		return "", errors.Wrapf(err, "reading coefficient table")
	}
	terms, err := tidy.Strings("term")
	if err != nil {
		return "", errors.Wrapf(err, "reading coefficient table")
	}
	estimates, err := tidy.Float("estimate")
	if err != nil {
		return "", errors.Wrapf(err, "reading coefficient table")
	}
	if len(classes) == 0 {
		return "", errors.NewValueError("CoefficientPlot", "coefficient table has no rows")
	}

	facets := buildFacets(classes, terms, estimates, topN)

	cols := facetCols
	if len(facets) < cols {
		cols = len(facets)
	}
	rows := (len(facets) + cols - 1) / cols

	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, cols)
	}
	for i, facet := range facets {
		bar, err := plotter.NewBarChart(plotter.Values(facet.estimates), vg.Points(8))
		if err != nil {
			return "", errors.Wrapf(err, "building bars for class %s", facet.class)
		}
		bar.Horizontal = true
		bar.Color = paletteColor(i)
		bar.LineStyle.Width = 0

		p := plot.New()
		p.Title.Text = facet.class
		p.X.Label.Text = "estimate"
		p.Add(bar)
		p.NominalY(facet.terms...)
		plots[i/cols][i%cols] = p
	}

	img := vgimg.New(vg.Length(cols)*facetWidth, vg.Length(rows)*facetHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Points(8),
		PadY: vg.Points(8),
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "creating plot directory %s", dir)
		}
	}
	w, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating plot file %s", path)
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return "", errors.Wrapf(err, "saving plot %s", path)
	}
	return path, nil
}

// buildFacets groups tidy rows by class, keeping insertion order, and
// trims each class to its topN largest-magnitude terms. Bars are stored
// smallest magnitude first so the strongest term draws at the top of the
// panel.
func buildFacets(classes, terms []string, estimates []float64, topN int) []coefFacet {
	index := make(map[string]int)
	var facets []coefFacet
	for i, class := range classes {
		fi, ok := index[class]
		if !ok {
			fi = len(facets)
			index[class] = fi
			facets = append(facets, coefFacet{class: class})
		}
		facets[fi].terms = append(facets[fi].terms, terms[i])
		facets[fi].estimates = append(facets[fi].estimates, estimates[i])
	}

	for fi := range facets {
		f := &facets[fi]
		order := make([]int, len(f.terms))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return math.Abs(f.estimates[order[a]]) > math.Abs(f.estimates[order[b]])
		})
		if len(order) > topN {
			order = order[:topN]
		}
		keptTerms := make([]string, len(order))
		keptEsts := make([]float64, len(order))
		for i, idx := range order {
			j := len(order) - 1 - i
			keptTerms[j] = f.terms[idx]
			keptEsts[j] = f.estimates[idx]
		}
		f.terms = keptTerms
		f.estimates = keptEsts
	}
	return facets
}
