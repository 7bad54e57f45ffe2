// Package viz renders analysis results to chart files. Formats follow
// the output path extension; .png and .svg are supported by the
// single-chart renderers, the faceted coefficient grid always writes
// PNG.
package viz

import (
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4.5 * vg.Inch
)

// palette holds the cluster and class colors, recycled when a chart has
// more groups than entries.
var palette = []color.RGBA{
	{R: 0x1b, G: 0x9e, B: 0x77, A: 0xff},
	{R: 0xd9, G: 0x5f, B: 0x02, A: 0xff},
	{R: 0x75, G: 0x70, B: 0xb3, A: 0xff},
	{R: 0xe7, G: 0x29, B: 0x8a, A: 0xff},
	{R: 0x66, G: 0xa6, B: 0x1e, A: 0xff},
	{R: 0xe6, G: 0xab, B: 0x02, A: 0xff},
	{R: 0xa6, G: 0x76, B: 0x1d, A: 0xff},
	{R: 0x66, G: 0x66, B: 0x66, A: 0xff},
}

func paletteColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

// newPlot builds a plot with the shared styling: title, axis labels and
// a background grid.
func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// save writes the plot to path, creating parent directories, and returns
// the path.
func save(p *plot.Plot, path string) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "creating plot directory %s", dir)
		}
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return "", errors.Wrapf(err, "saving plot %s", path)
	}
	return path, nil
}
