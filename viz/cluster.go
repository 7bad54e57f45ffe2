package viz

import (
	"sort"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// ElbowPlot draws total within-cluster sum of squares against the number
// of clusters from a SweepK table and returns the saved path. The kink in
// the resulting curve suggests a good cluster count.
func ElbowPlot(tbl *dataset.Table, path string) (string, error) {
	ks, err := tbl.Float("k")
	if err != nil {
		return "", errors.Wrapf(err, "reading elbow data")
	}
	within, err := tbl.Float("tot_withinss")
	if err != nil {
		return "", errors.Wrapf(err, "reading elbow data")
	}
	if len(ks) == 0 {
		return "", errors.NewValueError("ElbowPlot", "sweep table has no rows")
	}

	pts := make(plotter.XYs, len(ks))
	for i := range ks {
		pts[i].X = ks[i]
		pts[i].Y = within[i]
	}

	p := newPlot("Within-cluster sum of squares", "clusters", "tot_withinss")
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return "", errors.Wrapf(err, "building elbow plot")
	}
	line.Color = paletteColor(0)
	points.Shape = draw.CircleGlyph{}
	points.Color = paletteColor(0)
	points.Radius = vg.Points(3)
	p.Add(line, points)

	return save(p, path)
}

// ClusterScatter draws the rows of an augmented table in the plane spanned
// by two feature columns, one color per cluster assignment, with a cross
// marking each cluster mean. It returns the saved path.
func ClusterScatter(tbl *dataset.Table, xCol, yCol, clusterCol, path string) (string, error) {
	xs, err := tbl.Float(xCol)
	if err != nil {
		return "", errors.Wrapf(err, "reading scatter data")
	}
	ys, err := tbl.Float(yCol)
	if err != nil {
		return "", errors.Wrapf(err, "reading scatter data")
	}
	clusters, err := tbl.Strings(clusterCol)
	if err != nil {
		return "", errors.Wrapf(err, "reading scatter data")
	}
	if len(xs) == 0 {
		return "", errors.NewValueError("ClusterScatter", "table has no rows")
	}

	byCluster := make(map[string][]int)
	for i, c := range clusters {
		byCluster[c] = append(byCluster[c], i)
	}
	labels := make([]string, 0, len(byCluster))
	for c := range byCluster {
		labels = append(labels, c)
	}
	sort.Strings(labels)

	p := newPlot("Cluster assignments", xCol, yCol)
	p.Legend.Top = true
	p.Legend.Left = true

	centers := make(plotter.XYs, 0, len(labels))
	for i, label := range labels {
		rows := byCluster[label]
		pts := make(plotter.XYs, len(rows))
		var cx, cy float64
		for j, r := range rows {
			pts[j].X = xs[r]
			pts[j].Y = ys[r]
			cx += xs[r]
			cy += ys[r]
		}
		n := float64(len(rows))
		centers = append(centers, plotter.XY{X: cx / n, Y: cy / n})

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return "", errors.Wrapf(err, "building scatter for cluster %s", label)
		}
		s.GlyphStyle.Color = paletteColor(i)
		s.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(s)
		p.Legend.Add("cluster "+label, s)
	}

	marks, err := plotter.NewScatter(centers)
	if err != nil {
		return "", errors.Wrapf(err, "building centroid markers")
	}
	marks.GlyphStyle.Shape = draw.CrossGlyph{}
	marks.GlyphStyle.Radius = vg.Points(5)
	p.Add(marks)

	return save(p, path)
}
