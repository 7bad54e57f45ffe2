package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/HayesJohnD/juliasilge/dataset"
)

// Markdown renders the employment study as a standalone report with the
// result tables and chart links.
func (r *EmploymentResult) Markdown() string {
	var b strings.Builder
	b.WriteString("# Clustering employment demographics\n\n")
	fmt.Fprintf(&b,
		"Occupations are clustered on the employment shares of %s workers\n"+
			"together with log total employment, all columns standardized.\n"+
			"The model groups %d occupations.\n\n",
		strings.Join(demographicGroups, ", "), r.Demographics.NumRows())

	b.WriteString("## Model summary\n\n")
	writeTable(&b, r.Summary, 0)
	fmt.Fprintf(&b, "\nTotal within-cluster sum of squares: %.4g\n\n", r.Inertia)

	b.WriteString("## Cluster centers\n\n")
	writeTable(&b, r.Clusters, 0)
	b.WriteString("\n")

	b.WriteString("## Choosing k\n\n")
	writeTable(&b, r.Elbow, 0)
	writeImage(&b, "Within-cluster sum of squares by k", r.ElbowPath)

	b.WriteString("## Assignments\n\n")
	writeImage(&b, "Cluster assignments", r.ScatterPath)
	writeTable(&b, r.Assignments, 10)

	return b.String()
}

// Markdown renders the papers study as a standalone report with tuning,
// held-out performance and the final coefficient table.
func (r *PapersResult) Markdown() string {
	var b strings.Builder
	b.WriteString("# Classifying NBER working papers\n\n")
	fmt.Fprintf(&b,
		"A lasso-regularized multiclass model predicts the program category\n"+
			"of a working paper from its title terms and publication year.\n"+
			"Categories: %s.\n\n",
		strings.Join(r.Classes, ", "))

	b.WriteString("## Penalty tuning\n\n")
	writeTable(&b, r.TuneResults, 0)
	writeImage(&b, "Cross-validation performance", r.TunePlotPath)

	b.WriteString("## Held-out performance\n\n")
	fmt.Fprintf(&b, "- Selected penalty: %.4g\n", r.BestPenalty)
	fmt.Fprintf(&b, "- Accuracy: %.4f\n", r.TestAccuracy)
	fmt.Fprintf(&b, "- Macro ROC AUC: %.4f\n\n", r.TestMacroAUC)

	b.WriteString("## Confusion matrix\n\n")
	writeTable(&b, r.Confusion, 0)
	b.WriteString("\n")

	b.WriteString("## ROC curves\n\n")
	writeImage(&b, "ROC curves", r.ROCPlotPath)

	b.WriteString("## Model terms\n\n")
	writeTable(&b, r.Coefficients, 40)
	writeImage(&b, "Largest coefficients per category", r.CoefPlotPath)

	return b.String()
}

// writeTable renders tbl as a GitHub pipe table, truncated to maxRows
// when maxRows is positive.
func writeTable(b *strings.Builder, tbl *dataset.Table, maxRows int) {
	if tbl == nil || tbl.NumCols() == 0 {
		return
	}
	names := tbl.ColumnNames()
	isFloat := make([]bool, len(names))
	for j, name := range names {
		if col, err := tbl.Column(name); err == nil {
			isFloat[j] = col.Type == dataset.ColFloat
		}
	}

	b.WriteString("| ")
	b.WriteString(strings.Join(names, " | "))
	b.WriteString(" |\n| ")
	for j := range names {
		if j > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")

	limit := tbl.NumRows()
	if maxRows > 0 && limit > maxRows {
		limit = maxRows
	}
	for i := 0; i < limit; i++ {
		row := tbl.Row(i)
		b.WriteString("| ")
		for j, name := range names {
			if j > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(formatCell(row, name, isFloat[j]))
		}
		b.WriteString(" |\n")
	}
	if tbl.NumRows() > limit {
		fmt.Fprintf(b, "\nwith %d more rows omitted\n", tbl.NumRows()-limit)
	}
}

func formatCell(row dataset.Row, name string, isFloat bool) string {
	if row.IsNA(name) {
		return "NA"
	}
	if isFloat {
		return fmt.Sprintf("%.4g", row.Float(name))
	}
	s := row.String(name)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "/")
}

// writeImage links a chart by its base name, so the report stays valid
// when the output directory moves.
func writeImage(b *strings.Builder, alt, path string) {
	if path == "" {
		return
	}
	fmt.Fprintf(b, "\n![%s](%s)\n\n", alt, filepath.Base(path))
}
