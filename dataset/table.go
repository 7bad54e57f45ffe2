// Package dataset provides an immutable column-oriented table for wrangling
// demographic and bibliographic CSV data into model-ready matrices.
//
// A Table holds named, typed columns of equal length. Every operation
// returns a new Table and leaves the receiver untouched, so intermediate
// frames of a pipeline stay valid. Grouped summaries preserve first-seen
// group order and joins preserve left-row order, which keeps derived
// matrices reproducible run to run.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// ColType identifies the storage type of a column.
type ColType int

const (
	// ColFloat is a numeric column backed by []float64.
	ColFloat ColType = iota
	// ColString is a text column backed by []string.
	ColString
)

// String returns the type name.
func (t ColType) String() string {
	switch t {
	case ColFloat:
		return "float"
	case ColString:
		return "string"
	default:
		return "unknown"
	}
}

// Column is a single named column. Missing marks rows whose value is absent;
// for float columns the corresponding Floats entry is NaN.
type Column struct {
	Name    string
	Type    ColType
	Floats  []float64
	Strings []string
	Missing []bool
}

// NewFloatColumn creates a numeric column with no missing values.
func NewFloatColumn(name string, values []float64) Column {
	vals := make([]float64, len(values))
	copy(vals, values)
	return Column{
		Name:    name,
		Type:    ColFloat,
		Floats:  vals,
		Missing: make([]bool, len(values)),
	}
}

// NewStringColumn creates a text column with no missing values.
func NewStringColumn(name string, values []string) Column {
	vals := make([]string, len(values))
	copy(vals, values)
	return Column{
		Name:    name,
		Type:    ColString,
		Strings: vals,
		Missing: make([]bool, len(values)),
	}
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	if c.Type == ColFloat {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// clone deep-copies the column.
func (c Column) clone() Column {
	out := Column{Name: c.Name, Type: c.Type}
	if c.Floats != nil {
		out.Floats = make([]float64, len(c.Floats))
		copy(out.Floats, c.Floats)
	}
	if c.Strings != nil {
		out.Strings = make([]string, len(c.Strings))
		copy(out.Strings, c.Strings)
	}
	if c.Missing != nil {
		out.Missing = make([]bool, len(c.Missing))
		copy(out.Missing, c.Missing)
	}
	return out
}

// take returns a new column holding the given rows in order.
func (c Column) take(rows []int) Column {
	out := Column{Name: c.Name, Type: c.Type, Missing: make([]bool, len(rows))}
	if c.Type == ColFloat {
		out.Floats = make([]float64, len(rows))
		for i, r := range rows {
			out.Floats[i] = c.Floats[r]
			out.Missing[i] = c.Missing[r]
		}
		return out
	}
	out.Strings = make([]string, len(rows))
	for i, r := range rows {
		out.Strings[i] = c.Strings[r]
		out.Missing[i] = c.Missing[r]
	}
	return out
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols   []Column
	byName map[string]int
}

// NewTable creates a table from columns. Column names must be unique and
// lengths must match.
func NewTable(cols ...Column) (*Table, error) {
	if len(cols) == 0 {
		return &Table{byName: map[string]int{}}, nil
	}

	n := cols[0].Len()
	byName := make(map[string]int, len(cols))
	stored := make([]Column, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, errors.NewValidationError("column", "name must not be empty", i)
		}
		if _, dup := byName[c.Name]; dup {
			return nil, errors.NewValidationError("column", "duplicate name", c.Name)
		}
		if c.Len() != n {
			return nil, errors.NewDimensionError("NewTable", n, c.Len(), 0)
		}
		byName[c.Name] = i
		stored[i] = c.clone()
	}

	return &Table{cols: stored, byName: byName}, nil
}

// newTable builds a table from pre-validated columns without copying.
func newTable(cols []Column) *Table {
	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		byName[c.Name] = i
	}
	return &Table{cols: cols, byName: byName}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// ColumnSchema describes one column of a table.
type ColumnSchema struct {
	Name    string
	Type    ColType
	Missing int
}

// Schema returns the name, type, and missing-value count of every column,
// in table order.
func (t *Table) Schema() []ColumnSchema {
	out := make([]ColumnSchema, len(t.cols))
	for i, c := range t.cols {
		missing := 0
		for _, m := range c.Missing {
			if m {
				missing++
			}
		}
		out[i] = ColumnSchema{Name: c.Name, Type: c.Type, Missing: missing}
	}
	return out
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) (Column, error) {
	idx, ok := t.byName[name]
	if !ok {
		return Column{}, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
	}
	return t.cols[idx].clone(), nil
}

// Float returns a copy of the values of a numeric column. Missing entries
// are NaN.
func (t *Table) Float(name string) ([]float64, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
	}
	c := t.cols[idx]
	if c.Type != ColFloat {
		return nil, errors.NewValidationError("column", "not a numeric column", name)
	}
	out := make([]float64, len(c.Floats))
	copy(out, c.Floats)
	return out, nil
}

// Strings returns a copy of the values of a text column.
func (t *Table) Strings(name string) ([]string, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
	}
	c := t.cols[idx]
	if c.Type != ColString {
		return nil, errors.NewValidationError("column", "not a text column", name)
	}
	out := make([]string, len(c.Strings))
	copy(out, c.Strings)
	return out, nil
}

// Missing returns a copy of the missing mask of the named column.
func (t *Table) Missing(name string) ([]bool, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
	}
	out := make([]bool, len(t.cols[idx].Missing))
	copy(out, t.cols[idx].Missing)
	return out, nil
}

// Row is a read-only view of a single table row.
type Row struct {
	t *Table
	i int
}

// Index returns the row's position in the table.
func (r Row) Index() int {
	return r.i
}

// Float returns the numeric value of the named column. It returns NaN when
// the column is missing, text-typed, or the value is absent.
func (r Row) Float(name string) float64 {
	idx, ok := r.t.byName[name]
	if !ok {
		return math.NaN()
	}
	c := r.t.cols[idx]
	if c.Type != ColFloat || c.Missing[r.i] {
		return math.NaN()
	}
	return c.Floats[r.i]
}

// String returns the text value of the named column. Float columns are
// formatted; absent values yield "".
func (r Row) String(name string) string {
	idx, ok := r.t.byName[name]
	if !ok {
		return ""
	}
	c := r.t.cols[idx]
	if c.Missing[r.i] {
		return ""
	}
	if c.Type == ColFloat {
		return strconv.FormatFloat(c.Floats[r.i], 'g', -1, 64)
	}
	return c.Strings[r.i]
}

// IsNA reports whether the named column is missing at this row. Unknown
// columns count as missing.
func (r Row) IsNA(name string) bool {
	idx, ok := r.t.byName[name]
	if !ok {
		return true
	}
	return r.t.cols[idx].Missing[r.i]
}

// Row returns a view of row i. The view is only valid while the table is
// alive.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// TakeRows returns a new table holding the given rows in order. Indices may
// repeat.
func (t *Table) TakeRows(rows []int) (*Table, error) {
	n := t.NumRows()
	for _, r := range rows {
		if r < 0 || r >= n {
			return nil, errors.NewValueError("TakeRows", fmt.Sprintf("row index %d out of range [0, %d)", r, n))
		}
	}
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(rows)
	}
	return newTable(cols), nil
}

// Head returns the first n rows, or the whole table when it has fewer.
func (t *Table) Head(n int) *Table {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	out, _ := t.TakeRows(rows)
	return out
}

// Matrix assembles the named numeric columns into a dense matrix, one column
// per feature in the given order. With no names, all numeric columns are
// used in table order. Missing values are an error; drop or fill them first.
func (t *Table) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		for _, c := range t.cols {
			if c.Type == ColFloat {
				names = append(names, c.Name)
			}
		}
	}
	if len(names) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Matrix: no numeric columns")
	}

	n := t.NumRows()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Matrix: no rows")
	}
	data := make([]float64, n*len(names))
	for j, name := range names {
		idx, ok := t.byName[name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
		}
		c := t.cols[idx]
		if c.Type != ColFloat {
			return nil, errors.NewValidationError("column", "not a numeric column", name)
		}
		for i := 0; i < n; i++ {
			if c.Missing[i] {
				return nil, errors.Wrapf(errors.ErrMissingValues, "column %q row %d", name, i)
			}
			data[i*len(names)+j] = c.Floats[i]
		}
	}

	return mat.NewDense(n, len(names), data), nil
}

// Vector assembles a single numeric column into a dense vector. Missing
// values are an error, as with Matrix.
func (t *Table) Vector(name string) (*mat.VecDense, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
	}
	c := t.cols[idx]
	if c.Type != ColFloat {
		return nil, errors.NewValidationError("column", "not a numeric column", name)
	}
	if len(c.Floats) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Vector: no rows")
	}

	data := make([]float64, len(c.Floats))
	for i, v := range c.Floats {
		if c.Missing[i] {
			return nil, errors.Wrapf(errors.ErrMissingValues, "column %q row %d", name, i)
		}
		data[i] = v
	}
	return mat.NewVecDense(len(data), data), nil
}

// String renders the table header and up to ten rows, for quick inspection.
func (t *Table) String() string {
	var b strings.Builder
	names := t.ColumnNames()
	fmt.Fprintf(&b, "# A table: %d x %d\n", t.NumRows(), t.NumCols())
	b.WriteString(strings.Join(names, "\t"))
	b.WriteString("\n")

	limit := t.NumRows()
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		row := t.Row(i)
		fields := make([]string, len(names))
		for j, name := range names {
			if row.IsNA(name) {
				fields[j] = "NA"
			} else {
				fields[j] = row.String(name)
			}
		}
		b.WriteString(strings.Join(fields, "\t"))
		b.WriteString("\n")
	}
	if t.NumRows() > limit {
		fmt.Fprintf(&b, "# ... with %d more rows\n", t.NumRows()-limit)
	}
	return b.String()
}
