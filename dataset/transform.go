package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		idx, ok := t.byName[name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
		}
		cols = append(cols, t.cols[idx].clone())
	}
	return newTable(cols), nil
}

// Drop returns a table without the named columns.
func (t *Table) Drop(names ...string) (*Table, error) {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		if !t.HasColumn(name) {
			return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
		}
		dropSet[name] = true
	}
	var cols []Column
	for _, c := range t.cols {
		if !dropSet[c.Name] {
			cols = append(cols, c.clone())
		}
	}
	return newTable(cols), nil
}

// Rename returns a table with one column renamed.
func (t *Table) Rename(oldName, newName string) (*Table, error) {
	if !t.HasColumn(oldName) {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", oldName)
	}
	if t.HasColumn(newName) && newName != oldName {
		return nil, errors.NewValidationError("new_name", "column already exists", newName)
	}
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.clone()
		if c.Name == oldName {
			cols[i].Name = newName
		}
	}
	return newTable(cols), nil
}

// Filter returns the rows for which pred is true, preserving order.
func (t *Table) Filter(pred func(Row) bool) *Table {
	var rows []int
	n := t.NumRows()
	for i := 0; i < n; i++ {
		if pred(t.Row(i)) {
			rows = append(rows, i)
		}
	}
	out, _ := t.TakeRows(rows)
	return out
}

// DropNA returns the rows with no missing values in the named columns, or in
// any column when no names are given.
func (t *Table) DropNA(names ...string) *Table {
	if len(names) == 0 {
		names = t.ColumnNames()
	}
	return t.Filter(func(r Row) bool {
		for _, name := range names {
			if r.IsNA(name) {
				return false
			}
		}
		return true
	})
}

// MutateFloat returns a table with a numeric column computed from each row.
// An existing column of the same name is replaced in place; a new column is
// appended.
func (t *Table) MutateFloat(name string, fn func(Row) float64) *Table {
	n := t.NumRows()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = fn(t.Row(i))
	}
	return t.withColumn(NewFloatColumn(name, values))
}

// MutateString returns a table with a text column computed from each row.
// An existing column of the same name is replaced in place; a new column is
// appended.
func (t *Table) MutateString(name string, fn func(Row) string) *Table {
	n := t.NumRows()
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fn(t.Row(i))
	}
	return t.withColumn(NewStringColumn(name, values))
}

func (t *Table) withColumn(col Column) *Table {
	cols := make([]Column, 0, len(t.cols)+1)
	replaced := false
	for _, c := range t.cols {
		if c.Name == col.Name {
			cols = append(cols, col)
			replaced = true
		} else {
			cols = append(cols, c.clone())
		}
	}
	if !replaced {
		cols = append(cols, col)
	}
	return newTable(cols)
}

// Distinct returns the first occurrence of each distinct combination of the
// named columns, keeping all columns. With no names, whole rows are compared.
func (t *Table) Distinct(names ...string) *Table {
	if len(names) == 0 {
		names = t.ColumnNames()
	}
	seen := make(map[string]bool)
	var rows []int
	n := t.NumRows()
	for i := 0; i < n; i++ {
		key := t.rowKey(i, names)
		if !seen[key] {
			seen[key] = true
			rows = append(rows, i)
		}
	}
	out, _ := t.TakeRows(rows)
	return out
}

// SortBy returns the table stably sorted by one column. Missing values sort
// last in either direction.
func (t *Table) SortBy(name string, descending bool) (*Table, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
	}
	c := t.cols[idx]

	n := t.NumRows()
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	less := func(a, b int) bool {
		if c.Missing[a] != c.Missing[b] {
			return !c.Missing[a]
		}
		if c.Missing[a] {
			return false
		}
		if c.Type == ColFloat {
			if descending {
				return c.Floats[a] > c.Floats[b]
			}
			return c.Floats[a] < c.Floats[b]
		}
		if descending {
			return c.Strings[a] > c.Strings[b]
		}
		return c.Strings[a] < c.Strings[b]
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })

	return t.TakeRows(rows)
}

// rowKey builds a composite grouping key from the named columns at row i.
// The unit separator keeps multi-column keys unambiguous.
func (t *Table) rowKey(i int, names []string) string {
	parts := make([]string, len(names))
	for j, name := range names {
		idx := t.byName[name]
		c := t.cols[idx]
		switch {
		case c.Missing[i]:
			parts[j] = "\x00NA"
		case c.Type == ColFloat:
			parts[j] = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
		default:
			parts[j] = c.Strings[i]
		}
	}
	return strings.Join(parts, "\x1f")
}

// ===========================================================================
//
//	Grouped summaries
//
// ===========================================================================

// AggKind identifies a summary statistic.
type AggKind int

const (
	AggMean AggKind = iota
	AggSum
	AggCount
	AggMin
	AggMax
	AggMedian
)

// Agg describes one summary column: the statistic, the source column, and
// the output name.
type Agg struct {
	Kind AggKind
	Col  string
	As   string
}

// Mean averages the non-missing values of col.
func Mean(col, as string) Agg { return Agg{Kind: AggMean, Col: col, As: as} }

// Sum totals the non-missing values of col.
func Sum(col, as string) Agg { return Agg{Kind: AggSum, Col: col, As: as} }

// Count counts the rows of the group.
func Count(as string) Agg { return Agg{Kind: AggCount, As: as} }

// Min takes the smallest non-missing value of col.
func Min(col, as string) Agg { return Agg{Kind: AggMin, Col: col, As: as} }

// Max takes the largest non-missing value of col.
func Max(col, as string) Agg { return Agg{Kind: AggMax, Col: col, As: as} }

// Median takes the median of the non-missing values of col.
func Median(col, as string) Agg { return Agg{Kind: AggMedian, Col: col, As: as} }

// GroupedTable is a table partitioned by key columns, ready to summarize.
// Groups are ordered by first appearance in the source table.
type GroupedTable struct {
	t      *Table
	keys   []string
	order  []string
	groups map[string][]int
}

// GroupBy partitions the table by the named columns.
func (t *Table) GroupBy(names ...string) (*GroupedTable, error) {
	for _, name := range names {
		if !t.HasColumn(name) {
			return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", name)
		}
	}

	groups := make(map[string][]int)
	var order []string
	n := t.NumRows()
	for i := 0; i < n; i++ {
		key := t.rowKey(i, names)
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	return &GroupedTable{t: t, keys: names, order: order, groups: groups}, nil
}

// Summarize computes one row per group: the key columns followed by one
// numeric column per aggregation. Missing values are skipped; a group with
// no usable values yields a missing result.
func (g *GroupedTable) Summarize(aggs ...Agg) (*Table, error) {
	if len(aggs) == 0 {
		return nil, errors.NewValidationError("aggs", "at least one aggregation required", 0)
	}
	for _, agg := range aggs {
		if agg.Kind == AggCount {
			continue
		}
		idx, ok := g.t.byName[agg.Col]
		if !ok {
			return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", agg.Col)
		}
		if g.t.cols[idx].Type != ColFloat {
			return nil, errors.NewValidationError("column", "not a numeric column", agg.Col)
		}
	}

	// Key columns take the value of the group's first row.
	firstRows := make([]int, len(g.order))
	for i, key := range g.order {
		firstRows[i] = g.groups[key][0]
	}
	keyTable, err := g.t.TakeRows(firstRows)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, 0, len(g.keys)+len(aggs))
	for _, name := range g.keys {
		c, _ := keyTable.Column(name)
		cols = append(cols, c)
	}

	for _, agg := range aggs {
		out := Column{
			Name:    agg.As,
			Type:    ColFloat,
			Floats:  make([]float64, len(g.order)),
			Missing: make([]bool, len(g.order)),
		}
		for i, key := range g.order {
			value, ok := g.aggregate(agg, g.groups[key])
			if !ok {
				out.Floats[i] = math.NaN()
				out.Missing[i] = true
			} else {
				out.Floats[i] = value
			}
		}
		cols = append(cols, out)
	}

	return NewTable(cols...)
}

func (g *GroupedTable) aggregate(agg Agg, rows []int) (float64, bool) {
	if agg.Kind == AggCount {
		return float64(len(rows)), true
	}

	c := g.t.cols[g.t.byName[agg.Col]]
	var values []float64
	for _, r := range rows {
		if !c.Missing[r] {
			values = append(values, c.Floats[r])
		}
	}
	if len(values) == 0 {
		return 0, false
	}

	switch agg.Kind {
	case AggMean:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), true
	case AggSum:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum, true
	case AggMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m, true
	case AggMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m, true
	case AggMedian:
		sorted := make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2, true
		}
		return sorted[mid], true
	default:
		return 0, false
	}
}

// CountBy counts the occurrences of each value of the named column, in
// first-seen order, returning a table with the column and "n".
func (t *Table) CountBy(name string) (*Table, error) {
	g, err := t.GroupBy(name)
	if err != nil {
		return nil, err
	}
	return g.Summarize(Count("n"))
}

// ===========================================================================
//
//	Reshaping
//
// ===========================================================================

// PivotWider spreads namesFrom/valuesFrom pairs into one column per distinct
// name. The remaining columns identify output rows; both row order and new
// column order follow first appearance. Absent combinations get fill. When
// an id/name pair occurs more than once the last value wins.
func (t *Table) PivotWider(namesFrom, valuesFrom string, fill float64) (*Table, error) {
	nameIdx, ok := t.byName[namesFrom]
	if !ok {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", namesFrom)
	}
	valueIdx, ok := t.byName[valuesFrom]
	if !ok {
		return nil, errors.Wrapf(errors.ErrColumnNotFound, "column %q", valuesFrom)
	}
	nameCol := t.cols[nameIdx]
	valueCol := t.cols[valueIdx]
	if nameCol.Type != ColString {
		return nil, errors.NewValidationError("names_from", "not a text column", namesFrom)
	}
	if valueCol.Type != ColFloat {
		return nil, errors.NewValidationError("values_from", "not a numeric column", valuesFrom)
	}

	var idNames []string
	for _, c := range t.cols {
		if c.Name != namesFrom && c.Name != valuesFrom {
			idNames = append(idNames, c.Name)
		}
	}

	// Identify output rows by the id columns, first-seen order.
	rowOf := make(map[string]int)
	var firstRows []int
	n := t.NumRows()
	for i := 0; i < n; i++ {
		key := t.rowKey(i, idNames)
		if _, exists := rowOf[key]; !exists {
			rowOf[key] = len(firstRows)
			firstRows = append(firstRows, i)
		}
	}

	// Identify new columns, first-seen order.
	colOf := make(map[string]int)
	var newNames []string
	for i := 0; i < n; i++ {
		if nameCol.Missing[i] {
			continue
		}
		name := nameCol.Strings[i]
		if _, exists := colOf[name]; !exists {
			colOf[name] = len(newNames)
			newNames = append(newNames, name)
		}
	}
	for _, name := range newNames {
		for _, id := range idNames {
			if name == id {
				return nil, errors.NewValidationError("names_from", "value collides with an existing column", name)
			}
		}
	}

	cells := make([][]float64, len(firstRows))
	for i := range cells {
		row := make([]float64, len(newNames))
		for j := range row {
			row[j] = fill
		}
		cells[i] = row
	}
	for i := 0; i < n; i++ {
		if nameCol.Missing[i] || valueCol.Missing[i] {
			continue
		}
		r := rowOf[t.rowKey(i, idNames)]
		c := colOf[nameCol.Strings[i]]
		cells[r][c] = valueCol.Floats[i]
	}

	idTable, err := t.TakeRows(firstRows)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(idNames)+len(newNames))
	for _, name := range idNames {
		c, _ := idTable.Column(name)
		cols = append(cols, c)
	}
	for j, name := range newNames {
		values := make([]float64, len(firstRows))
		for i := range firstRows {
			values[i] = cells[i][j]
		}
		cols = append(cols, NewFloatColumn(name, values))
	}

	return NewTable(cols...)
}

// ===========================================================================
//
//	Joins
//
// ===========================================================================

// LeftJoin joins right onto t by the named key columns. Every left row
// appears in the output in order, duplicated once per matching right row;
// unmatched left rows get missing values for the right columns. Rows with a
// missing key never match. A right column whose name collides with a left
// column is suffixed with "_y".
func (t *Table) LeftJoin(right *Table, by ...string) (*Table, error) {
	return t.join(right, by, true)
}

// InnerJoin joins right onto t by the named key columns, keeping only
// matched rows. Order follows the left table.
func (t *Table) InnerJoin(right *Table, by ...string) (*Table, error) {
	return t.join(right, by, false)
}

func (t *Table) join(right *Table, by []string, keepUnmatched bool) (*Table, error) {
	if len(by) == 0 {
		return nil, errors.NewValidationError("by", "at least one key column required", 0)
	}
	for _, name := range by {
		if !t.HasColumn(name) {
			return nil, errors.Wrapf(errors.ErrColumnNotFound, "left column %q", name)
		}
		if !right.HasColumn(name) {
			return nil, errors.Wrapf(errors.ErrColumnNotFound, "right column %q", name)
		}
	}

	bySet := make(map[string]bool, len(by))
	for _, name := range by {
		bySet[name] = true
	}

	// Index right rows by key. Missing keys are unmatchable.
	rightRows := make(map[string][]int)
	rn := right.NumRows()
	for i := 0; i < rn; i++ {
		if rowHasMissing(right, i, by) {
			continue
		}
		key := right.rowKey(i, by)
		rightRows[key] = append(rightRows[key], i)
	}

	var leftTake, rightTake []int
	ln := t.NumRows()
	for i := 0; i < ln; i++ {
		var matches []int
		if !rowHasMissing(t, i, by) {
			matches = rightRows[t.rowKey(i, by)]
		}
		if len(matches) == 0 {
			if keepUnmatched {
				leftTake = append(leftTake, i)
				rightTake = append(rightTake, -1)
			}
			continue
		}
		for _, m := range matches {
			leftTake = append(leftTake, i)
			rightTake = append(rightTake, m)
		}
	}

	leftPart, err := t.TakeRows(leftTake)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, 0, len(t.cols)+len(right.cols)-len(by))
	cols = append(cols, leftPart.cols...)

	for _, rc := range right.cols {
		if bySet[rc.Name] {
			continue
		}
		name := rc.Name
		if t.HasColumn(name) {
			name += "_y"
		}
		out := Column{Name: name, Type: rc.Type, Missing: make([]bool, len(rightTake))}
		if rc.Type == ColFloat {
			out.Floats = make([]float64, len(rightTake))
			for i, m := range rightTake {
				if m < 0 {
					out.Floats[i] = math.NaN()
					out.Missing[i] = true
					continue
				}
				out.Floats[i] = rc.Floats[m]
				out.Missing[i] = rc.Missing[m]
			}
		} else {
			out.Strings = make([]string, len(rightTake))
			for i, m := range rightTake {
				if m < 0 {
					out.Missing[i] = true
					continue
				}
				out.Strings[i] = rc.Strings[m]
				out.Missing[i] = rc.Missing[m]
			}
		}
		cols = append(cols, out)
	}

	return NewTable(cols...)
}

func rowHasMissing(t *Table, i int, names []string) bool {
	for _, name := range names {
		if t.cols[t.byName[name]].Missing[i] {
			return true
		}
	}
	return false
}
