package dataset

import (
	"math"
	"testing"
)

func employmentFixture(t *testing.T) *Table {
	t.Helper()
	n := NewFloatColumn("employ_n", []float64{100, math.NaN(), 300, 50, 250})
	n.Missing[1] = true
	return mustTable(t,
		NewStringColumn("industry", []string{"Mining", "Mining", "Retail", "Retail", "Mining"}),
		NewStringColumn("race_gender", []string{"Women", "Men", "Women", "Men", "Women"}),
		n,
	)
}

func TestSelectDropRename(t *testing.T) {
	tbl := employmentFixture(t)

	sel, err := tbl.Select("employ_n", "industry")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	names := sel.ColumnNames()
	if names[0] != "employ_n" || names[1] != "industry" {
		t.Errorf("Select order = %v", names)
	}

	if _, err := tbl.Select("nope"); err == nil {
		t.Error("Select with unknown column should fail")
	}

	dropped, err := tbl.Drop("race_gender")
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if dropped.HasColumn("race_gender") {
		t.Error("Drop left the column in place")
	}
	if dropped.NumCols() != 2 {
		t.Errorf("Drop: NumCols = %d, want 2", dropped.NumCols())
	}

	renamed, err := tbl.Rename("employ_n", "n")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if !renamed.HasColumn("n") || renamed.HasColumn("employ_n") {
		t.Errorf("Rename result = %v", renamed.ColumnNames())
	}
	if _, err := tbl.Rename("industry", "race_gender"); err == nil {
		t.Error("Rename onto existing column should fail")
	}
}

func TestFilterAndDropNA(t *testing.T) {
	tbl := employmentFixture(t)

	women := tbl.Filter(func(r Row) bool { return r.String("race_gender") == "Women" })
	if women.NumRows() != 3 {
		t.Errorf("Filter: NumRows = %d, want 3", women.NumRows())
	}

	complete := tbl.DropNA("employ_n")
	if complete.NumRows() != 4 {
		t.Errorf("DropNA: NumRows = %d, want 4", complete.NumRows())
	}

	all := tbl.DropNA()
	if all.NumRows() != 4 {
		t.Errorf("DropNA(): NumRows = %d, want 4", all.NumRows())
	}
}

func TestMutate(t *testing.T) {
	tbl := mustTable(t,
		NewStringColumn("industry", []string{"Mining", "Retail"}),
		NewStringColumn("minor_occupation", []string{"Management", "Service"}),
		NewFloatColumn("total", []float64{1000, 3000}),
	)

	out := tbl.MutateString("occupation", func(r Row) string {
		return r.String("industry") + " " + r.String("minor_occupation")
	})
	occ, err := out.Strings("occupation")
	if err != nil {
		t.Fatalf("Strings() error = %v", err)
	}
	if occ[0] != "Mining Management" || occ[1] != "Retail Service" {
		t.Errorf("MutateString result = %v", occ)
	}

	// New columns append; existing columns are replaced in place.
	names := out.ColumnNames()
	if names[len(names)-1] != "occupation" {
		t.Errorf("new column should append: %v", names)
	}

	logged := out.MutateFloat("total", func(r Row) float64 {
		return math.Log(r.Float("total"))
	})
	vals, _ := logged.Float("total")
	if math.Abs(vals[0]-math.Log(1000)) > 1e-12 {
		t.Errorf("MutateFloat replace = %v", vals[0])
	}
	if logged.NumCols() != out.NumCols() {
		t.Error("replacing a column should not change column count")
	}

	// The source table is untouched.
	orig, _ := tbl.Float("total")
	if orig[0] != 1000 {
		t.Error("Mutate modified the source table")
	}
}

func TestDistinct(t *testing.T) {
	tbl := mustTable(t,
		NewStringColumn("paper", []string{"p1", "p2", "p1", "p3"}),
		NewFloatColumn("year", []float64{2019, 2020, 2019, 2021}),
	)

	out := tbl.Distinct("paper")
	if out.NumRows() != 3 {
		t.Errorf("Distinct: NumRows = %d, want 3", out.NumRows())
	}
	papers, _ := out.Strings("paper")
	if papers[0] != "p1" || papers[1] != "p2" || papers[2] != "p3" {
		t.Errorf("Distinct order = %v", papers)
	}

	whole := tbl.Distinct()
	if whole.NumRows() != 3 {
		t.Errorf("Distinct(): NumRows = %d, want 3", whole.NumRows())
	}
}

func TestSortBy(t *testing.T) {
	n := NewFloatColumn("n", []float64{2, math.NaN(), 1, 3})
	n.Missing[1] = true
	tbl := mustTable(t,
		NewStringColumn("k", []string{"b", "x", "a", "c"}),
		n,
	)

	asc, err := tbl.SortBy("n", false)
	if err != nil {
		t.Fatalf("SortBy() error = %v", err)
	}
	ks, _ := asc.Strings("k")
	if ks[0] != "a" || ks[1] != "b" || ks[2] != "c" || ks[3] != "x" {
		t.Errorf("ascending order = %v (missing should sort last)", ks)
	}

	desc, err := tbl.SortBy("n", true)
	if err != nil {
		t.Fatalf("SortBy() error = %v", err)
	}
	ks, _ = desc.Strings("k")
	if ks[0] != "c" || ks[3] != "x" {
		t.Errorf("descending order = %v (missing should sort last)", ks)
	}

	byName, err := tbl.SortBy("k", false)
	if err != nil {
		t.Fatalf("SortBy() error = %v", err)
	}
	ks, _ = byName.Strings("k")
	if ks[0] != "a" || ks[3] != "x" {
		t.Errorf("string sort order = %v", ks)
	}
}

func TestGroupBySummarize(t *testing.T) {
	tbl := employmentFixture(t)

	g, err := tbl.GroupBy("industry", "race_gender")
	if err != nil {
		t.Fatalf("GroupBy() error = %v", err)
	}

	out, err := g.Summarize(Mean("employ_n", "avg_n"), Count("n"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	// Groups appear in first-seen order.
	inds, _ := out.Strings("industry")
	races, _ := out.Strings("race_gender")
	if inds[0] != "Mining" || races[0] != "Women" {
		t.Errorf("first group = %s/%s, want Mining/Women", inds[0], races[0])
	}
	if inds[1] != "Mining" || races[1] != "Men" {
		t.Errorf("second group = %s/%s, want Mining/Men", inds[1], races[1])
	}

	avg, _ := out.Float("avg_n")
	// Mining/Women rows hold 100 and 250.
	if math.Abs(avg[0]-175) > 1e-12 {
		t.Errorf("Mining/Women mean = %v, want 175", avg[0])
	}

	counts, _ := out.Float("n")
	if counts[0] != 2 || counts[1] != 1 {
		t.Errorf("counts = %v", counts)
	}

	// The Mining/Men group has only a missing value: mean is missing,
	// count still sees the row.
	miss, _ := out.Missing("avg_n")
	if !miss[1] {
		t.Error("all-missing group mean should be missing")
	}
}

func TestSummarizeStats(t *testing.T) {
	tbl := mustTable(t,
		NewStringColumn("g", []string{"a", "a", "a", "a"}),
		NewFloatColumn("v", []float64{4, 1, 3, 2}),
	)

	g, _ := tbl.GroupBy("g")
	out, err := g.Summarize(
		Sum("v", "sum"),
		Min("v", "min"),
		Max("v", "max"),
		Median("v", "median"),
	)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	check := func(name string, want float64) {
		t.Helper()
		vals, _ := out.Float(name)
		if math.Abs(vals[0]-want) > 1e-12 {
			t.Errorf("%s = %v, want %v", name, vals[0], want)
		}
	}
	check("sum", 10)
	check("min", 1)
	check("max", 4)
	check("median", 2.5)
}

func TestCountBy(t *testing.T) {
	tbl := mustTable(t,
		NewStringColumn("category", []string{"Macro", "Micro", "Macro", "Finance", "Macro"}),
	)

	out, err := tbl.CountBy("category")
	if err != nil {
		t.Fatalf("CountBy() error = %v", err)
	}

	cats, _ := out.Strings("category")
	ns, _ := out.Float("n")
	if cats[0] != "Macro" || ns[0] != 3 {
		t.Errorf("first count = %s/%v, want Macro/3", cats[0], ns[0])
	}
	if cats[1] != "Micro" || ns[1] != 1 {
		t.Errorf("second count = %s/%v, want Micro/1", cats[1], ns[1])
	}
}

func TestPivotWider(t *testing.T) {
	tbl := mustTable(t,
		NewStringColumn("occupation", []string{"Management", "Management", "Service", "Service"}),
		NewStringColumn("race_gender", []string{"Women", "Asian", "Women", "Asian"}),
		NewFloatColumn("n", []float64{10, 20, 30, 40}),
	)

	out, err := tbl.PivotWider("race_gender", "n", 0)
	if err != nil {
		t.Fatalf("PivotWider() error = %v", err)
	}

	names := out.ColumnNames()
	if len(names) != 3 || names[0] != "occupation" || names[1] != "Women" || names[2] != "Asian" {
		t.Errorf("pivot columns = %v", names)
	}

	if out.NumRows() != 2 {
		t.Fatalf("pivot rows = %d, want 2", out.NumRows())
	}

	women, _ := out.Float("Women")
	asian, _ := out.Float("Asian")
	if women[0] != 10 || asian[1] != 40 {
		t.Errorf("pivot cells wrong: %v %v", women, asian)
	}
}

func TestPivotWiderFill(t *testing.T) {
	tbl := mustTable(t,
		NewStringColumn("occupation", []string{"Management", "Service"}),
		NewStringColumn("race_gender", []string{"Women", "Asian"}),
		NewFloatColumn("n", []float64{10, 40}),
	)

	out, err := tbl.PivotWider("race_gender", "n", 0)
	if err != nil {
		t.Fatalf("PivotWider() error = %v", err)
	}

	asian, _ := out.Float("Asian")
	if asian[0] != 0 {
		t.Errorf("absent combination = %v, want fill 0", asian[0])
	}
}

func TestPivotWiderCollision(t *testing.T) {
	tbl := mustTable(t,
		NewStringColumn("id", []string{"a"}),
		NewStringColumn("name", []string{"id"}),
		NewFloatColumn("v", []float64{1}),
	)

	if _, err := tbl.PivotWider("name", "v", 0); err == nil {
		t.Error("PivotWider should reject name colliding with id column")
	}
}

func TestLeftJoin(t *testing.T) {
	left := mustTable(t,
		NewStringColumn("paper", []string{"p1", "p2", "p3"}),
		NewStringColumn("title", []string{"A", "B", "C"}),
	)
	right := mustTable(t,
		NewStringColumn("paper", []string{"p1", "p1", "p3"}),
		NewStringColumn("program", []string{"EFG", "CF", "LS"}),
	)

	out, err := left.LeftJoin(right, "paper")
	if err != nil {
		t.Fatalf("LeftJoin() error = %v", err)
	}

	// p1 duplicates per match, p2 keeps a missing program, order is left.
	if out.NumRows() != 4 {
		t.Fatalf("join rows = %d, want 4", out.NumRows())
	}
	papers, _ := out.Strings("paper")
	progs, _ := out.Strings("program")
	missing, _ := out.Missing("program")

	if papers[0] != "p1" || progs[0] != "EFG" {
		t.Errorf("row 0 = %s/%s", papers[0], progs[0])
	}
	if papers[1] != "p1" || progs[1] != "CF" {
		t.Errorf("row 1 = %s/%s", papers[1], progs[1])
	}
	if papers[2] != "p2" || !missing[2] {
		t.Errorf("row 2 should be p2 with missing program")
	}
	if papers[3] != "p3" || progs[3] != "LS" {
		t.Errorf("row 3 = %s/%s", papers[3], progs[3])
	}
}

func TestInnerJoin(t *testing.T) {
	left := mustTable(t,
		NewStringColumn("paper", []string{"p1", "p2"}),
	)
	right := mustTable(t,
		NewStringColumn("paper", []string{"p2"}),
		NewFloatColumn("year", []float64{2020}),
	)

	out, err := left.InnerJoin(right, "paper")
	if err != nil {
		t.Fatalf("InnerJoin() error = %v", err)
	}
	if out.NumRows() != 1 {
		t.Fatalf("inner join rows = %d, want 1", out.NumRows())
	}
	papers, _ := out.Strings("paper")
	if papers[0] != "p2" {
		t.Errorf("inner join kept %s, want p2", papers[0])
	}
}

func TestJoinMissingKeysAndCollisions(t *testing.T) {
	lk := NewStringColumn("k", []string{"a", ""})
	lk.Missing[1] = true
	left := mustTable(t, lk, NewFloatColumn("v", []float64{1, 2}))

	rk := NewStringColumn("k", []string{"a", ""})
	rk.Missing[1] = true
	right := mustTable(t, rk, NewFloatColumn("v", []float64{10, 20}))

	out, err := left.LeftJoin(right, "k")
	if err != nil {
		t.Fatalf("LeftJoin() error = %v", err)
	}

	// Missing keys never match, colliding right column gets _y.
	if !out.HasColumn("v_y") {
		t.Errorf("columns = %v, want v_y suffix", out.ColumnNames())
	}
	miss, _ := out.Missing("v_y")
	if miss[0] {
		t.Error("matched row should carry right value")
	}
	if !miss[1] {
		t.Error("missing key should not match")
	}
}
