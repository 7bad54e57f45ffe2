package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

func TestReadCSV(t *testing.T) {
	csv := "industry,employ_n,race_gender\n" +
		"Mining,2120,Women\n" +
		"Retail,NA,Men\n" +
		"Construction,10543,Women\n"

	tbl, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if tbl.NumRows() != 3 || tbl.NumCols() != 3 {
		t.Fatalf("shape = (%d, %d), want (3, 3)", tbl.NumRows(), tbl.NumCols())
	}

	col, err := tbl.Column("employ_n")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if col.Type != ColFloat {
		t.Errorf("employ_n type = %v, want float", col.Type)
	}
	if !col.Missing[1] {
		t.Error("NA entry should be marked missing")
	}
	if col.Floats[0] != 2120 || col.Floats[2] != 10543 {
		t.Errorf("employ_n values = %v", col.Floats)
	}

	ind, err := tbl.Column("industry")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if ind.Type != ColString {
		t.Errorf("industry type = %v, want string", ind.Type)
	}
}

func TestReadCSVCleanNames(t *testing.T) {
	csv := "Paper ID,Program Category\np1,Macro\n"

	tbl, err := ReadCSV(strings.NewReader(csv), WithCleanNames())
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if !tbl.HasColumn("paper_id") || !tbl.HasColumn("program_category") {
		t.Errorf("cleaned names = %v", tbl.ColumnNames())
	}
}

func TestReadCSVCustomOptions(t *testing.T) {
	csv := "x;y\n1;keep\n.;drop\n"

	tbl, err := ReadCSV(strings.NewReader(csv), WithComma(';'), WithNAValues("."))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	col, _ := tbl.Column("x")
	if col.Type != ColFloat {
		t.Errorf("x type = %v, want float (custom NA marker)", col.Type)
	}
	if !col.Missing[1] {
		t.Error("'.' should be missing under custom NA values")
	}
}

func TestReadCSVConversionWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(w error) {})

	// 4 of 5 values numeric: mostly-numeric column demoted to string.
	csv := "v\n1\n2\n3\n4\noops\n"
	tbl, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	col, _ := tbl.Column("v")
	if col.Type != ColString {
		t.Errorf("v type = %v, want string", col.Type)
	}

	if len(warnings) != 1 {
		t.Fatalf("expected 1 conversion warning, got %d", len(warnings))
	}
	var conv *errors.DataConversionWarning
	if !errors.As(warnings[0], &conv) {
		t.Fatalf("warning type = %T, want DataConversionWarning", warnings[0])
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{name: "empty input", csv: ""},
		{name: "ragged record", csv: "a,b\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.csv)); err == nil {
				t.Error("ReadCSV() should fail")
			}
		})
	}
}

func TestFromRecords(t *testing.T) {
	records := [][]string{
		{"industry", "employ_n"},
		{"Mining", "2120"},
		{"Retail", "NA"},
	}

	tbl, err := FromRecords(records)
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}
	if tbl.NumRows() != 2 || tbl.NumCols() != 2 {
		t.Fatalf("shape = (%d, %d), want (2, 2)", tbl.NumRows(), tbl.NumCols())
	}

	col, err := tbl.Column("employ_n")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if col.Type != ColFloat || col.Floats[0] != 2120 || !col.Missing[1] {
		t.Errorf("employ_n = %+v", col)
	}

	cleaned, err := FromRecords([][]string{{"Paper ID"}, {"p1"}}, WithCleanNames())
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}
	if !cleaned.HasColumn("paper_id") {
		t.Errorf("cleaned names = %v", cleaned.ColumnNames())
	}
}

func TestFromRecordsErrors(t *testing.T) {
	if _, err := FromRecords(nil); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("no records error = %v, want ErrEmptyData", err)
	}

	ragged := [][]string{{"a", "b"}, {"1"}}
	if _, err := FromRecords(ragged); err == nil {
		t.Error("ragged record should fail")
	}
}

func TestWriteCSV(t *testing.T) {
	col := NewFloatColumn("n", []float64{1.5, 0})
	col.Missing[1] = true
	tbl := mustTable(t,
		NewStringColumn("name", []string{"a", "b"}),
		col,
	)

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "name,n\na,1.5\nb,NA\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", buf.String(), want)
	}
}

func TestCleanNames(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "spaces", in: "Minor Occupation", want: "minor_occupation"},
		{name: "camel case", in: "paperProgram", want: "paper_program"},
		{name: "hyphens", in: "race-gender", want: "race_gender"},
		{name: "already clean", in: "employ_n", want: "employ_n"},
		{name: "repeated separators", in: "a - b", want: "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanName(tt.in); got != tt.want {
				t.Errorf("cleanName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
