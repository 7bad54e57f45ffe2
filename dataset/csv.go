package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// csvConfig holds CSV reading options.
type csvConfig struct {
	comma      rune
	naValues   map[string]bool
	cleanNames bool
}

// CSVOption configures ReadCSV.
type CSVOption func(*csvConfig)

// defaultNAValues are the markers treated as missing. "NA" is what R's
// write_csv emits for missing entries.
var defaultNAValues = []string{"", "NA", "N/A", "n/a", "null", "NULL"}

// WithComma sets the field delimiter (default ',').
func WithComma(r rune) CSVOption {
	return func(c *csvConfig) {
		c.comma = r
	}
}

// WithNAValues replaces the set of markers treated as missing values.
func WithNAValues(values ...string) CSVOption {
	return func(c *csvConfig) {
		c.naValues = make(map[string]bool, len(values))
		for _, v := range values {
			c.naValues[v] = true
		}
	}
}

// WithCleanNames converts header names to snake_case while reading.
func WithCleanNames() CSVOption {
	return func(c *csvConfig) {
		c.cleanNames = true
	}
}

// newCSVConfig builds the reader configuration with defaults applied.
func newCSVConfig(opts []CSVOption) csvConfig {
	cfg := csvConfig{comma: ','}
	cfg.naValues = make(map[string]bool, len(defaultNAValues))
	for _, v := range defaultNAValues {
		cfg.naValues[v] = true
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// headerNames trims header fields and optionally snake_cases them.
func headerNames(header []string, cfg csvConfig) []string {
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if cfg.cleanNames {
			name = cleanName(name)
		}
		names[i] = name
	}
	return names
}

// ReadCSV reads a CSV stream into a Table, inferring a type for each column.
// A column whose non-missing values all parse as numbers becomes a float
// column; otherwise it stays text. A column that is mostly numeric but has
// stray text raises a DataConversionWarning before being kept as text.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Table, error) {
	cfg := newCSVConfig(opts)

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}
	if len(header) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "CSV has no columns")
	}
	names := headerNames(header, cfg)

	raw := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading CSV record")
		}
		for i := range header {
			raw[i] = append(raw[i], strings.TrimSpace(record[i]))
		}
	}

	cols := make([]Column, len(header))
	for i, name := range names {
		cols[i] = inferColumn(name, raw[i], cfg.naValues)
	}

	return NewTable(cols...)
}

// FromRecords builds a Table from in-memory records. The first record is the
// header row and the rest are data rows. Column types are inferred the same
// way ReadCSV infers them.
func FromRecords(records [][]string, opts ...CSVOption) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no records")
	}

	cfg := newCSVConfig(opts)
	header := records[0]
	if len(header) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "records have no columns")
	}
	names := headerNames(header, cfg)

	raw := make([][]string, len(header))
	for r, record := range records[1:] {
		if len(record) != len(header) {
			return nil, errors.NewValueError("FromRecords",
				fmt.Sprintf("record %d has %d fields, want %d", r+1, len(record), len(header)))
		}
		for i := range header {
			raw[i] = append(raw[i], strings.TrimSpace(record[i]))
		}
	}

	cols := make([]Column, len(header))
	for i, name := range names {
		cols[i] = inferColumn(name, raw[i], cfg.naValues)
	}

	return NewTable(cols...)
}

// inferColumn classifies raw string values as a float or string column.
func inferColumn(name string, values []string, naValues map[string]bool) Column {
	missing := make([]bool, len(values))
	numeric := 0
	present := 0
	for i, v := range values {
		if naValues[v] {
			missing[i] = true
			continue
		}
		present++
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			numeric++
		}
	}

	if present > 0 && numeric == present {
		floats := make([]float64, len(values))
		for i, v := range values {
			if missing[i] {
				floats[i] = math.NaN()
				continue
			}
			f, _ := strconv.ParseFloat(v, 64)
			floats[i] = f
		}
		return Column{Name: name, Type: ColFloat, Floats: floats, Missing: missing}
	}

	// Mostly numeric with stray text is usually a data problem worth
	// surfacing, e.g. "1,234" formatting or an embedded footnote.
	if present > 0 && float64(numeric)/float64(present) >= 0.8 {
		errors.Warn(errors.NewDataConversionWarning(
			"numeric", "string",
			"column "+name+" has non-numeric entries"))
	}

	strs := make([]string, len(values))
	for i, v := range values {
		if missing[i] {
			continue
		}
		strs[i] = v
	}
	return Column{Name: name, Type: ColString, Strings: strs, Missing: missing}
}

// WriteCSV writes the table as CSV. Missing values are written as "NA".
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.ColumnNames()); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	n := t.NumRows()
	record := make([]string, len(t.cols))
	for i := 0; i < n; i++ {
		for j, c := range t.cols {
			if c.Missing[i] {
				record[j] = "NA"
				continue
			}
			if c.Type == ColFloat {
				record[j] = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
			} else {
				record[j] = c.Strings[i]
			}
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "flushing CSV")
}

// CleanNames returns a table with all column names converted to snake_case,
// e.g. "Minor Occupation" becomes "minor_occupation".
func (t *Table) CleanNames() *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.clone()
		cols[i].Name = cleanName(c.Name)
	}
	return newTable(cols)
}

// CleanName converts a single name to snake_case the same way CleanNames
// does for table columns.
func CleanName(s string) string {
	return cleanName(s)
}

// cleanName converts "Column Name" or "columnName" to "column_name".
func cleanName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(r)
	}

	out := strings.ToLower(b.String())
	out = strings.ReplaceAll(out, " ", "_")
	out = strings.ReplaceAll(out, "-", "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}
