package analysis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
)

// serveCSV starts a file server over in-memory CSV bodies keyed by path.
func serveCSV(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// employmentCSV builds counts for nine occupations in three industries
// with sharply different demographic profiles, plus rows the cleaning
// steps must drop.
func employmentCSV() string {
	var b strings.Builder
	b.WriteString("industry,minor_occupation,race_gender,employ_n,year\n")

	industries := []struct {
		name  string
		total float64
		asian float64
		black float64
		women float64
	}{
		{"Alpha", 2000, 100, 200, 1600},
		{"Beta", 50000, 20000, 2500, 15000},
		{"Gamma", 500000, 15000, 150000, 250000},
	}
	minors := []string{"One", "Two", "Three"}
	groups := []string{"TOTAL", "Asian", "Black or African American", "Women"}

	for gi, ind := range industries {
		for mi, minor := range minors {
			scale := 1 + 0.02*float64(mi) + 0.001*float64(gi)
			counts := map[string]float64{
				"TOTAL":                     ind.total * scale,
				"Asian":                     ind.asian * scale,
				"Black or African American": ind.black * scale,
				"Women":                     ind.women * scale,
			}
			for _, rg := range groups {
				for yi, year := range []int{2019, 2020} {
					v := counts[rg] * (1 + 0.1*float64(yi))
					fmt.Fprintf(&b, "%s,%s,%s,%.1f,%d\n", ind.name, minor, rg, v, year)
				}
			}
		}
	}

	// Below the employment threshold, dropped by the total filter.
	b.WriteString("Tiny,Shop,TOTAL,50,2019\n")
	b.WriteString("Tiny,Shop,Asian,5,2019\n")
	b.WriteString("Tiny,Shop,Black or African American,5,2019\n")
	b.WriteString("Tiny,Shop,Women,40,2019\n")
	// Missing count, dropped before grouping.
	b.WriteString("Alpha,One,Men,,2019\n")
	return b.String()
}

func employmentTestConfig(t *testing.T, url string) EmploymentConfig {
	t.Helper()
	cfg := DefaultEmploymentConfig()
	cfg.Dataset = url + "/employed.csv"
	cfg.MinTotal = 100
	cfg.MaxK = 4
	cfg.OutDir = t.TempDir()
	return cfg
}

func TestEmploymentRun(t *testing.T) {
	srv := serveCSV(t, map[string]string{"/employed.csv": employmentCSV()})
	cfg := employmentTestConfig(t, srv.URL)

	result, err := NewEmployment(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantCols := []string{"occupation", "asian", "black_or_african_american", "women", "total"}
	if got := result.Demographics.ColumnNames(); !reflect.DeepEqual(got, wantCols) {
		t.Errorf("Demographics columns = %v, want %v", got, wantCols)
	}
	if result.Demographics.NumRows() != 9 {
		t.Errorf("Demographics rows = %d, want 9", result.Demographics.NumRows())
	}

	if result.Clusters.NumRows() != cfg.Clusters {
		t.Errorf("Clusters rows = %d, want %d", result.Clusters.NumRows(), cfg.Clusters)
	}
	if result.Summary.NumRows() != 1 {
		t.Errorf("Summary rows = %d, want 1", result.Summary.NumRows())
	}
	if result.Elbow.NumRows() != cfg.MaxK {
		t.Errorf("Elbow rows = %d, want %d", result.Elbow.NumRows(), cfg.MaxK)
	}
	if result.Inertia < 0 {
		t.Errorf("Inertia = %v, want >= 0", result.Inertia)
	}

	// Occupations of one industry share a demographic profile, so they
	// must land in one cluster, and different industries in different
	// clusters.
	occupations, err := result.Assignments.Strings("occupation")
	if err != nil {
		t.Fatalf("Strings(occupation) error = %v", err)
	}
	clusters, err := result.Assignments.Strings(".cluster")
	if err != nil {
		t.Fatalf("Strings(.cluster) error = %v", err)
	}
	byIndustry := make(map[string]map[string]bool)
	for i, occ := range occupations {
		industry := strings.Fields(occ)[0]
		if byIndustry[industry] == nil {
			byIndustry[industry] = make(map[string]bool)
		}
		byIndustry[industry][clusters[i]] = true
	}
	if len(byIndustry) != 3 {
		t.Fatalf("industries = %d, want 3", len(byIndustry))
	}
	seen := make(map[string]bool)
	for industry, labels := range byIndustry {
		if len(labels) != 1 {
			t.Errorf("industry %s spread over clusters %v", industry, labels)
			continue
		}
		for label := range labels {
			if seen[label] {
				t.Errorf("cluster %s assigned to more than one industry", label)
			}
			seen[label] = true
		}
	}

	for _, path := range []string{result.ScatterPath, result.ElbowPath, result.ReportPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output file: %v", err)
		}
	}
	report, err := os.ReadFile(result.ReportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	for _, want := range []string{
		"# Clustering employment demographics",
		"## Cluster centers",
		"tot_withinss",
	} {
		if !strings.Contains(string(report), want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestEmploymentReproducible(t *testing.T) {
	srv := serveCSV(t, map[string]string{"/employed.csv": employmentCSV()})

	first, err := NewEmployment(employmentTestConfig(t, srv.URL), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := NewEmployment(employmentTestConfig(t, srv.URL), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	firstClusters, _ := first.Assignments.Strings(".cluster")
	secondClusters, _ := second.Assignments.Strings(".cluster")
	if !reflect.DeepEqual(firstClusters, secondClusters) {
		t.Errorf("cluster assignments differ between runs:\n%v\n%v", firstClusters, secondClusters)
	}

	firstTotals, _ := first.Demographics.Float("total")
	secondTotals, _ := second.Demographics.Float("total")
	if !reflect.DeepEqual(firstTotals, secondTotals) {
		t.Errorf("scaled features differ between runs")
	}
	if first.Inertia != second.Inertia {
		t.Errorf("inertia differs between runs: %v vs %v", first.Inertia, second.Inertia)
	}
}

func TestEmploymentConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EmploymentConfig)
	}{
		{"zero clusters", func(c *EmploymentConfig) { c.Clusters = 0 }},
		{"max k below clusters", func(c *EmploymentConfig) { c.MaxK = 1; c.Clusters = 3 }},
		{"negative min total", func(c *EmploymentConfig) { c.MinTotal = -1 }},
		{"empty out dir", func(c *EmploymentConfig) { c.OutDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEmploymentConfig()
			tt.mutate(&cfg)
			if _, err := NewEmployment(cfg, nil).Run(context.Background()); err == nil {
				t.Error("Run() expected config error")
			}
		})
	}
}

func TestEmploymentMissingColumn(t *testing.T) {
	srv := serveCSV(t, map[string]string{
		"/employed.csv": "industry,employ_n\nAlpha,10\n",
	})
	cfg := employmentTestConfig(t, srv.URL)
	if _, err := NewEmployment(cfg, nil).Run(context.Background()); err == nil {
		t.Error("Run() expected error for missing columns")
	}
}
