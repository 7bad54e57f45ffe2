package dataset

import (
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// DatasetSpec names one downloadable dataset and where it lives.
type DatasetSpec struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Description string `yaml:"description,omitempty"`
}

// Manifest is a named collection of dataset specs, loadable from YAML so
// projects can point the fetcher at their own data.
type Manifest struct {
	Datasets []DatasetSpec `yaml:"datasets"`
}

const tidytuesdayBase = "https://raw.githubusercontent.com/rfordatascience/tidytuesday/master/data"

// DefaultManifest returns the built-in manifest covering the TidyTuesday
// datasets the example analyses consume.
func DefaultManifest() *Manifest {
	return &Manifest{
		Datasets: []DatasetSpec{
			{
				Name:        "employed",
				URL:         tidytuesdayBase + "/2021/2021-02-23/employed.csv",
				Description: "US employment counts by industry, occupation, race and gender (BLS)",
			},
			{
				Name:        "nber-papers",
				URL:         tidytuesdayBase + "/2021/2021-09-28/papers.csv",
				Description: "NBER working papers with publication year and title",
			},
			{
				Name:        "nber-programs",
				URL:         tidytuesdayBase + "/2021/2021-09-28/programs.csv",
				Description: "NBER program codes with descriptions and categories",
			},
			{
				Name:        "nber-paper-programs",
				URL:         tidytuesdayBase + "/2021/2021-09-28/paper_programs.csv",
				Description: "Mapping between NBER papers and the programs that published them",
			},
		},
	}
}

// LoadManifest reads and validates a manifest YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", path)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return &m, nil
}

// Save writes the manifest as YAML.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshaling manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing manifest %s", path)
	}
	return nil
}

// Validate checks that every entry has a non-empty unique name and a URL.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Datasets))
	for _, spec := range m.Datasets {
		if spec.Name == "" {
			return errors.NewValidationError("name", "dataset name must not be empty", spec.URL)
		}
		if spec.URL == "" {
			return errors.NewValidationError("url", "dataset URL must not be empty", spec.Name)
		}
		if seen[spec.Name] {
			return errors.NewValidationError("name", "duplicate dataset name", spec.Name)
		}
		seen[spec.Name] = true
	}
	return nil
}

// Lookup returns the spec registered under name.
func (m *Manifest) Lookup(name string) (DatasetSpec, bool) {
	for _, spec := range m.Datasets {
		if spec.Name == name {
			return spec, true
		}
	}
	return DatasetSpec{}, false
}

// Names returns the dataset names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Datasets))
	for i, spec := range m.Datasets {
		names[i] = spec.Name
	}
	return names
}
