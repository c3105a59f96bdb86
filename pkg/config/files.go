package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// LoadCatalog returns the catalog at path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", path, err)
	}
	cat, err := catalog.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}
	return cat, nil
}

// ReleaseNote is one entry of the "what's new" list.
type ReleaseNote struct {
	Version string   `yaml:"version" json:"version"`
	Date    string   `yaml:"date" json:"date"`
	Title   string   `yaml:"title" json:"title"`
	Items   []string `yaml:"items" json:"items"`
}

// LoadReleases reads a release-notes YAML list from path.
func LoadReleases(path string) ([]ReleaseNote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load releases %q: %w", path, err)
	}
	return ParseReleases(data)
}

// ParseReleases decodes a release-notes YAML list.
func ParseReleases(data []byte) ([]ReleaseNote, error) {
	var notes []ReleaseNote
	if err := yaml.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("parse releases: %w", err)
	}
	for i, n := range notes {
		if n.Version == "" {
			return nil, fmt.Errorf("parse releases: entry %d has no version", i)
		}
	}
	return notes, nil
}
