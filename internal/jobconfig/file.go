package jobconfig

import (
	"fmt"
	"os"

	"github.com/law-makers/scrapejob/pkg/models"
	"gopkg.in/yaml.v3"
)

// jobFile is the on-disk job description. JSON documents parse too since YAML is a superset.
// "selector" is accepted as an alias of "root_selector" to match the wire format.
type jobFile struct {
	URL          string                  `yaml:"url"`
	RootSelector string                  `yaml:"root_selector"`
	Selector     string                  `yaml:"selector"`
	Fields       []models.FieldExtractor `yaml:"fields"`
}

// Parse decodes a YAML or JSON job description
func Parse(data []byte) (models.JobConfig, error) {
	var jf jobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return models.JobConfig{}, fmt.Errorf("failed to parse job description: %w", err)
	}

	cfg := models.JobConfig{
		URL:          jf.URL,
		RootSelector: jf.RootSelector,
		Fields:       jf.Fields,
	}
	if cfg.RootSelector == "" {
		cfg.RootSelector = jf.Selector
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = []models.FieldExtractor{{}}
	}
	return cfg, nil
}

// LoadFile reads a job description from path
func LoadFile(path string) (models.JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.JobConfig{}, fmt.Errorf("failed to read job file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return models.JobConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
