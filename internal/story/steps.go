package story

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/calles-genero/app/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/steps.yaml
var stepsYAML []byte

// StepsConfig is the narrative table as stored in YAML.
type StepsConfig struct {
	Steps []models.StoryStep `yaml:"steps"`
}

// DefaultSteps returns the built-in narrative table.
func DefaultSteps() ([]models.StoryStep, error) {
	return ParseSteps(stepsYAML)
}

// ParseSteps decodes a narrative table.
func ParseSteps(data []byte) ([]models.StoryStep, error) {
	var cfg StepsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse story steps: %w", err)
	}
	if len(cfg.Steps) == 0 {
		return nil, fmt.Errorf("parse story steps: no steps defined")
	}
	return cfg.Steps, nil
}

// LoadSteps reads the table from path, falling back to the built-in table
// when path is empty.
func LoadSteps(path string) ([]models.StoryStep, error) {
	if path == "" {
		return DefaultSteps()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story steps %s: %w", path, err)
	}
	return ParseSteps(b)
}
