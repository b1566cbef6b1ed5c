package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/doc-intelligence/internal/models"
)

// LoadProcessorOptions parses a YAML mapping into processor options.
// An empty path yields empty options.
func LoadProcessorOptions(path string) (models.Options, error) {
	if path == "" {
		return models.Options{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read processor config: %w", err)
	}

	opts := models.Options{}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("failed to parse processor config %s: %w", path, err)
	}
	return opts, nil
}
