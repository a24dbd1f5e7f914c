package projectconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

const DefaultPath = ".chatrewind/config.yaml"

// Config carries per-project defaults for the CLI. Every field is
// optional; flags always win over config values.
type Config struct {
	StorageRoot           string         `yaml:"storage_root"`
	PhantomPolicy         string         `yaml:"phantom_policy"`
	ExtraCompletedMarkers []string       `yaml:"extra_completed_markers"`
	Report                ReportDefaults `yaml:"report"`
}

type ReportDefaults struct {
	Out string `yaml:"out"`
}

func Load(path string, allowMissing bool) (Config, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Config{}, fmt.Errorf("project config path is required")
	}

	// #nosec G304 -- project config path is explicit local user input.
	content, err := os.ReadFile(trimmedPath)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read project config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return Config{}, nil
	}

	var configuration Config
	if err := yaml.Unmarshal(content, &configuration); err != nil {
		return Config{}, fmt.Errorf("parse project config: %w", err)
	}
	configuration.normalize()
	return configuration, nil
}

func (configuration *Config) normalize() {
	configuration.StorageRoot = strings.TrimSpace(configuration.StorageRoot)
	configuration.PhantomPolicy = strings.TrimSpace(configuration.PhantomPolicy)
	configuration.Report.Out = strings.TrimSpace(configuration.Report.Out)
	markers := configuration.ExtraCompletedMarkers[:0]
	for _, marker := range configuration.ExtraCompletedMarkers {
		trimmed := strings.TrimSpace(marker)
		if trimmed != "" {
			markers = append(markers, trimmed)
		}
	}
	configuration.ExtraCompletedMarkers = markers
}
