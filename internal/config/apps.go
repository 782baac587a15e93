package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Application is one entry of the preset application catalog. The URI is
// the device's opaque launch identifier and doubles as the catalog key.
type Application struct {
	DisplayName string `yaml:"display_name" json:"displayName"`
	URI         string `yaml:"uri" json:"uri"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// appsFile is the apps_config.yaml structure.
type appsFile struct {
	Applications []Application `yaml:"applications"`
}

// LoadApplications reads the preset application catalog. A missing file
// is not an error: the remote simply shows no app shortcuts.
func LoadApplications(path string, logger *zap.Logger) ([]Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("No application catalog found, app list will be empty",
				zap.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read application catalog: %w", err)
	}

	var parsed appsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse application catalog: %w", err)
	}

	for i, app := range parsed.Applications {
		if app.URI == "" {
			return nil, fmt.Errorf("application entry %d has no uri", i)
		}
	}

	logger.Info("Application catalog loaded",
		zap.String("path", path),
		zap.Int("entries", len(parsed.Applications)))
	return parsed.Applications, nil
}
