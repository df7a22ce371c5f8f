package environment

import (
	"fmt"
	"os"
	"path/filepath"

	"confnode/internal/domain"

	"gopkg.in/yaml.v3"
)

// SettingsFile is the optional per-environment settings file
const SettingsFile = "environment.yaml"

// EnvironmentYAML represents the environment.yaml file structure
type EnvironmentYAML struct {
	Manifest      string         `yaml:"manifest,omitempty"`
	ModulePath    []string       `yaml:"modulepath,omitempty"`
	ConfigVersion string         `yaml:"config_version,omitempty"`
	Parameters    map[string]any `yaml:"parameters,omitempty"`
}

// LoadYAML loads an environment from its directory.
// A directory without environment.yaml yields defaults rooted at the directory.
func LoadYAML(name, dir string) (*domain.Environment, error) {
	data, err := os.ReadFile(filepath.Join(dir, SettingsFile))
	if os.IsNotExist(err) {
		return convertYAMLToEnvironment(name, dir, &EnvironmentYAML{}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s settings: %w", name, err)
	}

	return ParseYAML(name, dir, data)
}

// ParseYAML parses environment settings from YAML bytes
func ParseYAML(name, dir string, data []byte) (*domain.Environment, error) {
	var y EnvironmentYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse %s settings: %w", name, err)
	}

	return convertYAMLToEnvironment(name, dir, &y), nil
}

func convertYAMLToEnvironment(name, dir string, y *EnvironmentYAML) *domain.Environment {
	env := domain.NewEnvironment(name)
	env.ConfigVersion = y.ConfigVersion
	env.Parameters = y.Parameters

	// Relative paths are anchored at the environment directory
	env.Manifest = y.Manifest
	if env.Manifest == "" {
		env.Manifest = "manifests"
	}
	if !filepath.IsAbs(env.Manifest) {
		env.Manifest = filepath.Join(dir, env.Manifest)
	}

	modulePath := y.ModulePath
	if len(modulePath) == 0 {
		modulePath = []string{"modules"}
	}
	for _, p := range modulePath {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		env.ModulePath = append(env.ModulePath, p)
	}

	return env
}
