package config

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "CONFNODE_CONFIG"
	// ConfigFileName is the config file looked up in the working directory
	ConfigFileName = "confnode.yaml"
	// ConfigDirName is the per-user and system config directory name
	ConfigDirName = "confnode"
)

// ErrConfigExists is returned by Init when the target file is present
var ErrConfigExists = errors.New("config file already exists")

// SearchPaths lists the config file candidates in lookup order:
// $CONFNODE_CONFIG, ./confnode.yaml, $XDG_CONFIG_HOME/confnode/config.yaml,
// ~/.config/confnode/config.yaml and /etc/confnode/config.yaml.
// Unset variables contribute no candidate.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ConfigFileName)
	paths = append(paths, userConfigPaths()...)
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

func userConfigPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return paths
}

// FindConfigPath returns the first existing candidate of SearchPaths,
// or "" when there is none
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if !fileExists(p) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

// DefaultConfigPath is where Init writes when no path is given: the
// first per-user location, else ./confnode.yaml
func DefaultConfigPath() string {
	if paths := userConfigPaths(); len(paths) > 0 {
		return paths[0]
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory that will hold configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

// Init writes the default config to path (DefaultConfigPath when empty)
// and returns the path written. An existing file is kept unless force
// is set.
func Init(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if !force && fileExists(path) {
		return path, ErrConfigExists
	}
	return path, DefaultConfig().Save(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
