// Package config provides configuration management for confnode.
//
// Config file locations (priority order):
//  1. $CONFNODE_CONFIG
//  2. ./confnode.yaml
//  3. ~/.config/confnode/config.yaml
//  4. /etc/confnode/config.yaml
//
// A .env file in the working directory is loaded first, and CONFNODE_*
// environment variables override values from the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable overrides
const (
	EnvDefaultEnvironment     = "CONFNODE_ENVIRONMENT"
	EnvStrictHostnameChecking = "CONFNODE_STRICT_HOSTNAME_CHECKING"
	EnvTrustedServerFacts     = "CONFNODE_TRUSTED_SERVER_FACTS"
	EnvNodeName               = "CONFNODE_NODE_NAME"
	EnvLogLevel               = "CONFNODE_LOG_LEVEL"
	EnvServerAddr             = "CONFNODE_ADDR"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	if err := loadDotEnv(); err != nil {
		return nil, "", fmt.Errorf("load .env: %w", err)
	}

	path := FindConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.applyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Parse decodes YAML config bytes and fills in defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8140"
	}
	c.Node.NodeName = ParseNodeNamePolicy(string(c.Node.NodeName))
	if c.Node.DefaultEnvironment == "" {
		c.Node.DefaultEnvironment = "production"
	}
	if c.Environments.Path == "" {
		c.Environments.Path = "./environments"
	}
	c.NodeTerminus.Type = ParseNodeTerminusType(string(c.NodeTerminus.Type))
	if c.NodeTerminus.YAML.Path == "" {
		c.NodeTerminus.YAML.Path = "./nodes"
	}
	if c.NodeTerminus.Consul.Prefix == "" {
		c.NodeTerminus.Consul.Prefix = "confnode/nodes/"
	}
	if len(c.FactsTerminus.Sources) == 0 {
		c.FactsTerminus.Sources = []FactsSourceType{FactsSourceYAML}
	}
	if c.FactsTerminus.YAML.Path == "" {
		c.FactsTerminus.YAML.Path = "./facts"
	}
	if c.FactsTerminus.SQLite.Path == "" {
		c.FactsTerminus.SQLite.Path = "./confnode.db"
	}
	if c.FactsTerminus.SSH.Port == 0 {
		c.FactsTerminus.SSH.Port = 22
	}
	if c.FactsTerminus.Nmap.Ports == "" {
		c.FactsTerminus.Nmap.Ports = "22,80,443,5432,8140"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	for _, src := range c.FactsTerminus.Sources {
		switch src {
		case FactsSourceYAML, FactsSourceSQLite, FactsSourceSSH, FactsSourceNmap:
		default:
			return fmt.Errorf("unknown facts source %q", src)
		}
	}
	if c.NodeTerminus.Type == NodeTerminusMySQL && c.NodeTerminus.MySQL.DSN == "" {
		return fmt.Errorf("node_terminus.mysql.dsn is required for the mysql terminus")
	}
	if c.FactsTerminus.Cache != nil && c.FactsTerminus.Cache.Addr == "" {
		return fmt.Errorf("facts_terminus.cache.addr is required when the cache is enabled")
	}
	return nil
}

// applyEnv applies CONFNODE_* overrides
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDefaultEnvironment); v != "" {
		c.Node.DefaultEnvironment = v
	}
	if v := os.Getenv(EnvNodeName); v != "" {
		c.Node.NodeName = ParseNodeNamePolicy(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
	if err := envBool(EnvStrictHostnameChecking, &c.Node.StrictHostnameChecking); err != nil {
		return err
	}
	return envBool(EnvTrustedServerFacts, &c.Node.TrustedServerFacts)
}

func envBool(key string, target *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Node terminus: %s, Facts sources: %v\n", c.NodeTerminus.Type, c.FactsTerminus.Sources)
	summary += fmt.Sprintf("Default environment: %s (%s), node_name: %s\n",
		c.Node.DefaultEnvironment, c.Environments.Path, c.Node.NodeName)
	summary += fmt.Sprintf("Strict hostname checking: %v, Trusted server facts: %v",
		c.Node.StrictHostnameChecking, c.Node.TrustedServerFacts)
	return summary
}
