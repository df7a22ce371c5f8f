package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version       int                 `yaml:"version"`
	Server        ServerConfig        `yaml:"server"`
	Node          NodeConfig          `yaml:"node"`
	Environments  EnvironmentsConfig  `yaml:"environments"`
	NodeTerminus  NodeTerminusConfig  `yaml:"node_terminus"`
	FactsTerminus FactsTerminusConfig `yaml:"facts_terminus"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Name overrides the detected server name reported in server facts
	Name string `yaml:"name,omitempty"`
}

// NodeConfig holds the process-wide settings every node consults
type NodeConfig struct {
	StrictHostnameChecking bool           `yaml:"strict_hostname_checking"`
	TrustedServerFacts     bool           `yaml:"trusted_server_facts"`
	NodeName               NodeNamePolicy `yaml:"node_name"`
	DefaultEnvironment     string         `yaml:"default_environment"`
}

// EnvironmentsConfig locates environment directories
type EnvironmentsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// NodeTerminusConfig selects where node records come from
type NodeTerminusConfig struct {
	Type   NodeTerminusType `yaml:"type"`
	YAML   YAMLSource       `yaml:"yaml,omitempty"`
	Consul ConsulConfig     `yaml:"consul,omitempty"`
	MySQL  MySQLConfig      `yaml:"mysql,omitempty"`
}

// FactsTerminusConfig selects where facts come from.
// Sources are consulted in order; earlier sources win per fact.
type FactsTerminusConfig struct {
	Sources []FactsSourceType `yaml:"sources"`
	YAML    YAMLSource        `yaml:"yaml,omitempty"`
	SQLite  SQLiteConfig      `yaml:"sqlite,omitempty"`
	SSH     SSHConfig         `yaml:"ssh,omitempty"`
	Nmap    NmapConfig        `yaml:"nmap,omitempty"`
	Cache   *CacheConfig      `yaml:"cache,omitempty"`
}

// YAMLSource is a directory of <name>.yaml files
type YAMLSource struct {
	Path string `yaml:"path"`
}

// ConsulConfig holds Consul KV settings
type ConsulConfig struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix"`
	Token   string `yaml:"token,omitempty"`
}

// MySQLConfig holds the node inventory database settings
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// SQLiteConfig holds the facts database settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SSHConfig holds credentials for live fact gathering.
// Key and password are references to files, not values.
type SSHConfig struct {
	User         string    `yaml:"user"`
	Port         int       `yaml:"port"`
	KeyPath      *string   `yaml:"key_path,omitempty"`
	PasswordPath *string   `yaml:"password_path,omitempty"`
	Timeout      *Duration `yaml:"timeout,omitempty"`
}

// NmapConfig holds network scan settings
type NmapConfig struct {
	Ports            string    `yaml:"ports"`
	ServiceDetection bool      `yaml:"service_detection"`
	Timeout          *Duration `yaml:"timeout,omitempty"`
}

// CacheConfig holds the Redis facts cache settings
type CacheConfig struct {
	Addr     string    `yaml:"addr"`
	Password string    `yaml:"password,omitempty"`
	DB       int       `yaml:"db"`
	TTL      *Duration `yaml:"ttl,omitempty"`
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DurationOr returns the wrapped duration, or def when d is nil
func DurationOr(d *Duration, def time.Duration) time.Duration {
	if d == nil {
		return def
	}
	return d.Duration()
}
