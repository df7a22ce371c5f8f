package domain

import (
	"log/slog"
)

// NodeNamePolicy selects which identity leads the candidate name list
type NodeNamePolicy string

const (
	// NodeNameCert uses the certificate name of the node
	NodeNameCert NodeNamePolicy = "cert"
	// NodeNameFacter uses the hostname fact reported by the node
	NodeNameFacter NodeNamePolicy = "facter"
)

// Settings are the process-wide switches a node consults
type Settings struct {
	StrictHostnameChecking bool
	TrustedServerFacts     bool
	NodeNamePolicy         NodeNamePolicy
	DefaultEnvironment     string
}

// DefaultSettings mirrors a freshly installed server
func DefaultSettings() Settings {
	return Settings{
		NodeNamePolicy:     NodeNameCert,
		DefaultEnvironment: "production",
	}
}

// TrustedSink receives server facts when trusted server facts are enabled
type TrustedSink interface {
	RecordServerFacts(node string, facts map[string]any)
}

// Deps carries the settings and collaborators a node needs.
// A zero Deps is usable for nodes that never resolve an environment.
type Deps struct {
	Settings     Settings
	Environments EnvironmentRegistry
	Trusted      TrustedSink
	Logger       *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
