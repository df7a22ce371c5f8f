package config

import "confnode/internal/domain"

// NodeNamePolicy selects which identity leads node name matching
type NodeNamePolicy string

const (
	NodeNameCert   NodeNamePolicy = "cert"   // Certificate name of the node
	NodeNameFacter NodeNamePolicy = "facter" // Hostname fact reported by the node
)

// ParseNodeNamePolicy converts a string to NodeNamePolicy, defaulting to NodeNameCert
func ParseNodeNamePolicy(s string) NodeNamePolicy {
	switch s {
	case "cert":
		return NodeNameCert
	case "facter":
		return NodeNameFacter
	default:
		return NodeNameCert
	}
}

// NodeTerminusType names a node record backend
type NodeTerminusType string

const (
	NodeTerminusPlain  NodeTerminusType = "plain"  // Bare node with the requested name
	NodeTerminusYAML   NodeTerminusType = "yaml"   // nodes/<name>.yaml
	NodeTerminusConsul NodeTerminusType = "consul" // Consul KV
	NodeTerminusMySQL  NodeTerminusType = "mysql"  // Inventory table
)

// ParseNodeTerminusType converts a string to NodeTerminusType, defaulting to plain
func ParseNodeTerminusType(s string) NodeTerminusType {
	switch s {
	case "yaml":
		return NodeTerminusYAML
	case "consul":
		return NodeTerminusConsul
	case "mysql":
		return NodeTerminusMySQL
	default:
		return NodeTerminusPlain
	}
}

// FactsSourceType names a facts backend
type FactsSourceType string

const (
	FactsSourceYAML   FactsSourceType = "yaml"   // facts/<name>.yaml
	FactsSourceSQLite FactsSourceType = "sqlite" // Uploaded facts database
	FactsSourceSSH    FactsSourceType = "ssh"    // Live gathering over SSH
	FactsSourceNmap   FactsSourceType = "nmap"   // Network scan
)

// Settings converts the node section into the settings nodes consult
func (c *Config) Settings() domain.Settings {
	return domain.Settings{
		StrictHostnameChecking: c.Node.StrictHostnameChecking,
		TrustedServerFacts:     c.Node.TrustedServerFacts,
		NodeNamePolicy:         domain.NodeNamePolicy(c.Node.NodeName),
		DefaultEnvironment:     c.Node.DefaultEnvironment,
	}
}
