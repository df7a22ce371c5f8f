package facts

import (
	"fmt"
	"strings"
)

// FactCommand defines a command to run over SSH for fact gathering
type FactCommand struct {
	Name    string                                      // e.g., "os_release"
	Command string                                      // e.g., "cat /etc/os-release"
	Parser  func(output string) (map[string]any, error) // Parse command output into facts
}

// DefaultFactCommands are the standard fact-gathering commands
var DefaultFactCommands = []FactCommand{
	{
		Name:    "hostname",
		Command: "hostname -f 2>/dev/null || hostname",
		Parser:  parseHostname,
	},
	{
		Name:    "os_release",
		Command: "cat /etc/os-release 2>/dev/null",
		Parser:  parseOSRelease,
	},
	{
		Name:    "uname",
		Command: "uname -srm",
		Parser:  parseUname,
	},
	{
		Name:    "ipaddress",
		Command: "hostname -I 2>/dev/null",
		Parser:  parseIPAddresses,
	},
}

// parseHostname splits `hostname -f` into hostname, domain and fqdn
func parseHostname(output string) (map[string]any, error) {
	name := strings.TrimSuffix(strings.TrimSpace(output), ".")
	if name == "" {
		return nil, fmt.Errorf("empty hostname")
	}

	facts := map[string]any{
		"hostname": name,
	}

	if idx := strings.Index(name, "."); idx > 0 {
		facts["hostname"] = name[:idx]
		facts["domain"] = name[idx+1:]
		facts["fqdn"] = name
	}

	return facts, nil
}

// parseOSRelease parses /etc/os-release
// Format: KEY=value or KEY="value"
func parseOSRelease(output string) (map[string]any, error) {
	if strings.TrimSpace(output) == "" {
		return nil, fmt.Errorf("empty os-release output")
	}

	osInfo := make(map[string]any)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		osInfo[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), "\"'")
	}

	if len(osInfo) == 0 {
		return nil, fmt.Errorf("no OS information found")
	}

	facts := map[string]any{
		"os_release": osInfo,
	}
	for key, fact := range map[string]string{
		"NAME":        "os_name",
		"ID":          "os_family",
		"VERSION_ID":  "os_version",
		"PRETTY_NAME": "os_pretty_name",
	} {
		if v, ok := osInfo[key]; ok {
			facts[fact] = v
		}
	}

	return facts, nil
}

// parseUname parses `uname -srm`
// Format: Linux 5.15.0-76-generic x86_64
func parseUname(output string) (map[string]any, error) {
	parts := strings.Fields(output)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid uname output format")
	}

	return map[string]any{
		"kernel":        parts[0],
		"kernelrelease": parts[1],
		"architecture":  parts[len(parts)-1],
	}, nil
}

// parseIPAddresses parses `hostname -I`; the first address becomes ipaddress
func parseIPAddresses(output string) (map[string]any, error) {
	addrs := strings.Fields(output)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses reported")
	}

	all := make([]any, len(addrs))
	for i, a := range addrs {
		all[i] = a
	}
	return map[string]any{
		"ipaddress":   addrs[0],
		"ipaddresses": all,
	}, nil
}
