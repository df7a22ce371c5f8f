package domain

import "strings"

// Names returns the candidate names used to match this node against
// name-based rules, most specific first and without duplicates.
func (n *Node) Names() []string {
	if n.deps.Settings.StrictHostnameChecking {
		return []string{n.name}
	}

	var names []string
	if strings.Contains(n.name, ".") {
		names = append(names, SplitName(n.name)...)
	}

	fqdn := n.ParameterString("fqdn")
	if fqdn == "" {
		hostname := n.ParameterString("hostname")
		domain := n.ParameterString("domain")
		if hostname != "" && domain != "" {
			fqdn = hostname + "." + domain
		} else {
			n.deps.logger().Warn("host is missing hostname and/or domain", "node", n.name)
		}
	}
	if fqdn != "" {
		names = append(names, SplitName(fqdn)...)
	}

	first := n.ParameterString("hostname")
	if n.deps.Settings.NodeNamePolicy == NodeNameCert {
		first = n.name
	}
	if first != "" {
		names = append([]string{first}, names...)
	}

	return uniqueNames(names)
}

// SplitName expands a dotted name into its prefixes, longest first:
// "a.b.c" becomes ["a.b.c", "a.b", "a"]. Trailing dots are ignored.
func SplitName(name string) []string {
	parts := strings.Split(name, ".")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	out := make([]string, 0, len(parts))
	for i := len(parts); i > 0; i-- {
		out = append(out, strings.Join(parts[:i], "."))
	}
	return out
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
