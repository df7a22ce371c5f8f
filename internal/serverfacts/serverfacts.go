// Package serverfacts gathers the facts the server injects into every node.
package serverfacts

import (
	"net"
	"os"
	"sync"
)

// Version is the server version reported as serverversion.
// Overridden at build time with -ldflags.
var Version = "dev"

// Gatherer computes server facts once and returns copies thereafter
type Gatherer struct {
	name  string
	host Host

	once  sync.Once
	facts map[string]any
}

// New creates a gatherer. A non-empty name overrides the hostname.
func New(name string) *Gatherer {
	return &Gatherer{name: name, host: RealHost()}
}

// WithHost replaces the host reader
func (g *Gatherer) WithHost(p Host) *Gatherer {
	g.host = p
	return g
}

// Facts returns a fresh copy of the server facts
func (g *Gatherer) Facts() map[string]any {
	g.once.Do(func() {
		g.facts = g.gather()
	})

	out := make(map[string]any, len(g.facts))
	for k, v := range g.facts {
		out[k] = v
	}
	return out
}

func (g *Gatherer) gather() map[string]any {
	facts := map[string]any{
		"serverversion": Version,
	}

	name := g.name
	if name == "" {
		if host, err := os.Hostname(); err == nil {
			name = host
		}
	}
	if name != "" {
		facts["servername"] = name
	}
	if ip := primaryIPv4(); ip != "" {
		facts["serverip"] = ip
	}

	d := g.host.Detect()
	facts["server_runtime"] = map[string]any{
		"type":      string(d.Type),
		"container": string(d.Container),
		"arch":      d.Arch,
	}
	return facts
}

// primaryIPv4 returns the first non-loopback IPv4 address
func primaryIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}
