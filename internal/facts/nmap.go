package facts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"confnode/internal/domain"

	nmap "github.com/Ullaakut/nmap/v3"
)

const defaultScanTimeout = 2 * time.Minute

// Common service ports with their typical service names
var wellKnownPorts = map[int]string{
	21:   "ftp",
	22:   "ssh",
	25:   "smtp",
	53:   "dns",
	80:   "http",
	443:  "https",
	3306: "mysql",
	5432: "postgres",
	6379: "redis",
	8140: "puppet",
	8500: "consul",
	9100: "node-exporter",
}

// PortInfo describes one open port on a scanned node
type PortInfo struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
	Banner  string `json:"banner,omitempty"`
}

// NmapScanner derives facts from a network scan of the node
type NmapScanner struct {
	timeout           time.Duration
	portRange         string
	serviceDetection  bool
	skipHostDiscovery bool
	logger            *slog.Logger
}

// NewNmapScanner creates a scanner
func NewNmapScanner(logger *slog.Logger, opts ...NmapOption) *NmapScanner {
	if logger == nil {
		logger = slog.Default()
	}
	n := &NmapScanner{
		timeout:          defaultScanTimeout,
		portRange:        "22,80,443,5432,8140",
		serviceDetection: true,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the store identifier
func (n *NmapScanner) Name() string {
	return "nmap"
}

// Find scans name. A host that is down yields no facts.
func (n *NmapScanner) Find(ctx context.Context, name string, env *domain.Environment) (*domain.Facts, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(name),
		nmap.WithPorts(n.portRange),
	}
	if n.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if n.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	n.logger.Debug("nmap scan started", "node", name, "ports", n.portRange)
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		n.logger.Warn("nmap warnings", "node", name, "warnings", *warnings)
	}

	values := factsFromRun(result)
	if values == nil {
		return nil, nil
	}
	return domain.NewFacts(name, values), nil
}

// factsFromRun converts the first host that is up into facts
func factsFromRun(result *nmap.Run) map[string]any {
	if result == nil {
		return nil
	}

	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 || host.Status.State != "up" {
			continue
		}
		return factsFromHost(host)
	}
	return nil
}

func factsFromHost(host nmap.Host) map[string]any {
	facts := make(map[string]any)

	for _, addr := range host.Addresses {
		switch addr.AddrType {
		case "ipv4":
			if _, ok := facts["ipaddress"]; !ok {
				facts["ipaddress"] = addr.Addr
			}
		case "ipv6":
			if _, ok := facts["ipaddress6"]; !ok {
				facts["ipaddress6"] = addr.Addr
			}
		case "mac":
			facts["macaddress"] = strings.ToLower(addr.Addr)
			if addr.Vendor != "" {
				facts["mac_vendor"] = addr.Vendor
			}
		}
	}
	if _, ok := facts["ipaddress"]; !ok {
		facts["ipaddress"] = host.Addresses[0].Addr
	}

	if len(host.Hostnames) > 0 {
		facts["reverse_dns"] = host.Hostnames[0].Name
	}

	var open []any
	var services []any
	for _, port := range host.Ports {
		if port.State.State != "open" {
			continue
		}
		open = append(open, int(port.ID))
		services = append(services, portDetails(port))
	}
	if len(open) > 0 {
		facts["open_ports"] = open
		facts["services"] = services
	}

	return facts
}

// portDetails renders a port as a plain map so it survives sanitizing
func portDetails(port nmap.Port) map[string]any {
	info := PortInfo{Port: int(port.ID), Service: port.Service.Name}
	if info.Service == "" {
		info.Service = wellKnownPorts[info.Port]
		if info.Service == "" {
			info.Service = fmt.Sprintf("unknown-%d", info.Port)
		}
	}
	if port.Service.Product != "" {
		info.Banner = port.Service.Product
		if port.Service.Version != "" {
			info.Banner += " " + port.Service.Version
		}
		if port.Service.ExtraInfo != "" {
			info.Banner += " (" + port.Service.ExtraInfo + ")"
		}
	}

	out := map[string]any{
		"port":    info.Port,
		"service": info.Service,
	}
	if info.Banner != "" {
		out["banner"] = info.Banner
	}
	return out
}

// parsePorts validates a port range string
// Supported: "80,443,8080" or "1-1000" or "22,80-443,8080"
func parsePorts(portRange string) (string, error) {
	if strings.TrimSpace(portRange) == "" {
		return "", fmt.Errorf("empty port range")
	}
	for _, part := range strings.Split(portRange, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", lo)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", hi)
			}
			continue
		}
		port, err := strconv.Atoi(part)
		if err != nil || port < 1 || port > 65535 {
			return "", fmt.Errorf("invalid port number: %s", part)
		}
	}
	return portRange, nil
}
