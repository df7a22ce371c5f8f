package facts

import "time"

// NmapOption is a functional option for configuring NmapScanner
type NmapOption func(*NmapScanner)

// WithTimeout sets the timeout for a single scan
func WithTimeout(d time.Duration) NmapOption {
	return func(n *NmapScanner) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithPortRange sets the ports to scan
// Format: "80,443,8080" or "1-1000" or "22,80-443,8080"
func WithPortRange(ports string) NmapOption {
	return func(n *NmapScanner) {
		if validated, err := parsePorts(ports); err == nil {
			n.portRange = validated
		}
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) NmapOption {
	return func(n *NmapScanner) {
		n.serviceDetection = enabled
	}
}

// WithSkipHostDiscovery treats the node as online without pinging it (-Pn)
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(n *NmapScanner) {
		n.skipHostDiscovery = skip
	}
}

// WithFastScan scans a handful of ports without service detection
func WithFastScan() NmapOption {
	return func(n *NmapScanner) {
		n.portRange = "22,80,443"
		n.serviceDetection = false
		n.timeout = 30 * time.Second
	}
}
