package facts

import (
	"testing"
	"time"

	"confnode/internal/logging"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNmapScannerOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		n := NewNmapScanner(logging.NewNop())
		assert.Equal(t, "nmap", n.Name())
		assert.True(t, n.serviceDetection)
		assert.Equal(t, defaultScanTimeout, n.timeout)
	})

	t.Run("WithPortRange", func(t *testing.T) {
		n := NewNmapScanner(nil, WithPortRange("22,8000-8100"))
		assert.Equal(t, "22,8000-8100", n.portRange)
	})

	t.Run("WithPortRange invalid keeps default", func(t *testing.T) {
		n := NewNmapScanner(nil, WithPortRange("22,99999"))
		assert.Equal(t, "22,80,443,5432,8140", n.portRange)
	})

	t.Run("WithFastScan", func(t *testing.T) {
		n := NewNmapScanner(nil, WithFastScan())
		assert.False(t, n.serviceDetection)
		assert.Equal(t, 30*time.Second, n.timeout)
	})

	t.Run("WithTimeout ignores zero", func(t *testing.T) {
		n := NewNmapScanner(nil, WithTimeout(0))
		assert.Equal(t, defaultScanTimeout, n.timeout)
	})
}

func TestParsePorts(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"80", false},
		{"22,80,443", false},
		{"1-1024", false},
		{"22, 80-443, 8080", false},
		{"", true},
		{"0", true},
		{"80-22", true},
		{"http", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parsePorts(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFactsFromRun(t *testing.T) {
	run := &nmap.Run{
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.9", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "down"},
			},
			{
				Addresses: []nmap.Address{
					{Addr: "10.0.0.5", AddrType: "ipv4"},
					{Addr: "AA:BB:CC:DD:EE:FF", AddrType: "mac", Vendor: "Test Vendor"},
				},
				Hostnames: []nmap.Hostname{{Name: "web01.example.com"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{
						ID:       22,
						Protocol: "tcp",
						State:    nmap.State{State: "open"},
						Service:  nmap.Service{Name: "ssh", Product: "OpenSSH", Version: "9.2"},
					},
					{
						ID:       8140,
						Protocol: "tcp",
						State:    nmap.State{State: "open"},
					},
					{
						ID:       443,
						Protocol: "tcp",
						State:    nmap.State{State: "closed"},
					},
				},
			},
		},
	}

	facts := factsFromRun(run)
	require.NotNil(t, facts)
	assert.Equal(t, "10.0.0.5", facts["ipaddress"])
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", facts["macaddress"])
	assert.Equal(t, "Test Vendor", facts["mac_vendor"])
	assert.Equal(t, "web01.example.com", facts["reverse_dns"])
	assert.Equal(t, []any{22, 8140}, facts["open_ports"])
	assert.Equal(t, []any{
		map[string]any{"port": 22, "service": "ssh", "banner": "OpenSSH 9.2"},
		map[string]any{"port": 8140, "service": "puppet"},
	}, facts["services"])
}

func TestFactsFromRunNoHosts(t *testing.T) {
	assert.Nil(t, factsFromRun(nil))
	assert.Nil(t, factsFromRun(&nmap.Run{}))
	assert.Nil(t, factsFromRun(&nmap.Run{Hosts: []nmap.Host{{Status: nmap.Status{State: "up"}}}}))
}
