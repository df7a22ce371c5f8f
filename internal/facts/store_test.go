package facts

import (
	"path/filepath"
	"testing"

	"confnode/internal/config"
	"confnode/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		cfg      config.FactsTerminusConfig
		wantName string
		wantErr  bool
	}{
		{
			name:     "yaml only",
			cfg:      config.FactsTerminusConfig{Sources: []config.FactsSourceType{config.FactsSourceYAML}, YAML: config.YAMLSource{Path: dir}},
			wantName: "yaml",
		},
		{
			name: "yaml then nmap",
			cfg: config.FactsTerminusConfig{
				Sources: []config.FactsSourceType{config.FactsSourceYAML, config.FactsSourceNmap},
				YAML:    config.YAMLSource{Path: dir},
				Nmap:    config.NmapConfig{Ports: "22"},
			},
			wantName: "chain(yaml,nmap)",
		},
		{
			name: "sqlite",
			cfg: config.FactsTerminusConfig{
				Sources: []config.FactsSourceType{config.FactsSourceSQLite},
				SQLite:  config.SQLiteConfig{Path: filepath.Join(dir, "facts.db")},
			},
			wantName: "sqlite",
		},
		{
			name: "cached",
			cfg: config.FactsTerminusConfig{
				Sources: []config.FactsSourceType{config.FactsSourceYAML},
				YAML:    config.YAMLSource{Path: dir},
				Cache:   &config.CacheConfig{Addr: "127.0.0.1:0"},
			},
			wantName: "redis(yaml)",
		},
		{
			name:    "no sources",
			cfg:     config.FactsTerminusConfig{},
			wantErr: true,
		},
		{
			name:    "ssh without credentials",
			cfg:     config.FactsTerminusConfig{Sources: []config.FactsSourceType{config.FactsSourceSSH}, SSH: config.SSHConfig{User: "deploy"}},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     config.FactsTerminusConfig{Sources: []config.FactsSourceType{"ldap"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(tt.cfg, logging.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { Close(store) })
			assert.Equal(t, tt.wantName, store.Name())
		})
	}
}
