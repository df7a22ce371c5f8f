package terminus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"confnode/internal/config"
	"confnode/internal/domain"
	"confnode/internal/environment"
	"confnode/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps() domain.Deps {
	return domain.Deps{
		Settings: domain.DefaultSettings(),
		Environments: environment.NewStaticRegistry(
			domain.NewEnvironment("production"),
			domain.NewEnvironment("staging"),
		),
		Logger: logging.NewNop(),
	}
}

func TestPlain(t *testing.T) {
	p := NewPlain(testDeps())

	node, err := p.Find(context.Background(), Request{Name: "web01", Environment: "staging"})
	require.NoError(t, err)
	assert.Equal(t, "web01", node.Name())
	assert.Equal(t, "plain", node.Source)
	assert.Empty(t, node.Classes())
	assert.Empty(t, node.Parameters())
	assert.Equal(t, "", node.EnvironmentName())
}

func TestYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web01.yaml"), []byte(`
environment: staging
classes: [base, nginx]
parameters:
  role: web
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db01.yaml"), []byte("classes: postgres\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("environment: qa\n"), 0644))

	y := NewYAML(dir, testDeps())
	ctx := context.Background()

	t.Run("full record", func(t *testing.T) {
		node, err := y.Find(ctx, Request{Name: "web01"})
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, []string{"base", "nginx"}, node.Classes())
		assert.Equal(t, "web", node.Parameters()["role"])
		assert.Equal(t, "staging", node.EnvironmentName())
		assert.True(t, node.HasEnvironmentInstance())
		assert.Equal(t, "yaml", node.Source)
	})

	t.Run("single class string", func(t *testing.T) {
		node, err := y.Find(ctx, Request{Name: "db01"})
		require.NoError(t, err)
		assert.Equal(t, []string{"postgres"}, node.Classes())
	})

	t.Run("absent", func(t *testing.T) {
		node, err := y.Find(ctx, Request{Name: "ghost"})
		require.NoError(t, err)
		assert.Nil(t, node)
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := y.Find(ctx, Request{Name: "bad"})
		assert.ErrorIs(t, err, domain.ErrEnvironmentNotFound)
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := y.Find(ctx, Request{Name: "../etc/passwd"})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestYAMLSaveRoundTrip(t *testing.T) {
	deps := testDeps()
	y := NewYAML(t.TempDir(), deps)
	ctx := context.Background()

	node, err := domain.NewNode("app01", deps,
		domain.WithClasses("base"),
		domain.WithParameters(map[string]any{"tier": "gold"}),
		domain.WithEnvironmentName("staging"))
	require.NoError(t, err)
	require.NoError(t, y.Save(ctx, node))

	loaded, err := y.Find(ctx, Request{Name: "app01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, loaded.Classes())
	assert.Equal(t, "gold", loaded.Parameters()["tier"])
	assert.Equal(t, "staging", loaded.EnvironmentName())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.NodeTerminusConfig
		wantName string
		wantErr  bool
	}{
		{"plain", config.NodeTerminusConfig{Type: config.NodeTerminusPlain}, "plain", false},
		{"default", config.NodeTerminusConfig{}, "plain", false},
		{"yaml", config.NodeTerminusConfig{Type: config.NodeTerminusYAML, YAML: config.YAMLSource{Path: t.TempDir()}}, "yaml", false},
		{"consul", config.NodeTerminusConfig{Type: config.NodeTerminusConsul, Consul: config.ConsulConfig{Address: "127.0.0.1:8500"}}, "consul", false},
		{"unknown", config.NodeTerminusConfig{Type: "ldap"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, err := New(tt.cfg, testDeps(), logging.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, term.Name())
		})
	}
}
