package facts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"confnode/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLStoreFind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web01.yaml"), []byte(`
name: web01
timestamp: 2024-05-01T10:00:00Z
values:
  hostname: web01
  domain: example.com
  processors:
    count: 4
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db01.yaml"), []byte("hostname: db01\nosfamily: Debian\n"), 0644))

	store := NewYAMLStore(dir)
	ctx := context.Background()

	t.Run("structured document", func(t *testing.T) {
		facts, err := store.Find(ctx, "web01", nil)
		require.NoError(t, err)
		require.NotNil(t, facts)
		assert.Equal(t, "web01", facts.Name)
		assert.Equal(t, "example.com", facts.Values["domain"])
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), facts.Timestamp.UTC())
	})

	t.Run("flat document", func(t *testing.T) {
		facts, err := store.Find(ctx, "db01", nil)
		require.NoError(t, err)
		require.NotNil(t, facts)
		assert.Equal(t, "Debian", facts.Values["osfamily"])
	})

	t.Run("absent", func(t *testing.T) {
		facts, err := store.Find(ctx, "missing", nil)
		require.NoError(t, err)
		assert.Nil(t, facts)
	})

	t.Run("path traversal", func(t *testing.T) {
		_, err := store.Find(ctx, "../web01", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestYAMLStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("values: [unterminated\n"), 0644))

	_, err := NewYAMLStore(dir).Find(context.Background(), "bad", nil)
	assert.Error(t, err)
}

func TestYAMLStoreSaveRoundTrip(t *testing.T) {
	store := NewYAMLStore(filepath.Join(t.TempDir(), "facts"))
	ctx := context.Background()

	in := domain.NewFacts("web01", map[string]any{"hostname": "web01", "uptime_days": 3})
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Find(ctx, "web01", nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "web01", out.Values["hostname"])
	assert.Equal(t, 3, out.Values["uptime_days"])

	assert.ErrorIs(t, store.Save(ctx, domain.NewFacts("", nil)), domain.ErrInvalidArgument)
}

func TestYAMLStoreExpiredIsAbsent(t *testing.T) {
	store := NewYAMLStore(t.TempDir())
	ctx := context.Background()

	in := domain.NewFacts("web01", map[string]any{"hostname": "web01"})
	expired := time.Now().Add(-time.Hour)
	in.Expiration = &expired
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Find(ctx, "web01", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestYAMLStoreDelete(t *testing.T) {
	store := NewYAMLStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewFacts("web01", map[string]any{"hostname": "web01"})))
	require.NoError(t, store.Delete(ctx, "web01"))

	out, err := store.Find(ctx, "web01", nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	require.NoError(t, store.Delete(ctx, "web01"))
	assert.ErrorIs(t, store.Delete(ctx, "../etc"), domain.ErrInvalidArgument)
}
