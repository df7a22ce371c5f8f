package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"confnode/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

func TestWatcherInvalidatesOnChange(t *testing.T) {
	root := t.TempDir()
	envDir := filepath.Join(root, "production")
	require.NoError(t, os.MkdirAll(envDir, 0755))

	target := &countingInvalidator{}
	w := ForRegistry(root, target, nil, logging.NewNop()).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(envDir, "environment.yaml"), []byte("config_version: x\n"), 0644))

	assert.Eventually(t, func() bool {
		return target.calls.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), func(string) {}, logging.NewNop())
	err := w.Watch(context.Background())
	assert.Error(t, err)
}
