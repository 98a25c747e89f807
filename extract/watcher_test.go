package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherEmitsDebouncedEvent(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher([]string{dir}, WatchConfig{DebounceDelay: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(dir, "runbook.md")
	require.NoError(t, os.WriteFile(path, []byte("# Rollback\n"), 0o644))

	select {
	case event := <-w.Events():
		require.Len(t, event.Paths, 1)
		assert.Equal(t, path, event.Paths[0])
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher([]string{dir}, WatchConfig{DebounceDelay: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "binary.bin"), []byte{0x01}, 0o644))

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected event: %v", event.Paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSuppressesUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("same content\n"), 0o644))

	w, err := NewWatcher([]string{dir}, DefaultWatchConfig())
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.True(t, w.contentChanged(path))
	assert.False(t, w.contentChanged(path))

	require.NoError(t, os.WriteFile(path, []byte("new content\n"), 0o644))
	assert.True(t, w.contentChanged(path))
}

func TestWatcherMissingRoot(t *testing.T) {
	w, err := NewWatcher([]string{"/nonexistent/catchfish-test"}, DefaultWatchConfig())
	require.NoError(t, err)
	defer w.watcher.Close()

	err = w.Start(context.Background())
	require.Error(t, err)
}

func TestDefaultWatchConfig(t *testing.T) {
	cfg := DefaultWatchConfig()
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDelay)
	assert.Contains(t, cfg.Extensions, ".md")
	assert.Contains(t, cfg.ExcludeDirs, ".git")
}
