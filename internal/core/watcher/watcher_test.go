package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.Nil(t, w)
}

func startWatcher(t *testing.T, files ...string) <-chan []string {
	t.Helper()
	changed := make(chan []string, 10)
	w, err := NewWatcher(50*time.Millisecond, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Watch(files))
	return changed
}

func TestWatcher_ReportsTargetChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "snapshot.toml")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0o644))
	changed := startWatcher(t, target)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("b"), 0o644))

	select {
	case paths := <-changed:
		assert.Equal(t, []string{target}, paths)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatcher_IgnoresUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "snapshot.toml")
	require.NoError(t, os.WriteFile(target, []byte("same"), 0o644))
	changed := startWatcher(t, target)

	require.NoError(t, os.WriteFile(target, []byte("same"), 0o644))
	select {
	case paths := <-changed:
		t.Fatalf("unexpected change %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(target, []byte("different"), 0o644))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "snapshot.toml")
	require.NoError(t, os.WriteFile(target, []byte("0"), 0o644))
	changed := startWatcher(t, target)

	for i := 1; i <= 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte('0' + i)}, 0o644))
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	select {
	case paths := <-changed:
		t.Fatalf("expected a single batch, got another %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}
