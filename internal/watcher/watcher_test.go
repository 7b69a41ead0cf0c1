package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesWritesToTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0600))

	events := make(chan FileEvent, 10)
	w, err := NewWatcher(target, HandlerFunc(func(e FileEvent) error {
		events <- e
		return nil
	}), WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// unrelated file in the same directory
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte('b' + i)}, 0600))
	}

	select {
	case e := <-events:
		assert.Equal(t, target, e.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case e := <-events:
		t.Fatalf("expected a single debounced event, got another: %+v", e)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestNewWatcher_CreatesMissingDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	w, err := NewWatcher(target, HandlerFunc(func(FileEvent) error { return nil }))
	require.NoError(t, err)
	defer w.Close()

	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEventType(t *testing.T) {
	assert.Equal(t, EventCreate, eventType(fsnotify.Create))
	assert.Equal(t, EventWrite, eventType(fsnotify.Write))
	assert.Equal(t, EventMove, eventType(fsnotify.Rename))
	assert.Equal(t, EventDelete, eventType(fsnotify.Remove))
}
