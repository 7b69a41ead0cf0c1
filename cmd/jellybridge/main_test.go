package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/settings"
	"github.com/Nomadcxx/jellybridge/internal/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func TestCheckFlags_Payload(t *testing.T) {
	f := checkFlags{series: "Dark", season: 1, episode: 3, year: 2017}

	detected, err := f.payload(media.TypeEpisode).Parse()
	require.NoError(t, err)
	assert.Equal(t, media.Episode{SeriesTitle: "Dark", SeasonNumber: 1, EpisodeNumber: 3, Year: 2017}, detected)

	_, err = checkFlags{}.payload(media.TypeMovie).Parse()
	assert.Error(t, err)
}

func TestVerdictErr(t *testing.T) {
	assert.NoError(t, verdictErr(media.Unconfigured{}))
	assert.NoError(t, verdictErr(media.Unavailable{}))
	assert.NoError(t, verdictErr(media.Partial{Details: "Season 2 not found, but series exists"}))
	assert.NoError(t, verdictErr(media.Available{}))

	err := verdictErr(media.Failed{Message: "Server not reachable"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Server not reachable")
}

func TestReloadHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := config.DefaultConfig()
	cfg.Server.URL = "https://jf.example"
	cfg.Server.APIKey = "key"
	require.NoError(t, cfg.SaveTo(path))

	store, err := settings.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	inv := &countingInvalidator{}
	manager, err := settings.NewManager(context.Background(), store, config.Snapshot{}, inv, logging.Nop())
	require.NoError(t, err)

	h := reloadHandler(path, manager, logging.Nop())
	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventWrite, Path: path}))

	assert.Equal(t, 1, inv.n)
	assert.Equal(t, "https://jf.example", manager.Current().Server.URL)

	require.NoError(t, h.HandleFileEvent(watcher.FileEvent{Type: watcher.EventDelete, Path: path}))
	assert.Equal(t, 1, inv.n)
}

func TestReloadHandler_AppliesLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"
	require.NoError(t, cfg.SaveTo(path))

	store, err := settings.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	manager, err := settings.NewManager(context.Background(), store, config.Snapshot{}, &countingInvalidator{}, logging.Nop())
	require.NoError(t, err)

	logger := logging.NewWriter(io.Discard, logging.LevelInfo)
	require.NoError(t, reloadHandler(path, manager, logger).HandleFileEvent(watcher.FileEvent{Type: watcher.EventWrite, Path: path}))
	assert.Equal(t, logging.LevelWarn, logger.GetLevel())
}

func TestReloadHandler_InvalidFileKeepsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nurl = \"ftp://nope\"\n"), 0600))

	store, err := settings.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	inv := &countingInvalidator{}
	start := config.Snapshot{Server: config.ServerConfig{URL: "https://jf.example", APIKey: "k"}}
	manager, err := settings.NewManager(context.Background(), store, start, inv, logging.Nop())
	require.NoError(t, err)

	err = reloadHandler(path, manager, logging.Nop()).HandleFileEvent(watcher.FileEvent{Type: watcher.EventWrite, Path: path})
	assert.Error(t, err)
	assert.Equal(t, 0, inv.n)
	assert.Equal(t, start, manager.Current())
}
