package settings

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/logging"
)

// SnapshotStore persists the endpoint settings blob. *Store satisfies it.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (config.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap config.Snapshot) error
}

// Invalidator drops cached URL resolutions.
type Invalidator interface {
	Invalidate()
}

// Manager holds the active snapshot. Settings saved through Save take
// precedence over the config file from then on.
type Manager struct {
	store       SnapshotStore
	invalidator Invalidator
	logger      *logging.Logger

	saveMu  sync.Mutex
	current atomic.Pointer[config.Snapshot]
	saved   atomic.Bool
}

// NewManager activates the stored snapshot, or fileSnap when nothing was
// saved yet.
func NewManager(ctx context.Context, store SnapshotStore, fileSnap config.Snapshot, inv Invalidator, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Manager{store: store, invalidator: inv, logger: logger}

	snap, ok, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		m.saved.Store(true)
		logger.Info("settings", "Using saved settings")
	} else {
		snap = fileSnap
	}
	m.current.Store(&snap)
	return m, nil
}

// Current returns a copy of the active snapshot.
func (m *Manager) Current() config.Snapshot {
	return *m.current.Load()
}

// Save validates and persists snap, clears the URL cache, then makes snap
// active. The cache is cleared before any caller can observe the new
// snapshot.
func (m *Manager) Save(ctx context.Context, snap config.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	if err := m.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	m.invalidator.Invalidate()
	m.current.Store(&snap)
	m.saved.Store(true)

	m.logger.Info("settings", "Settings saved",
		logging.F("server", snap.Server.URL),
		logging.F("local", snap.Server.LocalURL != ""),
		logging.F("jellyseerr", snap.Jellyseerr.Enabled))
	return nil
}

// Reload applies settings re-read from the config file. The URL cache is
// always cleared; the snapshot is replaced only when nothing was saved
// through Save.
func (m *Manager) Reload(fileSnap config.Snapshot) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.invalidator.Invalidate()
	if m.saved.Load() {
		m.logger.Debug("settings", "Config file changed, saved settings take precedence")
		return
	}
	m.current.Store(&fileSnap)
	m.logger.Info("settings", "Settings reloaded from config file")
}
