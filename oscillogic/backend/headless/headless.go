package headless

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/valerio/go-oscillogic/oscillogic/backend"
	"github.com/valerio/go-oscillogic/oscillogic/debug"
	"github.com/valerio/go-oscillogic/oscillogic/input/action"
	"github.com/valerio/go-oscillogic/oscillogic/input/event"
)

// Backend implements the Backend interface for automated testing and batch
// rendering. It never reads input; it quits after maxUpdates updates when
// that is positive.
type Backend struct {
	config         backend.BackendConfig
	updates        int
	maxUpdates     int
	snapshotConfig SnapshotConfig
	saved          []string
	last           *debug.Snapshot
}

// SnapshotConfig holds configuration for periodic snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save a snapshot every N updates
	Directory string // Directory to save snapshots
	Name      string // Base name for snapshot files
}

func New(maxUpdates int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		maxUpdates:     maxUpdates,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config

	slog.Info("Running headless mode",
		"updates", h.maxUpdates,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

// Update records the snapshot, saves it when due and signals quit once the
// update budget is spent.
func (h *Backend) Update(snap *debug.Snapshot) ([]backend.InputEvent, error) {
	var events []backend.InputEvent

	h.updates++
	h.last = snap

	if h.snapshotConfig.Enabled && h.updates%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(snap)
	}

	if h.updates%50 == 0 && snap != nil {
		slog.Debug("Headless progress", "updates", h.updates, "ticks", snap.Ticks, "final", snap.Final)
	}

	if h.maxUpdates > 0 && h.updates >= h.maxUpdates {
		if h.snapshotConfig.Enabled && h.updates%h.snapshotConfig.Interval != 0 {
			h.saveSnapshot(snap)
		}
		slog.Info("Headless execution completed", "updates", h.updates, "snapshots", len(h.saved))
		events = append(events, backend.InputEvent{Action: action.Quit, Type: event.Press})
	}

	return events, nil
}

func (h *Backend) Cleanup() error {
	if h.snapshotConfig.Enabled && h.last != nil {
		h.saveSnapshot(h.last)
	}
	return nil
}

// Updates returns the number of Update calls so far.
func (h *Backend) Updates() int { return h.updates }

// Saved lists the snapshot files written so far.
func (h *Backend) Saved() []string { return h.saved }

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters
func CreateSnapshotConfig(interval int, directory, name string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
		Name:     name,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "oscillogic-snapshots-*")
		if err != nil {
			return config, errors.Wrap(err, "failed to create snapshot directory")
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, errors.Wrap(err, "failed to create snapshot directory")
		}
		config.Directory = directory
	}

	if config.Name == "" {
		config.Name = "oscillogic"
	}
	return config, nil
}

func (h *Backend) saveSnapshot(snap *debug.Snapshot) {
	if snap == nil {
		return
	}
	baseName := fmt.Sprintf("%s_tick_%d", h.snapshotConfig.Name, snap.Ticks)

	path, err := debug.SaveSnapshotText(snap, baseName, h.snapshotConfig.Directory)
	if err != nil {
		slog.Error("Failed to save snapshot", "ticks", snap.Ticks, "error", err)
		return
	}
	h.saved = append(h.saved, path)

	if len(snap.Scope) > 0 {
		path, err := debug.SaveScopePNG(snap.Scope, baseName, h.snapshotConfig.Directory)
		if err != nil {
			slog.Error("Failed to save PNG snapshot", "ticks", snap.Ticks, "error", err)
			return
		}
		h.saved = append(h.saved, path)
	}
}
