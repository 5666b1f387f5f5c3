package backend

import (
	"log/slog"

	"github.com/valerio/go-oscillogic/oscillogic/debug"
	"github.com/valerio/go-oscillogic/oscillogic/input/action"
	"github.com/valerio/go-oscillogic/oscillogic/input/event"
)

// Backend is a presentation frontend for the running engine.
// Backends are responsible for:
// - Rendering snapshots to their specific output (terminal, files, ...)
// - Translating platform-specific input events to InputEvents
// - Handling backend-specific features (log panels, snapshot files)
type Backend interface {
	// Init configures the backend. This is a required step before calling
	// Update.
	Init(config BackendConfig) error

	// Update renders the snapshot and returns the input events collected
	// since the previous call.
	Update(snap *debug.Snapshot) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// ActionHandler is implemented by backends that handle some actions
// themselves, such as log filtering.
type ActionHandler interface {
	HandleAction(act action.Action)
}

// InputEvent is an action produced by a backend.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title     string
	LogLevel  slog.Level
	Callbacks BackendCallbacks // Callbacks for backend communication
}

// BackendCallbacks allows backends to communicate with the engine
type BackendCallbacks struct {
	// OnQuit is called when the backend requests shutdown (e.g. a signal).
	OnQuit func()
}
