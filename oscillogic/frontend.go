package oscillogic

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/go-oscillogic/oscillogic/backend"
	"github.com/valerio/go-oscillogic/oscillogic/debug"
	"github.com/valerio/go-oscillogic/oscillogic/input"
	"github.com/valerio/go-oscillogic/oscillogic/input/event"
)

// DefaultFrameInterval is the refresh period of the frontend, about 30 Hz.
const DefaultFrameInterval = time.Second / 30

// FrontendConfig configures RunFrontend.
type FrontendConfig struct {
	Title         string
	LogLevel      slog.Level
	FrameInterval time.Duration
	// SnapshotDir receives files written by the Snapshot action. Empty means
	// the current directory.
	SnapshotDir string
	// SnapshotName is the base name of snapshot files.
	SnapshotName string
}

// Frontend runs an engine behind a backend: the engine ticks in its own
// goroutines while the frontend renders snapshots and dispatches input at
// the frame interval.
type Frontend struct {
	engine     *Engine
	backend    backend.Backend
	controller *Controller
	cfg        FrontendConfig

	frames int
}

func NewFrontend(e *Engine, b backend.Backend, cfg FrontendConfig) *Frontend {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.SnapshotName == "" {
		cfg.SnapshotName = "oscillogic"
	}
	return &Frontend{
		engine:     e,
		backend:    b,
		controller: NewController(e, input.NewManager()),
		cfg:        cfg,
	}
}

func (f *Frontend) Controller() *Controller { return f.controller }

// Frames counts backend updates.
func (f *Frontend) Frames() int { return f.frames }

// Run initializes the backend and runs until ctx is cancelled, the user
// quits, the backend fails or the engine reaches its tick limit.
func (f *Frontend) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.controller.OnQuit = cancel
	f.controller.OnSnapshot = f.saveSnapshot

	err := f.backend.Init(backend.BackendConfig{
		Title:     f.cfg.Title,
		LogLevel:  f.cfg.LogLevel,
		Callbacks: backend.BackendCallbacks{OnQuit: cancel},
	})
	if err != nil {
		return errors.Wrap(err, "backend init")
	}
	defer func() {
		if err := f.backend.Cleanup(); err != nil {
			slog.Error("Backend cleanup failed", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// a finished engine ends the session
		defer cancel()
		return f.engine.Run(gctx)
	})
	g.Go(func() error {
		return f.loop(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// one last frame once the engine has stopped, so the final state is
	// shown or saved
	return f.update()
}

func (f *Frontend) loop(ctx context.Context) error {
	ticker := time.NewTicker(f.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := f.update(); err != nil {
				return err
			}
		}
	}
}

// update renders one frame and dispatches the events the backend returned.
func (f *Frontend) update() error {
	snap := f.engine.Snapshot()
	f.controller.Annotate(snap)

	events, err := f.backend.Update(snap)
	if err != nil {
		return errors.Wrap(err, "backend update")
	}
	f.frames++

	handler, _ := f.backend.(backend.ActionHandler)
	for _, ev := range events {
		if handler != nil && ev.Type == event.Press {
			handler.HandleAction(ev.Action)
		}
		f.controller.Manager().Trigger(ev.Action, ev.Type)
	}
	return nil
}

func (f *Frontend) saveSnapshot() {
	snap := f.engine.Snapshot()
	f.controller.Annotate(snap)

	if _, err := debug.SaveSnapshotText(snap, f.cfg.SnapshotName, f.cfg.SnapshotDir); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
	if len(snap.Scope) == 0 {
		return
	}
	if _, err := debug.SaveScopePNG(snap.Scope, f.cfg.SnapshotName, f.cfg.SnapshotDir); err != nil {
		slog.Error("Failed to save scope image", "error", err)
	}
}
