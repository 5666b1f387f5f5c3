package oscillogic

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/go-oscillogic/oscillogic/audio"
	"github.com/valerio/go-oscillogic/oscillogic/debug"
	"github.com/valerio/go-oscillogic/oscillogic/events"
	"github.com/valerio/go-oscillogic/oscillogic/logic"
	"github.com/valerio/go-oscillogic/oscillogic/osc"
	"github.com/valerio/go-oscillogic/oscillogic/output"
	"github.com/valerio/go-oscillogic/oscillogic/patch"
	"github.com/valerio/go-oscillogic/oscillogic/pipeline"
	"github.com/valerio/go-oscillogic/oscillogic/timing"
)

var ErrAlreadyRunning = errors.New("engine is already running")

var _ patch.Target = (*Engine)(nil)

// Engine owns the oscillator network and everything around it: the timer
// that raises ticks, the task that evaluates them, the output modulator,
// the sample buffer and the batch monitor.
type Engine struct {
	cfg Config

	pipeline  *pipeline.Pipeline
	buffer    *output.SampleBuffer
	modulator *output.Modulator
	sched     *events.Scheduler
	task      *events.Task
	monitor   *audio.Monitor

	mu        sync.Mutex
	callbacks []func()

	ticks   atomic.Uint64
	running atomic.Bool
}

// NewEngine builds an engine with the default patch. A nil sink gets a
// sigma-delta modulator with no bit writer attached.
func NewEngine(cfg Config, sink output.DutySink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := pipeline.New(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	if sink == nil {
		sink = output.NewSigmaDelta(cfg.OversampleRatio, nil)
	}

	e := &Engine{
		cfg:      cfg,
		pipeline: p,
		buffer:   output.NewSampleBuffer(),
		sched:    events.NewScheduler(cfg.QueueDepth),
	}
	e.modulator = output.NewModulator(sink, e.buffer)
	e.monitor = audio.NewMonitor(e.buffer)
	e.task = events.NewTask(e.sched, func() { e.Tick() }, events.TaskConfig{
		Period:      timing.TickDuration(cfg.SampleRate),
		Window:      cfg.OverrunWindow,
		LogInterval: cfg.LogInterval,
	})
	e.buffer.RegisterReadyCallback(e.bufferReady)

	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Tick runs one full evaluation: the pipeline advances, the result is
// emitted to the sink and recorded in the sample buffer. While the
// pipeline is disabled the sink is re-driven with the last code and
// nothing is recorded.
func (e *Engine) Tick() int8 {
	e.ticks.Add(1)

	result, advanced := e.pipeline.Step()
	if !advanced {
		return e.modulator.Hold()
	}
	return e.modulator.Emit(result)
}

// Ticks counts calls to Tick, including held ones.
func (e *Engine) Ticks() uint64 { return e.ticks.Load() }

// Run drives the engine until ctx is cancelled or Config.MaxTicks ticks
// have been raised. The timer, the task and the monitor each run in their
// own goroutine; they stop in that order so accepted ticks and the last
// full batch are not lost.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	limiter, err := timing.NewLimiter(e.cfg.Limiter, e.cfg.SampleRate)
	if err != nil {
		return err
	}

	e.sched.Start()
	defer e.sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	taskCtx, stopTask := context.WithCancel(context.Background())
	defer stopTask()
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()

	timer := timing.NewTimer(limiter, e.sched.Post)
	if e.cfg.Offline() {
		timer.TickInterruptHandler = func() bool {
			return e.sched.PostWait(gctx) == nil
		}
	}

	slog.Info("Engine started",
		"sample_rate", e.cfg.SampleRate,
		"limiter", e.cfg.Limiter,
		"queue_depth", e.cfg.QueueDepth,
		"max_ticks", e.cfg.MaxTicks)
	start := time.Now()

	g.Go(func() error {
		defer stopTask()
		timer.Run(gctx, e.cfg.MaxTicks)
		return nil
	})
	g.Go(func() error {
		defer stopMonitor()
		return e.task.Run(taskCtx)
	})
	if e.cfg.Monitor {
		g.Go(func() error {
			return e.monitor.Run(monitorCtx)
		})
	}

	err = g.Wait()

	stats := e.task.Stats()
	slog.Info("Engine stopped",
		"ticks_raised", timer.Ticks(),
		"ticks_rejected", timer.Rejected(),
		"cycles", stats.Cycles,
		"overruns", stats.Overruns,
		"dropped", stats.Dropped,
		"batches", e.buffer.Batches(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return err
}

func (e *Engine) Running() bool { return e.running.Load() }

func (e *Engine) bufferReady() {
	if e.cfg.Monitor {
		e.monitor.Notify()
	}

	e.mu.Lock()
	callbacks := e.callbacks
	e.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

// RegisterBufferReadyCallback adds fn to the functions called when a full
// batch is published. Callbacks run on the tick path and must not block.
func (e *Engine) RegisterBufferReadyCallback(fn func()) {
	e.mu.Lock()
	e.callbacks = append(e.callbacks, fn)
	e.mu.Unlock()
}

// GetSamples copies the pending batch into dst. See
// output.SampleBuffer.GetSamples.
func (e *Engine) GetSamples(dst []int8) (int, error) {
	return e.buffer.GetSamples(dst)
}

// AddMonitorSink attaches a consumer of full batches to the monitor.
func (e *Engine) AddMonitorSink(s audio.BatchSink) {
	e.monitor.AddSink(s)
}

func (e *Engine) SetOscillator(id int, frequency, amplitude float64) error {
	return e.pipeline.SetOscillator(id, frequency, amplitude)
}

func (e *Engine) SetOscillatorKind(id int, kind osc.Kind) error {
	return e.pipeline.SetOscillatorKind(id, kind)
}

func (e *Engine) SetLogicOperation(blockID int, op logic.Operation) error {
	return e.pipeline.SetLogicOperation(blockID, op)
}

func (e *Engine) SetLogicInputs(blockID int, a, b logic.InputRef) error {
	return e.pipeline.SetLogicInputs(blockID, a, b)
}

// SetEnabled pauses or resumes the network. While paused each tick
// re-drives the sink with the last code so the output holds its level.
func (e *Engine) SetEnabled(enabled bool) {
	e.pipeline.SetEnabled(enabled)
	slog.Debug("Pipeline enable changed", "enabled", enabled)
}

func (e *Engine) Enabled() bool { return e.pipeline.Enabled() }

func (e *Engine) GetOscillators() []pipeline.OscillatorInfo {
	return e.pipeline.Oscillators()
}

func (e *Engine) GetLogicOps() []pipeline.BlockInfo {
	return e.pipeline.LogicOps()
}

// Snapshot returns a read-only view of the engine for frontends.
func (e *Engine) Snapshot() *debug.Snapshot {
	stats := e.task.Stats()
	return &debug.Snapshot{
		Taken:       time.Now(),
		SampleRate:  e.cfg.SampleRate,
		Oscillators: debug.NewOscillatorStates(e.pipeline.Oscillators()),
		Blocks:      e.pipeline.LogicOps(),
		Final:       e.pipeline.Final(),
		Code:        e.modulator.Last(),
		Enabled:     e.pipeline.Enabled(),
		Ticks:       e.ticks.Load(),
		Delivered:   e.sched.Delivered(),
		Dropped:     e.sched.Dropped(),
		Overruns:    stats.Overruns,
		AvgCycle:    stats.AvgCycle,
		MaxCycle:    stats.MaxCycle,
		Batches:     e.buffer.Batches(),
		Overwritten: e.buffer.Overwritten(),
		Scope:       e.monitor.Last(),
	}
}
