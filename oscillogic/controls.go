package oscillogic

import (
	"log/slog"
	"math"
	"sync"

	"github.com/valerio/go-oscillogic/oscillogic/debug"
	"github.com/valerio/go-oscillogic/oscillogic/input"
	"github.com/valerio/go-oscillogic/oscillogic/input/action"
	"github.com/valerio/go-oscillogic/oscillogic/input/event"
	"github.com/valerio/go-oscillogic/oscillogic/osc"
	"github.com/valerio/go-oscillogic/oscillogic/pipeline"
)

const (
	// AmplitudeStep is the amplitude change per adjust event.
	AmplitudeStep = 0.1
	// MinFrequency is the lowest frequency reachable from the controls.
	MinFrequency = 1.0
)

// Controller maps input actions onto engine configuration calls. It keeps
// the selected oscillator and block; adjust actions apply to them.
type Controller struct {
	engine  *Engine
	manager *input.Manager

	mu                 sync.Mutex
	selectedOscillator int
	selectedBlock      int

	// OnQuit runs when the Quit action fires.
	OnQuit func()
	// OnSnapshot runs when the Snapshot action fires.
	OnSnapshot func()
}

// NewController registers the engine controls with m.
func NewController(e *Engine, m *input.Manager) *Controller {
	c := &Controller{engine: e, manager: m}
	c.setupCallbacks()
	return c
}

func (c *Controller) Manager() *input.Manager { return c.manager }

func (c *Controller) setupCallbacks() {
	for i, act := range []action.Action{
		action.SelectOscillator1, action.SelectOscillator2,
		action.SelectOscillator3, action.SelectOscillator4,
	} {
		c.manager.On(act, event.Press, func() { c.SelectOscillator(i) })
	}
	for i, act := range []action.Action{action.SelectBlock1, action.SelectBlock2, action.SelectBlock3} {
		c.manager.On(act, event.Press, func() { c.SelectBlock(i) })
	}

	// adjust actions repeat while held, so they also fire on Hold
	adjust := map[action.Action]func(){
		action.FrequencyUp:   func() { c.shiftFrequency(1) },
		action.FrequencyDown: func() { c.shiftFrequency(-1) },
		action.OctaveUp:      func() { c.shiftFrequency(12) },
		action.OctaveDown:    func() { c.shiftFrequency(-12) },
		action.AmplitudeUp:   func() { c.shiftAmplitude(AmplitudeStep) },
		action.AmplitudeDown: func() { c.shiftAmplitude(-AmplitudeStep) },
	}
	for act, fn := range adjust {
		c.manager.On(act, event.Press, fn)
		c.manager.On(act, event.Hold, fn)
	}

	c.manager.On(action.CycleKind, event.Press, c.cycleKind)
	c.manager.On(action.CycleOperation, event.Press, c.cycleOperation)
	c.manager.On(action.ToggleEnabled, event.Press, func() {
		enabled := !c.engine.Enabled()
		c.engine.SetEnabled(enabled)
		slog.Info("Pipeline toggled", "enabled", enabled)
	})
	c.manager.On(action.Snapshot, event.Press, func() {
		if c.OnSnapshot != nil {
			c.OnSnapshot()
		}
	})
	c.manager.On(action.Quit, event.Press, func() {
		if c.OnQuit != nil {
			c.OnQuit()
		}
	})
}

func (c *Controller) SelectOscillator(id int) {
	if id < 0 || id >= pipeline.NumOscillators {
		return
	}
	c.mu.Lock()
	c.selectedOscillator = id
	c.mu.Unlock()
	slog.Debug("Oscillator selected", "id", id)
}

func (c *Controller) SelectBlock(id int) {
	if id < 0 || id >= pipeline.NumBlocks {
		return
	}
	c.mu.Lock()
	c.selectedBlock = id
	c.mu.Unlock()
	slog.Debug("Logic block selected", "id", id)
}

// Selection returns the selected oscillator and block.
func (c *Controller) Selection() (oscillator, block int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedOscillator, c.selectedBlock
}

// Annotate copies the selection into a snapshot.
func (c *Controller) Annotate(snap *debug.Snapshot) {
	snap.SelectedOscillator, snap.SelectedBlock = c.Selection()
}

func (c *Controller) selected() pipeline.OscillatorInfo {
	id, _ := c.Selection()
	return c.engine.GetOscillators()[id]
}

// shiftFrequency moves the selected oscillator by n semitones, kept between
// MinFrequency and the Nyquist frequency.
func (c *Controller) shiftFrequency(n int) {
	o := c.selected()
	f := debug.Semitones(o.Frequency, n)
	f = math.Max(MinFrequency, math.Min(f, c.engine.Config().SampleRate/2))
	if f == o.Frequency {
		return
	}
	if err := c.engine.SetOscillator(o.ID, f, o.Amplitude); err != nil {
		slog.Warn("Frequency change rejected", "oscillator", o.ID, "error", err)
		return
	}
	slog.Debug("Frequency changed", "oscillator", o.ID, "frequency", f, "note", debug.FrequencyToNote(f))
}

func (c *Controller) shiftAmplitude(delta float64) {
	o := c.selected()
	a := math.Round((o.Amplitude+delta)*100) / 100
	a = math.Max(0, math.Min(a, 1))
	if a == o.Amplitude {
		return
	}
	if err := c.engine.SetOscillator(o.ID, o.Frequency, a); err != nil {
		slog.Warn("Amplitude change rejected", "oscillator", o.ID, "error", err)
		return
	}
	slog.Debug("Amplitude changed", "oscillator", o.ID, "amplitude", a)
}

func (c *Controller) cycleKind() {
	o := c.selected()
	next := o.Kind + 1
	if !next.Valid() {
		next = osc.Sine
	}
	if err := c.engine.SetOscillatorKind(o.ID, next); err != nil {
		slog.Warn("Waveform change rejected", "oscillator", o.ID, "error", err)
		return
	}
	slog.Info("Waveform changed", "oscillator", o.ID, "kind", next)
}

func (c *Controller) cycleOperation() {
	_, id := c.Selection()
	op := c.engine.GetLogicOps()[id].Operation.Next()
	if err := c.engine.SetLogicOperation(id, op); err != nil {
		slog.Warn("Operation change rejected", "block", id, "error", err)
		return
	}
	slog.Info("Operation changed", "block", id, "operation", op)
}
