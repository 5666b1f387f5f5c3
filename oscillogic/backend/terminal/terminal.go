package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"github.com/valerio/go-oscillogic/oscillogic/backend"
	"github.com/valerio/go-oscillogic/oscillogic/backend/terminal/render"
	"github.com/valerio/go-oscillogic/oscillogic/debug"
	"github.com/valerio/go-oscillogic/oscillogic/input"
	"github.com/valerio/go-oscillogic/oscillogic/input/action"
	"github.com/valerio/go-oscillogic/oscillogic/input/event"
)

const (
	minTermWidth  = 80
	minTermHeight = 24
	logCapacity   = 200
)

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen    tcell.Screen
	newScreen func() (tcell.Screen, error)
	running   bool
	logBuffer *render.LogBuffer
	logLevel  slog.LevelVar
	config    backend.BackendConfig

	mu         sync.Mutex
	eventQueue []backend.InputEvent // Collect events to return
	signals    chan os.Signal
}

// New creates a new terminal backend
func New() *Backend {
	return NewWithScreen(tcell.NewScreen)
}

// NewWithScreen creates a backend drawing on screens built by newScreen.
func NewWithScreen(newScreen func() (tcell.Screen, error)) *Backend {
	b := &Backend{newScreen: newScreen}
	b.logLevel.Set(slog.LevelInfo)
	return b
}

var (
	_ backend.Backend       = (*Backend)(nil)
	_ backend.ActionHandler = (*Backend)(nil)
)

// Init initializes the terminal backend
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.logLevel.Set(config.LogLevel)

	screen, err := t.newScreen()
	if err != nil {
		return errors.Wrap(err, "failed to initialize terminal")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize terminal")
	}

	t.screen = screen
	t.running = true

	// Capture everything; the panel filters by the current level
	t.logBuffer = render.NewLogBuffer(logCapacity)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))
	slog.Info("Terminal backend initialized")

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go t.handleSignals()

	return nil
}

// Update renders a snapshot and processes events
func (t *Backend) Update(snap *debug.Snapshot) ([]backend.InputEvent, error) {
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	t.mu.Lock()
	events := t.eventQueue
	t.eventQueue = nil
	t.mu.Unlock()

	for _, evt := range events {
		slog.Debug("UI event", "action", evt.Action, "type", evt.Type)
	}

	if !t.running {
		return events, nil
	}

	t.render(snap)
	t.screen.Show()
	return events, nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
		close(t.signals)
	}
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

// HandleAction processes backend-specific actions
func (t *Backend) HandleAction(act action.Action) {
	switch act {
	case action.LogLevelIncrease:
		t.changeLogLevel(1)
	case action.LogLevelDecrease:
		t.changeLogLevel(-1)
	}
}

func (t *Backend) handleSignals() {
	if _, ok := <-t.signals; !ok {
		return
	}
	t.queue(backend.InputEvent{Action: action.Quit, Type: event.Press})
	if t.config.Callbacks.OnQuit != nil {
		t.config.Callbacks.OnQuit()
	}
}

func (t *Backend) queue(evt backend.InputEvent) {
	t.mu.Lock()
	t.eventQueue = append(t.eventQueue, evt)
	t.mu.Unlock()
}

// tcellKeyNameMap converts tcell keys to key names used in default mappings
var tcellKeyNameMap = map[tcell.Key]string{
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF9:     "F9",
}

// buildKeyMapping creates the key mapping from default mappings
func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, keyName := range tcellKeyNameMap {
		if act, ok := input.GetDefaultMapping(keyName); ok {
			mapping[key] = act
		}
	}
	mapping[tcell.KeyCtrlC] = action.Quit
	return mapping
}

// keyMapping maps tcell keys to actions
var keyMapping = buildKeyMapping()

func runeKeyName(r rune) string {
	if r == ' ' {
		return "Space"
	}
	return string(r)
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	act, ok := keyMapping[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		act, ok = input.GetDefaultMapping(runeKeyName(ev.Rune()))
	}
	if !ok {
		return
	}

	if act == action.Quit {
		t.running = false
	}

	// Terminals report key repeat but no releases, so adjustments are
	// delivered as undebounced holds
	typ := event.Press
	if action.GetInfo(act).Category == action.CategoryAdjust {
		typ = event.Hold
	}
	t.queue(backend.InputEvent{Action: act, Type: typ})
}

func (t *Backend) changeLogLevel(direction int) {
	oldLevel := t.logLevel.Level()
	newLevel := oldLevel
	switch direction {
	case -1:
		switch oldLevel {
		case slog.LevelDebug:
			newLevel = slog.LevelInfo
		case slog.LevelInfo:
			newLevel = slog.LevelWarn
		case slog.LevelWarn:
			newLevel = slog.LevelError
		}
	case 1:
		switch oldLevel {
		case slog.LevelError:
			newLevel = slog.LevelWarn
		case slog.LevelWarn:
			newLevel = slog.LevelInfo
		case slog.LevelInfo:
			newLevel = slog.LevelDebug
		}
	}
	if oldLevel != newLevel {
		t.logLevel.Set(newLevel)
		slog.Info("Log filter changed", "from", oldLevel, "to", newLevel)
	}
}

// LogLevel is the current log panel filter.
func (t *Backend) LogLevel() slog.Level { return t.logLevel.Level() }

func (t *Backend) render(snap *debug.Snapshot) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, style)
		return
	}

	y := t.drawHeader(snap, termWidth)
	if snap != nil {
		y = t.drawOscillators(snap, y+1, termWidth)
		y = t.drawBlocks(snap, y+1, termWidth)
		y = t.drawOutput(snap, y+1, termWidth)
	}
	t.drawLogs(y+1, termWidth, termHeight)
	t.drawHelp(termWidth, termHeight)
}

var (
	titleStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	textStyle     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dimStyle      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	selectedStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	highStyle     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	lowStyle      = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
)

// drawText writes s at (x, y), clipped to width columns, and returns the
// column after the last rune.
func (t *Backend) drawText(x, y, width int, s string, style tcell.Style) int {
	for _, ch := range s {
		if x >= width {
			break
		}
		t.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	return x
}

func (t *Backend) drawRule(y, width int, title string) {
	for x := range width {
		t.screen.SetContent(x, y, '─', nil, dimStyle)
	}
	t.drawText(2, y, width, title, titleStyle)
}

func (t *Backend) drawHeader(snap *debug.Snapshot, width int) int {
	title := " " + t.config.Title + " "
	x := t.drawText(0, 0, width, title, titleStyle)
	if snap == nil {
		return 0
	}

	state, style := "RUNNING", highStyle
	if !snap.Enabled {
		state, style = "PAUSED", tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
	x = t.drawText(x+1, 0, width, state, style)
	status := fmt.Sprintf("  %.0f Hz  ticks %d  t=%s", snap.SampleRate, snap.Ticks, snap.Elapsed().Truncate(time.Millisecond))
	t.drawText(x, 0, width, status, textStyle)
	return 0
}

func (t *Backend) drawOscillators(snap *debug.Snapshot, y, width int) int {
	t.drawRule(y, width, " Oscillators ")
	for i, o := range snap.Oscillators {
		style := textStyle
		if i == snap.SelectedOscillator {
			style = selectedStyle
		}
		out := "0"
		if o.Output {
			out = "1"
		}
		line := fmt.Sprintf(" %d  %10.2f Hz  %-4s  amp %.2f  %-9s  out %s ",
			o.ID+1, o.Frequency, o.Note, o.Amplitude, o.Kind, out)
		t.drawText(1, y+1+i, width, line, style)
	}
	return y + len(snap.Oscillators)
}

func (t *Backend) drawBlocks(snap *debug.Snapshot, y, width int) int {
	t.drawRule(y, width, " Logic ")
	for i, b := range snap.Blocks {
		style := textStyle
		if i == snap.SelectedBlock {
			style = selectedStyle
		}
		out := "0"
		if b.Result {
			out = "1"
		}
		line := fmt.Sprintf(" %d  %-4s (%s, %s)  = %s ", b.ID+1, b.Operation, b.Input1, b.Input2, out)
		t.drawText(1, y+1+i, width, line, style)
	}
	return y + len(snap.Blocks)
}

func (t *Backend) drawOutput(snap *debug.Snapshot, y, width int) int {
	t.drawRule(y, width, " Output ")

	style := lowStyle
	if snap.Final {
		style = highStyle
	}
	x := t.drawText(1, y+1, width, fmt.Sprintf(" code %4d ", snap.Code), style)
	t.drawText(x, y+1, width, fmt.Sprintf(" duty %.3f  batches %d  overwritten %d",
		snap.Duty(), snap.Batches, snap.Overwritten), textStyle)

	scope := debug.ScopeLine(snap.Scope, width-2)
	if scope == "" {
		scope = "(waiting for first batch)"
	}
	t.drawText(1, y+2, width, scope, highStyle)

	stats := fmt.Sprintf(" delivered %d  dropped %d  overruns %d  cycle avg %s max %s",
		snap.Delivered, snap.Dropped, snap.Overruns, snap.AvgCycle, snap.MaxCycle)
	t.drawText(1, y+3, width, stats, dimStyle)
	return y + 3
}

func (t *Backend) drawLogs(startY, width, termHeight int) {
	level := t.logLevel.Level()
	t.drawRule(startY, width, fmt.Sprintf(" Logs [%s] (-/+ filter) ", render.LevelName(level)))

	available := termHeight - startY - 2
	if available <= 0 || t.logBuffer == nil {
		return
	}

	for i, entry := range t.logBuffer.GetRecent(available, level) {
		style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
		switch entry.Level {
		case slog.LevelDebug:
			style = dimStyle
		case slog.LevelWarn:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		case slog.LevelError:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		}

		text := render.FormatLogEntry(entry)
		if len(text) > width-1 && width > 4 {
			text = text[:width-4] + "..."
		}
		t.drawText(1, startY+1+i, width, text, style)
	}
}

func (t *Backend) drawHelp(width, height int) {
	help := " 1-4 osc  z/x/c block  ↑↓ semitone  ←→ octave  [ ] amp  k wave  o op  SPACE pause  s snapshot  q quit "
	t.drawText(0, height-1, width, help, dimStyle)
}
