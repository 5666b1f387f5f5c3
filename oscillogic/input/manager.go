package input

import (
	"sync"
	"time"

	"github.com/valerio/go-oscillogic/oscillogic/input/action"
	"github.com/valerio/go-oscillogic/oscillogic/input/event"
)

const (
	// DefaultDebounce is the minimum time between debounced events
	DefaultDebounce = 300 * time.Millisecond
)

// Manager handles input actions and their associated callbacks
type Manager struct {
	mu            sync.Mutex
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
	debounce      time.Duration
	now           func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
		debounce:      DefaultDebounce,
		now:           time.Now,
	}
}

// SetDebounce changes the debounce window. Zero disables debouncing.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	m.debounce = d
	m.mu.Unlock()
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type. It reports whether any
// callback ran.
func (m *Manager) Trigger(act action.Action, evt event.Type) bool {
	m.mu.Lock()

	// Debounce Press and Release events
	if evt == event.Press || evt == event.Release {
		now := m.now()
		if m.lastTriggered[act] == nil {
			m.lastTriggered[act] = make(map[event.Type]time.Time)
		}
		lastTime, seen := m.lastTriggered[act][evt]
		if seen && now.Sub(lastTime) < m.debounce {
			m.mu.Unlock()
			return false
		}
		m.lastTriggered[act][evt] = now
	}

	callbacks := m.handlers[act][evt]
	m.mu.Unlock()

	// callbacks may register more handlers, so run them unlocked
	for _, callback := range callbacks {
		callback()
	}
	return len(callbacks) > 0
}
