package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-oscillogic/oscillogic/input/action"
	"github.com/valerio/go-oscillogic/oscillogic/input/event"
)

// fakeClock lets tests step time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newManagerWithClock() (*Manager, *fakeClock) {
	m := NewManager()
	c := &fakeClock{t: time.Unix(1000, 0)}
	m.now = c.now
	return m, c
}

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name           string
		eventType      event.Type
		timeBetween    time.Duration
		expectDebounce bool
	}{
		{"rapid press - should debounce", event.Press, 100 * time.Millisecond, true},
		{"slow press - should not debounce", event.Press, 400 * time.Millisecond, false},
		{"rapid release - should debounce", event.Release, 10 * time.Millisecond, true},
		{"hold event type - should not debounce", event.Hold, 10 * time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, clock := newManagerWithClock()
			calls := 0
			m.On(action.ToggleEnabled, tt.eventType, func() { calls++ })

			assert.True(t, m.Trigger(action.ToggleEnabled, tt.eventType), "First event should always pass")
			clock.advance(tt.timeBetween)
			result := m.Trigger(action.ToggleEnabled, tt.eventType)

			if tt.expectDebounce {
				assert.False(t, result, "Second event should be debounced")
				assert.Equal(t, 1, calls)
			} else {
				assert.True(t, result, "Second event should not be debounced")
				assert.Equal(t, 2, calls)
			}
		})
	}
}

func TestManager_MultipleActions(t *testing.T) {
	m, _ := newManagerWithClock()
	var order []action.Action
	for _, act := range []action.Action{action.Snapshot, action.CycleKind, action.Quit} {
		m.On(act, event.Press, func() { order = append(order, act) })
	}

	// different actions are debounced independently
	m.Trigger(action.Snapshot, event.Press)
	m.Trigger(action.CycleKind, event.Press)
	m.Trigger(action.Quit, event.Press)
	assert.Equal(t, []action.Action{action.Snapshot, action.CycleKind, action.Quit}, order)
}

func TestManager_NoHandler(t *testing.T) {
	m, _ := newManagerWithClock()
	assert.False(t, m.Trigger(action.FrequencyUp, event.Hold))
}

func TestManager_SetDebounce(t *testing.T) {
	m, _ := newManagerWithClock()
	m.SetDebounce(0)
	calls := 0
	m.On(action.CycleOperation, event.Press, func() { calls++ })

	for range 5 {
		m.Trigger(action.CycleOperation, event.Press)
	}
	assert.Equal(t, 5, calls)
}

func TestDefaultKeyMap(t *testing.T) {
	act, ok := GetDefaultMapping("q")
	assert.True(t, ok)
	assert.Equal(t, action.Quit, act)

	_, ok = GetDefaultMapping("F13")
	assert.False(t, ok)

	for key, act := range DefaultKeyMap {
		assert.NotEqual(t, "unknown", action.GetInfo(act).Name, "key %q", key)
	}
	assert.Equal(t, action.CategoryAdjust, action.GetInfo(action.FrequencyUp).Category)
	assert.Equal(t, action.CategoryCommand, action.GetInfo(action.Quit).Category)
}
