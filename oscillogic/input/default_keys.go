package input

import "github.com/valerio/go-oscillogic/oscillogic/input/action"

// DefaultKeyMap provides default key mappings that work across backends.
// Backends can use these mappings as a base and override/extend as needed.
var DefaultKeyMap = map[string]action.Action{
	// Oscillator selection
	"1": action.SelectOscillator1,
	"2": action.SelectOscillator2,
	"3": action.SelectOscillator3,
	"4": action.SelectOscillator4,

	// Block selection
	"z": action.SelectBlock1,
	"x": action.SelectBlock2,
	"c": action.SelectBlock3,

	// Oscillator controls
	"Up":    action.FrequencyUp,
	"Down":  action.FrequencyDown,
	"Right": action.OctaveUp,
	"Left":  action.OctaveDown,
	"]":     action.AmplitudeUp,
	"[":     action.AmplitudeDown,
	"k":     action.CycleKind,

	// Logic controls
	"o": action.CycleOperation,

	// Engine controls
	"Space":  action.ToggleEnabled,
	"p":      action.ToggleEnabled, // Alternative key
	"F9":     action.Snapshot,
	"s":      action.Snapshot,
	"Escape": action.Quit,
	"q":      action.Quit,

	// Debug controls
	"+": action.LogLevelIncrease,
	"=": action.LogLevelIncrease, // Alternative without shift
	"-": action.LogLevelDecrease,
	"_": action.LogLevelDecrease, // Alternative with shift
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (action.Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}
