package action

// Action represents input actions that can be performed on the running
// oscillator network.
type Action int

const (
	// Selection
	SelectOscillator1 Action = iota
	SelectOscillator2
	SelectOscillator3
	SelectOscillator4
	SelectBlock1
	SelectBlock2
	SelectBlock3

	// Oscillator controls, applied to the selected oscillator
	FrequencyUp   // one semitone
	FrequencyDown // one semitone
	OctaveUp
	OctaveDown
	AmplitudeUp
	AmplitudeDown
	CycleKind

	// Logic controls, applied to the selected block
	CycleOperation

	// Engine features
	ToggleEnabled
	Snapshot
	Quit

	// Debug controls
	LogLevelIncrease
	LogLevelDecrease
)

// Category groups actions by how backends should deliver them.
type Category int

const (
	// CategoryAdjust actions repeat while the key is held.
	CategoryAdjust Category = iota
	// CategoryCommand actions fire once per press and are debounced.
	CategoryCommand
)

// Info describes an action for help screens and event generation.
type Info struct {
	Name     string
	Category Category
}

var infos = map[Action]Info{
	SelectOscillator1: {"select osc 1", CategoryCommand},
	SelectOscillator2: {"select osc 2", CategoryCommand},
	SelectOscillator3: {"select osc 3", CategoryCommand},
	SelectOscillator4: {"select osc 4", CategoryCommand},
	SelectBlock1:      {"select block 1", CategoryCommand},
	SelectBlock2:      {"select block 2", CategoryCommand},
	SelectBlock3:      {"select block 3", CategoryCommand},
	FrequencyUp:       {"freq +1 semitone", CategoryAdjust},
	FrequencyDown:     {"freq -1 semitone", CategoryAdjust},
	OctaveUp:          {"freq +1 octave", CategoryAdjust},
	OctaveDown:        {"freq -1 octave", CategoryAdjust},
	AmplitudeUp:       {"amplitude +", CategoryAdjust},
	AmplitudeDown:     {"amplitude -", CategoryAdjust},
	CycleKind:         {"next waveform", CategoryCommand},
	CycleOperation:    {"next operation", CategoryCommand},
	ToggleEnabled:     {"pause/resume", CategoryCommand},
	Snapshot:          {"snapshot", CategoryCommand},
	Quit:              {"quit", CategoryCommand},
	LogLevelIncrease:  {"log level +", CategoryCommand},
	LogLevelDecrease:  {"log level -", CategoryCommand},
}

// GetInfo returns the description of act.
func GetInfo(act Action) Info {
	if info, ok := infos[act]; ok {
		return info
	}
	return Info{Name: "unknown", Category: CategoryCommand}
}

func (a Action) String() string { return GetInfo(a).Name }
