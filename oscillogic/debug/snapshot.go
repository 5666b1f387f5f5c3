package debug

import (
	"time"

	"github.com/valerio/go-oscillogic/oscillogic/pipeline"
)

// OscillatorState is an oscillator row in a snapshot.
type OscillatorState struct {
	pipeline.OscillatorInfo
	Note string
}

// Snapshot is a read-only view of the engine, taken between ticks.
type Snapshot struct {
	Taken      time.Time
	SampleRate float64

	Oscillators []OscillatorState
	Blocks      []pipeline.BlockInfo
	Final       bool
	Code        int8
	Enabled     bool

	Ticks       uint64
	Delivered   uint64
	Dropped     uint64
	Overruns    uint64
	AvgCycle    time.Duration
	MaxCycle    time.Duration
	Batches     uint64
	Overwritten uint64

	// Scope is the last collected output batch, nil before the first.
	Scope []int8

	// Selection state of the interactive frontend.
	SelectedOscillator int
	SelectedBlock      int
}

// NewOscillatorStates annotates oscillator infos with note names.
func NewOscillatorStates(infos []pipeline.OscillatorInfo) []OscillatorState {
	states := make([]OscillatorState, len(infos))
	for i, info := range infos {
		states[i] = OscillatorState{OscillatorInfo: info, Note: FrequencyToNote(info.Frequency)}
	}
	return states
}

// Duty returns the fraction of high codes in the scope batch.
func (s *Snapshot) Duty() float64 {
	if len(s.Scope) == 0 {
		return 0
	}
	high := 0
	for _, c := range s.Scope {
		if c > 0 {
			high++
		}
	}
	return float64(high) / float64(len(s.Scope))
}

// Elapsed is the signal time covered by the ticks so far.
func (s *Snapshot) Elapsed() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(s.Ticks) / s.SampleRate * float64(time.Second))
}
