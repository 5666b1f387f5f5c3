package debug

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-oscillogic/oscillogic/logic"
	"github.com/valerio/go-oscillogic/oscillogic/osc"
	"github.com/valerio/go-oscillogic/oscillogic/pipeline"
)

func TestFrequencyToNote(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{440, "A4"},
		{261.63, "C4"},
		{277.18, "C#4"},
		{880, "A5"},
		{55, "A1"},
		{450, "A4"},
		{10, "--"},
		{25000, "--"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FrequencyToNote(tt.freq), "%v Hz", tt.freq)
	}
}

func TestNoteToFrequency(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"A4", 440},
		{"a5", 880},
		{"C4", 261.6256},
		{"C#4", 277.1826},
		{"Db4", 277.1826},
		{" A3 ", 220},
	}
	for _, tt := range tests {
		got, err := NoteToFrequency(tt.name)
		require.NoError(t, err, tt.name)
		assert.InDelta(t, tt.want, got, 1e-3, tt.name)
	}

	for _, bad := range []string{"", "H4", "A", "A10", "C#x"} {
		_, err := NoteToFrequency(bad)
		assert.ErrorIs(t, err, ErrInvalidNote, bad)
	}
}

func TestNoteRoundTrip(t *testing.T) {
	for _, name := range []string{"C2", "F#3", "G4", "B5", "D#6"} {
		f, err := NoteToFrequency(name)
		require.NoError(t, err)
		assert.Equal(t, name, FrequencyToNote(f))
	}
}

func TestSemitones(t *testing.T) {
	assert.InDelta(t, 880, Semitones(440, 12), 1e-9)
	assert.InDelta(t, 220, Semitones(440, -12), 1e-9)
	assert.Equal(t, "A#4", FrequencyToNote(Semitones(440, 1)))
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Taken:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SampleRate: 10000,
		Oscillators: NewOscillatorStates([]pipeline.OscillatorInfo{
			{ID: 0, Frequency: 440, Amplitude: 1, Kind: osc.Square, Output: true},
		}),
		Blocks: []pipeline.BlockInfo{
			{ID: 2, Operation: logic.XOR, Input1: logic.Gate(0), Input2: logic.Gate(1)},
		},
		Ticks: 20000,
		Scope: []int8{127, 127, -128, -128},
	}
}

func TestSnapshot(t *testing.T) {
	s := testSnapshot()
	assert.Equal(t, "A4", s.Oscillators[0].Note)
	assert.Equal(t, 0.5, s.Duty())
	assert.Equal(t, 2*time.Second, s.Elapsed())

	assert.Zero(t, (&Snapshot{}).Duty())
	assert.Zero(t, (&Snapshot{}).Elapsed())
}

func TestScopeLine(t *testing.T) {
	batch := []int8{127, 127, -128, -128, 127, -128}
	assert.Equal(t, "▀▄▒", ScopeLine(batch, 3))
	assert.Equal(t, "▀▀▄▄▀▄", ScopeLine(batch, 100))
	assert.Empty(t, ScopeLine(nil, 10))
}

func TestFormatSnapshot(t *testing.T) {
	text := FormatSnapshot(testSnapshot())
	assert.Contains(t, text, "440.00Hz A4")
	assert.Contains(t, text, "XOR  block:0")
	assert.Contains(t, text, "##__")
	assert.Contains(t, text, "duty=0.500")
}

func TestSaveSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	s := testSnapshot()

	path, err := SaveSnapshotText(s, "oscillogic", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".txt"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatSnapshot(s), string(data))

	path, err = SaveScopePNG(s.Scope, "oscillogic", dir)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = SaveScopePNG(nil, "oscillogic", dir)
	assert.Error(t, err)
}
