package debug

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidNote = errors.New("invalid note name")

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

const (
	a4Frequency = 440.0
	a4Midi      = 69
)

// FrequencyToNote returns the nearest equal-tempered note name, e.g. "A4",
// or "--" outside the audible range.
func FrequencyToNote(freq float64) string {
	if freq < 20 || freq > 20000 {
		return "--"
	}

	midi := int(math.Round(12*math.Log2(freq/a4Frequency))) + a4Midi
	octave := midi/12 - 1
	if octave < 0 || octave > 9 {
		return "--"
	}
	return noteNames[midi%12] + strconv.Itoa(octave)
}

// NoteToFrequency parses names like "A4", "c#3" or "Bb2".
func NoteToFrequency(name string) (float64, error) {
	n := strings.TrimSpace(name)
	if len(n) < 2 {
		return 0, errors.Wrapf(ErrInvalidNote, "%q", name)
	}

	letter := strings.ToUpper(n[:1])
	rest := n[1:]
	semitone := -1
	for i, s := range noteNames {
		if s == letter {
			semitone = i
			break
		}
	}
	if semitone < 0 {
		return 0, errors.Wrapf(ErrInvalidNote, "%q", name)
	}

	switch rest[0] {
	case '#':
		semitone++
		rest = rest[1:]
	case 'b':
		semitone--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil || octave < 0 || octave > 9 {
		return 0, errors.Wrapf(ErrInvalidNote, "%q", name)
	}

	midi := (octave+1)*12 + semitone
	return a4Frequency * math.Pow(2, float64(midi-a4Midi)/12), nil
}

// Semitones shifts freq by n equal-tempered semitones.
func Semitones(freq float64, n int) float64 {
	return freq * math.Pow(2, float64(n)/12)
}
