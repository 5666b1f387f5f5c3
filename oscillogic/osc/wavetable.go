package osc

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// TableSize is the number of entries in one wavetable period.
const TableSize = 256

// Kind selects the waveform stored in an oscillator's wavetable.
type Kind int

const (
	Sine Kind = iota
	Square
	Sawtooth
	Triangle
	BoolSquare // boolean table; continuous output is the ±1 projection
)

var kindNames = [...]string{
	Sine:       "sine",
	Square:     "square",
	Sawtooth:   "sawtooth",
	Triangle:   "triangle",
	BoolSquare: "bool-square",
}

// Valid reports whether k is one of the known waveform kinds.
func (k Kind) Valid() bool {
	return k >= Sine && k <= BoolSquare
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind converts a waveform name ("sine", "square", ...) to a Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidKind, "%q", name)
}

// table holds one period of a waveform in both continuous and boolean form.
type table struct {
	values [TableSize]float64
	bools  [TableSize]bool
}

func (t *table) build(k Kind) {
	switch k {
	case Sine:
		for i := range t.values {
			t.values[i] = math.Sin(2 * math.Pi * float64(i) / TableSize)
		}
	case Square:
		for i := range t.values {
			if i < TableSize/2 {
				t.values[i] = 1
			} else {
				t.values[i] = -1
			}
		}
	case Sawtooth:
		for i := range t.values {
			t.values[i] = 2*float64(i)/TableSize - 1
		}
	case Triangle:
		for i := range t.values {
			x := float64(i) / TableSize
			switch {
			case x < 0.25:
				t.values[i] = 4 * x
			case x < 0.75:
				t.values[i] = 2 - 4*x
			default:
				t.values[i] = 4*x - 4
			}
		}
	case BoolSquare:
		for i := range t.bools {
			t.bools[i] = i < TableSize/2
			if t.bools[i] {
				t.values[i] = 1
			} else {
				t.values[i] = -1
			}
		}
	}

	// continuous tables also carry their boolean projection so Step never
	// has to branch on the sign
	if k != BoolSquare {
		for i, v := range t.values {
			t.bools[i] = v > 0
		}
	}
}
