package osc

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 10000.0

func TestNew_RejectsInvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
		amplitude float64
		kind      Kind
		rate      float64
		err       error
	}{
		{"zero frequency", 0, 1, Square, testSampleRate, ErrInvalidFrequency},
		{"negative frequency", -440, 1, Square, testSampleRate, ErrInvalidFrequency},
		{"NaN frequency", math.NaN(), 1, Square, testSampleRate, ErrInvalidFrequency},
		{"infinite frequency", math.Inf(1), 1, Square, testSampleRate, ErrInvalidFrequency},
		{"negative amplitude", 440, -0.5, Square, testSampleRate, ErrInvalidAmplitude},
		{"unknown kind", 440, 1, Kind(42), testSampleRate, ErrInvalidKind},
		{"zero sample rate", 440, 1, Square, 0, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(0, tt.frequency, tt.amplitude, tt.kind, tt.rate)
			assert.Nil(t, o)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestInit_FailureLeavesStateUntouched(t *testing.T) {
	o, err := New(1, 440, 0.5, Sine, testSampleRate)
	require.NoError(t, err)
	for range 10 {
		o.Step()
	}
	phase, index, inc := o.Phase(), o.Index(), o.PhaseIncrement()

	err = o.Init(-1, 1, Square, testSampleRate)
	assert.ErrorIs(t, err, ErrInvalidFrequency)

	assert.Equal(t, 440.0, o.Frequency())
	assert.Equal(t, 0.5, o.Amplitude())
	assert.Equal(t, Sine, o.Kind())
	assert.Equal(t, phase, o.Phase())
	assert.Equal(t, index, o.Index())
	assert.Equal(t, inc, o.PhaseIncrement())
}

func TestInit_ResetsPhase(t *testing.T) {
	o, err := New(0, 440, 1, Square, testSampleRate)
	require.NoError(t, err)
	o.Step()
	o.Step()

	require.NoError(t, o.Init(880, 1, Sawtooth, testSampleRate))
	assert.Zero(t, o.Phase())
	assert.Zero(t, o.Index())
	assert.Equal(t, Sample{}, o.Result())
	assert.InDelta(t, TableSize*880/testSampleRate, o.PhaseIncrement(), 1e-12)
}

func TestSetFrequency_KeepsPhase(t *testing.T) {
	o, err := New(0, 440, 1, Square, testSampleRate)
	require.NoError(t, err)
	for range 7 {
		o.Step()
	}
	phase := o.Phase()

	require.NoError(t, o.SetFrequency(1234.5))
	assert.Equal(t, phase, o.Phase(), "phase must survive a frequency change")
	assert.InDelta(t, TableSize*1234.5/testSampleRate, o.PhaseIncrement(), 1e-12)
}

func TestSetFrequency_IncrementLaw(t *testing.T) {
	o, err := New(0, 440, 1, Sine, testSampleRate)
	require.NoError(t, err)

	law := func(raw uint32) bool {
		f := float64(raw%200000)/10 + 0.1
		before := o.Phase()
		if err := o.SetFrequency(f); err != nil {
			return false
		}
		o.Step()
		return math.Abs(o.PhaseIncrement()-TableSize*f/testSampleRate) < 1e-9 &&
			o.Phase() > before
	}
	assert.NoError(t, quick.Check(law, nil))
}

func TestSetFrequency_RejectsNonPositive(t *testing.T) {
	o, err := New(0, 440, 1, Sine, testSampleRate)
	require.NoError(t, err)
	inc := o.PhaseIncrement()

	for _, f := range []float64{0, -1, math.NaN()} {
		assert.ErrorIs(t, o.SetFrequency(f), ErrInvalidFrequency)
		assert.Equal(t, 440.0, o.Frequency())
		assert.Equal(t, inc, o.PhaseIncrement())
	}
}

func TestSetAmplitude(t *testing.T) {
	o, err := New(0, 440, 1, Square, testSampleRate)
	require.NoError(t, err)

	assert.ErrorIs(t, o.SetAmplitude(-1), ErrInvalidAmplitude)
	assert.Equal(t, 1.0, o.Amplitude())

	require.NoError(t, o.SetAmplitude(0.25))
	s := o.Step()
	assert.Equal(t, 0.25, s.Value)
	assert.True(t, s.Bool)

	require.NoError(t, o.SetAmplitude(0))
	s = o.Step()
	assert.Zero(t, s.Value)
	assert.True(t, s.Bool, "boolean output comes from the table, not the amplitude")
}

func TestStep_IndexAlwaysInRange(t *testing.T) {
	property := func(rawFreq uint32, steps uint8) bool {
		// frequencies up to 50x the sample rate, so the increment can exceed
		// the table size many times over
		f := float64(rawFreq%500000) + 0.5
		o, err := New(0, f, 1, Triangle, testSampleRate)
		if err != nil {
			return false
		}
		for range int(steps) + 1 {
			o.Step()
			if o.Index() < 0 || o.Index() >= TableSize {
				return false
			}
		}
		return true
	}
	assert.NoError(t, quick.Check(property, nil))
}

func TestStep_IncrementLargerThanTable(t *testing.T) {
	// 3.5 table lengths per step
	f := 3.5 * testSampleRate
	o, err := New(0, f, 1, Sawtooth, testSampleRate)
	require.NoError(t, err)
	assert.Equal(t, 896.0, o.PhaseIncrement())

	o.Step()
	assert.Equal(t, 128, o.Index())
	o.Step()
	assert.Equal(t, 0, o.Index())
	assert.Equal(t, uint64(7), o.Wraps())
}

func TestStep_WrapsOnceAfterOnePeriod(t *testing.T) {
	t.Run("440 Hz square", func(t *testing.T) {
		o, err := New(0, 440, 1, Square, testSampleRate)
		require.NoError(t, err)

		steps := int(math.Ceil(TableSize / o.PhaseIncrement()))
		for range steps - 1 {
			o.Step()
		}
		assert.Zero(t, o.Wraps(), "no wrap before one full period")

		o.Step()
		assert.Equal(t, uint64(1), o.Wraps())
		assert.Less(t, o.Index(), int(math.Ceil(o.PhaseIncrement())))
	})

	t.Run("exact divisor", func(t *testing.T) {
		// 625 Hz at 10 kHz gives an increment of exactly 16
		o, err := New(0, 625, 1, Square, testSampleRate)
		require.NoError(t, err)
		require.Equal(t, 16.0, o.PhaseIncrement())

		for range TableSize / 16 {
			o.Step()
		}
		assert.Equal(t, uint64(1), o.Wraps())
		assert.Equal(t, 0, o.Index())
	})
}

func TestStep_SquareWaveOutput(t *testing.T) {
	o, err := New(0, 625, 2, Square, testSampleRate)
	require.NoError(t, err)

	var highs, lows int
	for range TableSize / 16 {
		s := o.Step()
		if s.Bool {
			highs++
			assert.Equal(t, 2.0, s.Value)
		} else {
			lows++
			assert.Equal(t, -2.0, s.Value)
		}
	}
	assert.Equal(t, 8, highs)
	assert.Equal(t, 8, lows)
}

func TestStep_ResultMatchesReturn(t *testing.T) {
	o, err := New(3, 100, 1, Sine, testSampleRate)
	require.NoError(t, err)
	for range 50 {
		s := o.Step()
		assert.Equal(t, s, o.Result())
	}
	assert.Equal(t, 3, o.ID())
}

func TestSetKind_KeepsPhase(t *testing.T) {
	o, err := New(0, 440, 1, Sine, testSampleRate)
	require.NoError(t, err)
	o.Step()
	o.Step()
	phase := o.Phase()

	require.NoError(t, o.SetKind(BoolSquare))
	assert.Equal(t, phase, o.Phase())
	assert.Equal(t, BoolSquare, o.Kind())
	assert.ErrorIs(t, o.SetKind(Kind(-1)), ErrInvalidKind)
	assert.Equal(t, BoolSquare, o.Kind())
}
