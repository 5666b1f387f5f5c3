package osc

import (
	"math"

	"github.com/pkg/errors"
)

var (
	ErrInvalidFrequency  = errors.New("frequency must be positive")
	ErrInvalidAmplitude  = errors.New("amplitude must not be negative")
	ErrInvalidKind       = errors.New("invalid oscillator kind")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// Sample is the output of one oscillator step.
type Sample struct {
	Value float64 // amplitude * table value
	Bool  bool    // boolean table value
}

// Oscillator generates a periodic waveform by walking a 256 entry wavetable
// with a fractional phase accumulator.
//
// An Oscillator is not safe for concurrent use. The pipeline that owns it
// serialises configuration writes against Step.
type Oscillator struct {
	id         int
	frequency  float64
	amplitude  float64
	sampleRate float64
	kind       Kind

	phase          float64 // monotonically increasing, in table entries
	phaseIncrement float64
	index          int

	table  table
	result Sample
}

// New creates an oscillator. Invalid arguments return an error and no
// oscillator.
func New(id int, frequency, amplitude float64, kind Kind, sampleRate float64) (*Oscillator, error) {
	o := &Oscillator{id: id}
	if err := o.Init(frequency, amplitude, kind, sampleRate); err != nil {
		return nil, err
	}
	return o, nil
}

// NaN and infinities fail both checks.
func validFrequency(f float64) bool { return f > 0 && !math.IsInf(f, 1) }
func validAmplitude(a float64) bool { return a >= 0 && !math.IsInf(a, 1) }

func validate(frequency, amplitude float64, kind Kind, sampleRate float64) error {
	switch {
	case !validFrequency(frequency):
		return errors.Wrapf(ErrInvalidFrequency, "got %v", frequency)
	case !validAmplitude(amplitude):
		return errors.Wrapf(ErrInvalidAmplitude, "got %v", amplitude)
	case !kind.Valid():
		return errors.Wrapf(ErrInvalidKind, "got %d", kind)
	case !(sampleRate > 0):
		return errors.Wrapf(ErrInvalidSampleRate, "got %v", sampleRate)
	}
	return nil
}

// Init (re)configures the oscillator: builds the table for kind, computes
// the phase increment and resets phase, index and results. On error the
// oscillator is left untouched.
func (o *Oscillator) Init(frequency, amplitude float64, kind Kind, sampleRate float64) error {
	if err := validate(frequency, amplitude, kind, sampleRate); err != nil {
		return err
	}

	o.frequency = frequency
	o.amplitude = amplitude
	o.sampleRate = sampleRate
	o.kind = kind
	o.table.build(kind)
	o.phaseIncrement = o.calculatePhaseIncrement()
	o.phase = 0
	o.index = 0
	o.result = Sample{}
	return nil
}

func (o *Oscillator) calculatePhaseIncrement() float64 {
	return TableSize * o.frequency / o.sampleRate
}

// SetFrequency changes the frequency and recomputes the phase increment.
// The phase is kept so the waveform stays continuous.
func (o *Oscillator) SetFrequency(frequency float64) error {
	if !validFrequency(frequency) {
		return errors.Wrapf(ErrInvalidFrequency, "got %v", frequency)
	}
	o.frequency = frequency
	o.phaseIncrement = o.calculatePhaseIncrement()
	return nil
}

// SetAmplitude changes the continuous output scale.
func (o *Oscillator) SetAmplitude(amplitude float64) error {
	if !validAmplitude(amplitude) {
		return errors.Wrapf(ErrInvalidAmplitude, "got %v", amplitude)
	}
	o.amplitude = amplitude
	return nil
}

// SetKind rebuilds the wavetable for a new waveform without touching phase.
func (o *Oscillator) SetKind(kind Kind) error {
	if !kind.Valid() {
		return errors.Wrapf(ErrInvalidKind, "got %d", kind)
	}
	o.kind = kind
	o.table.build(kind)
	return nil
}

// Step reads the sample at the current table index, then advances the
// phase. The new index is derived with a modulo so it stays in range even
// when the increment is larger than the table.
func (o *Oscillator) Step() Sample {
	s := Sample{
		Value: o.amplitude * o.table.values[o.index],
		Bool:  o.table.bools[o.index],
	}

	o.phase += o.phaseIncrement
	o.index = int(math.Mod(math.Floor(o.phase), TableSize))

	o.result = s
	return s
}

func (o *Oscillator) ID() int                 { return o.id }
func (o *Oscillator) Frequency() float64      { return o.frequency }
func (o *Oscillator) Amplitude() float64      { return o.amplitude }
func (o *Oscillator) Kind() Kind              { return o.kind }
func (o *Oscillator) SampleRate() float64     { return o.sampleRate }
func (o *Oscillator) Phase() float64          { return o.phase }
func (o *Oscillator) PhaseIncrement() float64 { return o.phaseIncrement }
func (o *Oscillator) Index() int              { return o.index }

// Result returns the sample computed by the last Step.
func (o *Oscillator) Result() Sample { return o.result }

// Wraps returns how many full table periods the phase has covered.
func (o *Oscillator) Wraps() uint64 {
	return uint64(o.phase / TableSize)
}
