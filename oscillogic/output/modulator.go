package output

import "sync/atomic"

// Modulator turns the pipeline result into the output code, drives the duty
// sink and records the code in the sample buffer.
type Modulator struct {
	sink   DutySink
	buffer *SampleBuffer

	last    atomic.Int32
	emitted atomic.Uint64
}

// NewModulator creates a modulator. A nil sink is replaced by NopSink and a
// nil buffer disables recording.
func NewModulator(sink DutySink, buffer *SampleBuffer) *Modulator {
	if sink == nil {
		sink = NopSink{}
	}
	m := &Modulator{sink: sink, buffer: buffer}
	m.last.Store(int32(CodeLow))
	return m
}

// Emit outputs one tick's result and returns the code written.
func (m *Modulator) Emit(result bool) int8 {
	code := Code(result)
	m.sink.SetPulseDensity(code)
	if m.buffer != nil {
		m.buffer.Push(code)
	}
	m.last.Store(int32(code))
	m.emitted.Add(1)
	return code
}

// Hold re-drives the sink with the last emitted code without recording a
// new sample.
func (m *Modulator) Hold() int8 {
	code := m.Last()
	m.sink.SetPulseDensity(code)
	return code
}

// Last is the most recent code, CodeLow before the first Emit.
func (m *Modulator) Last() int8 { return int8(m.last.Load()) }

// Emitted counts Emit calls.
func (m *Modulator) Emitted() uint64 { return m.emitted.Load() }

func (m *Modulator) Sink() DutySink { return m.sink }
