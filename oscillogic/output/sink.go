package output

import (
	"io"
	"sync"

	"github.com/valerio/go-oscillogic/oscillogic/bit"
)

// DefaultOversampleRatio is the number of modulator bits emitted per tick.
const DefaultOversampleRatio = 64

// DutySink is the one-bit modulated output device. It accepts the desired
// signed 8-bit level once per tick and must not block.
type DutySink interface {
	SetPulseDensity(density int8)
}

// NopSink discards every density.
type NopSink struct{}

func (NopSink) SetPulseDensity(int8) {}

var (
	_ DutySink = NopSink{}
	_ DutySink = (*SigmaDelta)(nil)
	_ DutySink = (*DutyMeter)(nil)
)

// SigmaDelta is a software first-order one-bit modulator. Each density is
// expanded to ratio bits whose average approximates (density+128)/256.
type SigmaDelta struct {
	mu     sync.Mutex
	ratio  int
	acc    int
	packer *bit.Packer
	async  *bit.AsyncWriter
	err    error
}

type SigmaDeltaOption func(*sigmaDeltaOptions)

type sigmaDeltaOptions struct {
	depth        int
	backpressure bool
}

// WithBackpressure makes SetPulseDensity wait for the writer instead of
// dropping bytes when it falls behind. Only for offline rendering.
func WithBackpressure() SigmaDeltaOption {
	return func(o *sigmaDeltaOptions) { o.backpressure = true }
}

// WithWriteDepth sets how many 512-byte buffers may wait for the writer.
func WithWriteDepth(depth int) SigmaDeltaOption {
	return func(o *sigmaDeltaOptions) { o.depth = depth }
}

// NewSigmaDelta creates a modulator writing its bitstream to w from a
// separate goroutine, so SetPulseDensity never performs I/O. A nil w only
// keeps the counters.
func NewSigmaDelta(ratio int, w io.Writer, opts ...SigmaDeltaOption) *SigmaDelta {
	if ratio < 1 {
		ratio = DefaultOversampleRatio
	}
	o := sigmaDeltaOptions{depth: bit.DefaultAsyncDepth}
	for _, opt := range opts {
		opt(&o)
	}

	s := &SigmaDelta{ratio: ratio}
	if w != nil {
		s.async = bit.NewAsyncWriter(w, o.depth, o.backpressure)
		w = s.async
	}
	s.packer = bit.NewPacker(w)
	return s
}

func (s *SigmaDelta) SetPulseDensity(density int8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}

	level := int(density) + 128
	for range s.ratio {
		s.acc += level
		one := s.acc >= 256
		if one {
			s.acc -= 256
		}
		if err := s.packer.WriteBit(one); err != nil {
			s.err = err
			return
		}
	}
}

// Ratio is the oversampling ratio in bits per tick.
func (s *SigmaDelta) Ratio() int { return s.ratio }

// Level returns the average of the emitted bitstream in [0, 1].
func (s *SigmaDelta) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.packer.Bits() == 0 {
		return 0
	}
	return float64(s.packer.Ones()) / float64(s.packer.Bits())
}

// Bits returns the number of bits emitted so far.
func (s *SigmaDelta) Bits() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packer.Bits()
}

// Err returns the first write error, if any. Once set the modulator stops
// emitting.
func (s *SigmaDelta) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Dropped is the number of bitstream bytes lost because the writer fell
// behind.
func (s *SigmaDelta) Dropped() uint64 {
	if s.async == nil {
		return 0
	}
	return s.async.Dropped()
}

// Flush writes any buffered bits, waits for the writer and closes the
// stream. The modulator must not be driven after Flush.
func (s *SigmaDelta) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = s.packer.Flush()
	}
	if s.async != nil {
		if err := s.async.Close(); err != nil && s.err == nil {
			s.err = err
		}
	}
	return s.err
}

// DutyMeter records every density it is driven with.
type DutyMeter struct {
	mu        sync.Mutex
	densities []int8
}

func (m *DutyMeter) SetPulseDensity(density int8) {
	m.mu.Lock()
	m.densities = append(m.densities, density)
	m.mu.Unlock()
}

// Densities returns a copy of everything recorded so far.
func (m *DutyMeter) Densities() []int8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int8, len(m.densities))
	copy(out, m.densities)
	return out
}

// Last returns the most recent density and whether there is one.
func (m *DutyMeter) Last() (int8, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.densities) == 0 {
		return 0, false
	}
	return m.densities[len(m.densities)-1], true
}
