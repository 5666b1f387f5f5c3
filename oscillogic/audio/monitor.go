package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/valerio/go-oscillogic/oscillogic/output"
)

// BatchSink consumes complete output batches.
type BatchSink interface {
	WriteBatch(batch []int8) error
}

// BatchSource is where the monitor pulls batches from.
type BatchSource interface {
	GetSamples(dst []int8) (int, error)
}

var (
	_ BatchSink   = (*Ring)(nil)
	_ BatchSink   = (*WAVRecorder)(nil)
	_ BatchSource = (*output.SampleBuffer)(nil)
)

// Monitor drains published batches off the tick path and fans them out to
// its sinks. Notify is meant to be registered as the buffer ready callback;
// it only signals and never blocks the tick.
type Monitor struct {
	src    BatchSource
	notify chan struct{}

	mu      sync.Mutex
	sinks   []BatchSink
	last    []int8
	batches uint64
	errs    uint64
}

func NewMonitor(src BatchSource, sinks ...BatchSink) *Monitor {
	return &Monitor{
		src:    src,
		notify: make(chan struct{}, 1),
		sinks:  sinks,
	}
}

// AddSink attaches another sink. Safe to call while Run is active.
func (m *Monitor) AddSink(s BatchSink) {
	m.mu.Lock()
	m.sinks = append(m.sinks, s)
	m.mu.Unlock()
}

// Notify wakes the monitor. Extra notifications coalesce.
func (m *Monitor) Notify() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Run drains batches until ctx is cancelled. A last pending batch is
// collected on the way out.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		select {
		case <-m.notify:
			m.collect()
		case <-ctx.Done():
			m.collect()
			return nil
		}
	}
}

func (m *Monitor) collect() {
	batch := make([]int8, output.BufferSize)
	n, err := m.src.GetSamples(batch)
	if errors.Is(err, output.ErrNotReady) {
		return
	}
	if err != nil {
		slog.Error("Failed to read sample batch", "error", err)
		return
	}
	batch = batch[:n]

	m.mu.Lock()
	m.last = batch
	m.batches++
	sinks := m.sinks
	m.mu.Unlock()

	for _, s := range sinks {
		if err := s.WriteBatch(batch); err != nil {
			m.mu.Lock()
			m.errs++
			m.mu.Unlock()
			slog.Warn("Monitor sink failed", "error", err)
		}
	}
}

// Last returns the most recently collected batch, nil before the first.
func (m *Monitor) Last() []int8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Batches counts batches collected.
func (m *Monitor) Batches() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// Errors counts failed sink writes.
func (m *Monitor) Errors() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs
}
