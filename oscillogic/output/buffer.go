package output

import (
	"sync"

	"github.com/pkg/errors"
)

// BufferSize is the number of codes in one published batch.
const BufferSize = 256

var (
	ErrNotReady       = errors.New("no sample batch ready")
	ErrBufferTooSmall = errors.New("destination buffer too small")
)

// SampleBuffer collects emitted codes into batches of BufferSize. It is
// double buffered: while one half is being filled by the tick, the other
// holds the last complete batch for the consumer. An undrained batch is
// replaced whole by the next one, never overwritten in place.
type SampleBuffer struct {
	mu     sync.Mutex
	halves [2][BufferSize]int8
	active int // half being written
	cursor int // next write index in the active half

	ready     bool
	readyHalf int

	batches     uint64
	overwritten uint64

	onReady func()
}

func NewSampleBuffer() *SampleBuffer {
	return &SampleBuffer{}
}

// RegisterReadyCallback sets the function invoked each time a batch is
// published. It runs on the producer goroutine, outside the buffer lock, and
// must not block. Passing nil removes the callback.
func (b *SampleBuffer) RegisterReadyCallback(fn func()) {
	b.mu.Lock()
	b.onReady = fn
	b.mu.Unlock()
}

// Push appends one code. Filling the active half publishes it as the ready
// batch and moves writing to index 0 of the other half.
func (b *SampleBuffer) Push(code int8) {
	b.mu.Lock()
	b.halves[b.active][b.cursor] = code
	b.cursor++

	var notify func()
	if b.cursor == BufferSize {
		if b.ready {
			b.overwritten++
		}
		b.readyHalf = b.active
		b.ready = true
		b.batches++
		b.active ^= 1
		b.cursor = 0
		notify = b.onReady
	}
	b.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// GetSamples copies the pending batch into dst in emission order and clears
// readiness. dst must hold at least BufferSize codes.
func (b *SampleBuffer) GetSamples(dst []int8) (int, error) {
	if len(dst) < BufferSize {
		return 0, errors.Wrapf(ErrBufferTooSmall, "need %d, got %d", BufferSize, len(dst))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ready {
		return 0, ErrNotReady
	}
	n := copy(dst, b.halves[b.readyHalf][:])
	b.ready = false
	return n, nil
}

// Ready reports whether a complete batch is waiting.
func (b *SampleBuffer) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Cursor is the next write index in the half being filled.
func (b *SampleBuffer) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Batches counts published batches.
func (b *SampleBuffer) Batches() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batches
}

// Overwritten counts batches replaced before anyone drained them.
func (b *SampleBuffer) Overwritten() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overwritten
}
