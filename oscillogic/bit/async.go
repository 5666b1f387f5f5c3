package bit

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// DefaultAsyncDepth is the number of buffers an AsyncWriter keeps in flight.
const DefaultAsyncDepth = 32

var ErrWriterClosed = errors.New("async writer closed")

// AsyncWriter hands writes to a goroutine that performs them on the
// underlying writer, so Write never waits on I/O. It owns a fixed set of
// buffers; when all of them are queued a write is dropped and counted,
// unless the writer was created with backpressure, in which case Write
// waits for a buffer to come back.
type AsyncWriter struct {
	w            io.Writer
	queue        chan []byte
	free         chan []byte
	done         chan struct{}
	backpressure bool

	closed  bool
	dropped atomic.Uint64
	written atomic.Uint64

	mu  sync.Mutex
	err error
}

// NewAsyncWriter starts the writer goroutine. Close stops it.
func NewAsyncWriter(w io.Writer, depth int, backpressure bool) *AsyncWriter {
	if depth < 1 {
		depth = DefaultAsyncDepth
	}
	a := &AsyncWriter{
		w:            w,
		queue:        make(chan []byte, depth),
		free:         make(chan []byte, depth),
		done:         make(chan struct{}),
		backpressure: backpressure,
	}
	for range depth {
		a.free <- make([]byte, 0, defaultPackerBuffer)
	}
	go a.run()
	return a
}

// Write copies p into a free buffer and queues it. It returns the first
// error the goroutine hit, if any. Write and Close must not be called
// concurrently.
func (a *AsyncWriter) Write(p []byte) (int, error) {
	if a.closed {
		return 0, ErrWriterClosed
	}
	if err := a.Err(); err != nil {
		return 0, err
	}

	var buf []byte
	if a.backpressure {
		buf = <-a.free
	} else {
		select {
		case buf = <-a.free:
		default:
			a.dropped.Add(uint64(len(p)))
			return len(p), nil
		}
	}

	// queue has room for every buffer, so this send never blocks
	a.queue <- append(buf[:0], p...)
	return len(p), nil
}

func (a *AsyncWriter) run() {
	defer close(a.done)
	for buf := range a.queue {
		if a.Err() == nil {
			n, err := a.w.Write(buf)
			a.written.Add(uint64(n))
			if err != nil {
				a.mu.Lock()
				a.err = errors.Wrap(err, "async write")
				a.mu.Unlock()
			}
		}
		a.free <- buf
	}
}

// Close waits for queued buffers to be written and stops the goroutine.
func (a *AsyncWriter) Close() error {
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	<-a.done
	return a.Err()
}

func (a *AsyncWriter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Dropped is the number of bytes discarded because no buffer was free.
func (a *AsyncWriter) Dropped() uint64 { return a.dropped.Load() }

// Written is the number of bytes the underlying writer accepted.
func (a *AsyncWriter) Written() uint64 { return a.written.Load() }
