package audio

import "sync"

// Ring is a thread-safe circular buffer of PCM samples fed with output
// batches. When full, the oldest samples are overwritten so the producer
// never blocks.
type Ring struct {
	mu      sync.Mutex
	buf     []int16
	head    int // next write position
	len     int
	dropped uint64
	starved uint64
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]int16, capacity)}
}

// WriteBatch appends a batch of output codes as PCM.
func (r *Ring) WriteBatch(batch []int8) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range batch {
		r.buf[r.head] = ToPCM(c)
		r.head = (r.head + 1) % len(r.buf)
		if r.len < len(r.buf) {
			r.len++
		} else {
			r.dropped++
		}
	}
	return nil
}

// GetSamples returns the count oldest samples, padding with silence when the
// ring runs dry.
func (r *Ring) GetSamples(count int) []int16 {
	out := make([]int16, count)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(count, r.len)
	start := (r.head - r.len + len(r.buf)) % len(r.buf)
	for i := range n {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	r.len -= n
	if n < count {
		r.starved += uint64(count - n)
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.len
}

// Dropped counts samples overwritten before playback.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Starved counts silent samples handed out on underrun.
func (r *Ring) Starved() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starved
}
