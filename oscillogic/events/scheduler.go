package events

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultQueueDepth matches the single pending tick of the hardware event
// loop: a tick is either consumed before the next one or dropped.
const DefaultQueueDepth = 1

// Tick is the message posted from the timer to the cooperating task.
type Tick struct {
	Seq uint64    // sequence number of the posted tick
	At  time.Time // when the timer raised it
}

// Scheduler is the bounded hand-off between the timer interrupt and the
// evaluation task. Post never blocks; ticks that find the queue full are
// counted and flagged instead.
type Scheduler struct {
	ticks   chan Tick
	running atomic.Bool

	seq       atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	overflow  atomic.Bool
}

// NewScheduler creates a scheduler with a queue of depth entries.
func NewScheduler(depth int) *Scheduler {
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	return &Scheduler{ticks: make(chan Tick, depth)}
}

// Post hands a tick to the task. It is safe to call from the timer
// goroutine: it never blocks and never allocates. It returns false when the
// scheduler is stopped or the queue is full.
func (s *Scheduler) Post() bool {
	if !s.running.Load() {
		return false
	}

	select {
	case s.ticks <- Tick{Seq: s.seq.Add(1), At: time.Now()}:
		s.delivered.Add(1)
		return true
	default:
		s.dropped.Add(1)
		s.overflow.Store(true)
		return false
	}
}

// PostWait is the blocking variant used for offline rendering, where every
// tick must be evaluated. It returns ctx.Err() if cancelled first.
func (s *Scheduler) PostWait(ctx context.Context) error {
	select {
	case s.ticks <- Tick{Seq: s.seq.Add(1), At: time.Now()}:
		s.delivered.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is the receive side, consumed by the task.
func (s *Scheduler) Events() <-chan Tick {
	return s.ticks
}

// TakeOverflow reports whether any tick was dropped since the last call and
// clears the flag.
func (s *Scheduler) TakeOverflow() bool {
	return s.overflow.Swap(false)
}

// Start begins accepting ticks.
func (s *Scheduler) Start() {
	s.running.Store(true)
}

// Stop stops accepting ticks and drains the queue.
func (s *Scheduler) Stop() {
	s.running.Store(false)

	for {
		select {
		case <-s.ticks:
		default:
			return
		}
	}
}

func (s *Scheduler) Running() bool     { return s.running.Load() }
func (s *Scheduler) Delivered() uint64 { return s.delivered.Load() }
func (s *Scheduler) Dropped() uint64   { return s.dropped.Load() }

// Pending returns the number of queued ticks.
func (s *Scheduler) Pending() int {
	return len(s.ticks)
}
