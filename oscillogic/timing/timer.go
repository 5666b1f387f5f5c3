package timing

import (
	"context"
)

// InterruptHandler is called once per tick from the timer goroutine. It must
// not block; the return value reports whether the tick was accepted.
type InterruptHandler func() bool

// Timer is the fixed-period tick source. It paces itself with a Limiter and
// raises its interrupt handler on every tick.
type Timer struct {
	limiter Limiter

	// TickInterruptHandler is invoked on each tick.
	TickInterruptHandler InterruptHandler

	ticks    uint64
	rejected uint64
}

func NewTimer(limiter Limiter, handler InterruptHandler) *Timer {
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}
	return &Timer{limiter: limiter, TickInterruptHandler: handler}
}

// Run fires ticks until ctx is cancelled or maxTicks have been raised
// (0 means no limit). It returns the number of ticks raised.
func (t *Timer) Run(ctx context.Context, maxTicks uint64) uint64 {
	t.limiter.Reset()
	if s, ok := t.limiter.(interface{ Stop() }); ok {
		defer s.Stop()
	}

	var raised uint64
	for maxTicks == 0 || raised < maxTicks {
		if ctx.Err() != nil {
			break
		}
		t.limiter.WaitForNextTick()
		t.fire()
		raised++
	}
	return raised
}

func (t *Timer) fire() {
	t.ticks++
	if t.TickInterruptHandler == nil {
		return
	}
	if !t.TickInterruptHandler() {
		t.rejected++
	}
}

// Ticks returns how many ticks the timer raised. Only meaningful after Run
// returns.
func (t *Timer) Ticks() uint64 { return t.ticks }

// Rejected returns how many ticks the handler refused.
func (t *Timer) Rejected() uint64 { return t.rejected }
