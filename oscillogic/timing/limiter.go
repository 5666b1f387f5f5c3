package timing

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultSampleRate is the tick rate of the sampling timer in Hz.
const DefaultSampleRate = 10000

var ErrUnknownLimiter = errors.New("unknown limiter")

// Limiter paces the sampling timer.
type Limiter interface {
	// WaitForNextTick blocks until the next tick is due.
	// Returns immediately if timing is behind schedule.
	WaitForNextTick()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (offline rendering).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextTick() {}
func (n *noOpLimiter) Reset()           {}

// minPeriod is the shortest period a limiter accepts.
const minPeriod = time.Nanosecond

// TickDuration returns the period of one tick at the given rate. Rates too
// high to express in nanoseconds give zero.
func TickDuration(sampleRate float64) time.Duration {
	return time.Duration(float64(time.Second) / sampleRate)
}

// Limiter names accepted by NewLimiter.
const (
	LimiterTicker   = "ticker"
	LimiterAdaptive = "adaptive"
	LimiterNone     = "none"
)

// NewLimiter builds a limiter by name for the given tick rate.
func NewLimiter(name string, sampleRate float64) (Limiter, error) {
	switch strings.ToLower(name) {
	case LimiterTicker:
		return NewTickerLimiter(TickDuration(sampleRate)), nil
	case LimiterAdaptive, "":
		return NewAdaptiveLimiter(TickDuration(sampleRate)), nil
	case LimiterNone:
		return NewNoOpLimiter(), nil
	}
	return nil, errors.Wrapf(ErrUnknownLimiter, "%q", name)
}
