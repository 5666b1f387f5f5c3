package oscillogic

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/valerio/go-oscillogic/oscillogic/events"
	"github.com/valerio/go-oscillogic/oscillogic/output"
	"github.com/valerio/go-oscillogic/oscillogic/timing"
)

var ErrInvalidConfig = errors.New("invalid engine configuration")

// Config holds the engine parameters. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// SampleRate is the tick rate in Hz.
	SampleRate float64
	// OversampleRatio is the number of one-bit output slots per tick.
	OversampleRatio int
	// QueueDepth bounds the timer to task hand-off.
	QueueDepth int
	// OverrunWindow is the number of cycles in the task's rolling window.
	OverrunWindow int
	// LogInterval is the period of the timing report, 0 disables it.
	LogInterval time.Duration
	// MaxTicks stops Run after that many ticks, 0 means run until cancelled.
	MaxTicks uint64
	// Limiter paces the timer: "adaptive", "ticker" or "none". With "none"
	// the engine renders offline and no tick is ever dropped.
	Limiter string
	// Monitor enables the batch monitor during Run. While it runs it is the
	// consumer of the sample buffer.
	Monitor bool
}

func DefaultConfig() Config {
	return Config{
		SampleRate:      timing.DefaultSampleRate,
		OversampleRatio: output.DefaultOversampleRatio,
		QueueDepth:      events.DefaultQueueDepth,
		OverrunWindow:   events.DefaultOverrunWindow,
		LogInterval:     events.DefaultLogInterval,
		Limiter:         timing.LimiterAdaptive,
		Monitor:         true,
	}
}

func (c Config) Validate() error {
	if !(c.SampleRate > 0) {
		return errors.Wrapf(ErrInvalidConfig, "sample rate must be positive, got %v", c.SampleRate)
	}
	if math.IsInf(c.SampleRate, 1) || timing.TickDuration(c.SampleRate) <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "sample rate %v Hz is too high for a tick period", c.SampleRate)
	}
	if c.OversampleRatio < 1 {
		return errors.Wrapf(ErrInvalidConfig, "oversample ratio must be at least 1, got %d", c.OversampleRatio)
	}
	if c.QueueDepth < 1 {
		return errors.Wrapf(ErrInvalidConfig, "queue depth must be at least 1, got %d", c.QueueDepth)
	}
	if c.OverrunWindow < 1 {
		return errors.Wrapf(ErrInvalidConfig, "overrun window must be at least 1, got %d", c.OverrunWindow)
	}
	if c.LogInterval < 0 {
		return errors.Wrapf(ErrInvalidConfig, "log interval must not be negative, got %v", c.LogInterval)
	}
	switch strings.ToLower(c.Limiter) {
	case timing.LimiterAdaptive, timing.LimiterTicker, timing.LimiterNone, "":
	default:
		return errors.Wrapf(timing.ErrUnknownLimiter, "%q", c.Limiter)
	}
	return nil
}

// Offline reports whether ticks are rendered as fast as possible with a
// blocking hand-off.
func (c Config) Offline() bool {
	return strings.ToLower(c.Limiter) == timing.LimiterNone
}
