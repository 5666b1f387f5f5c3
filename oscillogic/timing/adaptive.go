package timing

import (
	"log/slog"
	"time"
)

// busyWaitThreshold is the remaining wait below which the limiter spins
// instead of sleeping.
const busyWaitThreshold = 2 * time.Millisecond

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	period      time.Duration
	nextTick    time.Time
	start       time.Time
	tickCounter int64

	// drift is checked every checkEvery ticks, roughly once a second
	checkEvery int64
}

func NewAdaptiveLimiter(period time.Duration) *AdaptiveLimiter {
	period = max(period, minPeriod)
	now := time.Now()
	checkEvery := int64(time.Second / period)
	if checkEvery < 1 {
		checkEvery = 1
	}
	return &AdaptiveLimiter{
		period:     period,
		nextTick:   now,
		start:      now,
		checkEvery: checkEvery,
	}
}

func (a *AdaptiveLimiter) WaitForNextTick() {
	now := time.Now()
	sleepTime := a.nextTick.Sub(now)

	if sleepTime > 0 {
		if sleepTime >= busyWaitThreshold {
			time.Sleep(sleepTime - time.Millisecond)
		}
		for time.Now().Before(a.nextTick) {
		}
	} else if sleepTime < -50*a.period {
		// too far behind to catch up, drop the backlog
		a.nextTick = now
	}

	a.nextTick = a.nextTick.Add(a.period)
	a.tickCounter++

	if a.tickCounter%a.checkEvery == 0 {
		actual := time.Now()
		drift := actual.Sub(a.nextTick)

		if drift.Abs() > 10*a.period {
			a.nextTick = a.nextTick.Add(drift / 10)
			elapsed := actual.Sub(a.start).Seconds()
			slog.Debug("Tick timing drift correction",
				"drift_us", drift.Microseconds(),
				"rate_hz", float64(a.tickCounter)/elapsed)
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	now := time.Now()
	a.nextTick = now
	a.start = now
	a.tickCounter = 0
}
