package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent tick timing.
// The runtime coalesces ticks it cannot deliver, so at high rates it runs
// slow rather than bursting.
type TickerLimiter struct {
	period time.Duration
	ticker *time.Ticker
	ch     <-chan time.Time
}

func NewTickerLimiter(period time.Duration) *TickerLimiter {
	period = max(period, minPeriod)
	ticker := time.NewTicker(period)
	return &TickerLimiter{
		period: period,
		ticker: ticker,
		ch:     ticker.C,
	}
}

func (t *TickerLimiter) WaitForNextTick() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.period)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
