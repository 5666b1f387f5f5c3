package timing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickDuration(t *testing.T) {
	assert.Equal(t, 100*time.Microsecond, TickDuration(DefaultSampleRate))
	assert.Equal(t, time.Millisecond, TickDuration(1000))
	assert.Zero(t, TickDuration(2e9))
}

func TestLimiters_ZeroPeriod(t *testing.T) {
	a := NewAdaptiveLimiter(0)
	assert.Equal(t, minPeriod, a.period)
	assert.Equal(t, int64(time.Second/minPeriod), a.checkEvery)

	tl := NewTickerLimiter(TickDuration(2e9))
	defer tl.Stop()
	assert.Equal(t, minPeriod, tl.period)
	tl.WaitForNextTick()
}

func TestNewLimiter(t *testing.T) {
	tests := []struct {
		name string
		want any
	}{
		{LimiterTicker, &TickerLimiter{}},
		{LimiterAdaptive, &AdaptiveLimiter{}},
		{"", &AdaptiveLimiter{}},
		{"NONE", &noOpLimiter{}},
	}
	for _, tt := range tests {
		l, err := NewLimiter(tt.name, 1000)
		require.NoError(t, err, tt.name)
		assert.IsType(t, tt.want, l, tt.name)
		if s, ok := l.(*TickerLimiter); ok {
			s.Stop()
		}
	}

	_, err := NewLimiter("sundial", 1000)
	assert.ErrorIs(t, err, ErrUnknownLimiter)
}

func TestAdaptiveLimiter_Paces(t *testing.T) {
	l := NewAdaptiveLimiter(time.Millisecond)
	l.Reset()

	start := time.Now()
	for range 20 {
		l.WaitForNextTick()
	}
	// first tick is due immediately
	assert.GreaterOrEqual(t, time.Since(start), 19*time.Millisecond)
}

func TestTickerLimiter_Paces(t *testing.T) {
	l := NewTickerLimiter(time.Millisecond)
	defer l.Stop()

	start := time.Now()
	for range 10 {
		l.WaitForNextTick()
	}
	assert.GreaterOrEqual(t, time.Since(start), 9*time.Millisecond)
}

func TestTimer_RunsUntilLimit(t *testing.T) {
	var calls int
	timer := NewTimer(NewNoOpLimiter(), func() bool {
		calls++
		return calls%3 != 0
	})

	raised := timer.Run(context.Background(), 30)
	assert.Equal(t, uint64(30), raised)
	assert.Equal(t, 30, calls)
	assert.Equal(t, uint64(30), timer.Ticks())
	assert.Equal(t, uint64(10), timer.Rejected())
}

func TestTimer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	timer := NewTimer(nil, func() bool {
		calls++
		if calls == 5 {
			cancel()
		}
		return true
	})

	raised := timer.Run(ctx, 0)
	assert.Equal(t, uint64(5), raised)
	assert.Zero(t, timer.Rejected())
}

func TestTimer_NilHandler(t *testing.T) {
	timer := NewTimer(NewNoOpLimiter(), nil)
	assert.Equal(t, uint64(4), timer.Run(context.Background(), 4))
	assert.Zero(t, timer.Rejected())
}
