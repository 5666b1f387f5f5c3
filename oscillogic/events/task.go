package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultOverrunWindow = 64
	DefaultLogInterval   = 5 * time.Second
)

// TaskConfig tunes a Task.
type TaskConfig struct {
	// Period is the nominal tick period; a cycle longer than this is an
	// overrun.
	Period time.Duration
	// Window is the number of cycles kept for the rolling statistics.
	Window int
	// LogInterval is how often the timing report is logged. Zero disables
	// the report.
	LogInterval time.Duration
}

// TaskStats is a snapshot of the task's timing counters.
type TaskStats struct {
	Cycles     uint64
	Overruns   uint64
	Dropped    uint64
	AvgCycle   time.Duration // over the rolling window
	MaxCycle   time.Duration // over the rolling window
	AvgLatency time.Duration // timer-to-task delay over the rolling window
}

// Task is the cooperating context that performs one evaluation per tick
// received from the scheduler. It also supervises the scheduler: dropped
// ticks are picked up from the overflow flag and logged.
type Task struct {
	sched *Scheduler
	work  func()
	cfg   TaskConfig

	mu        sync.Mutex
	cycles    uint64
	overruns  uint64
	dropped   uint64
	durations []time.Duration
	latencies []time.Duration
	next      int
	filled    int

	lastReport       time.Time
	lastReportCycles uint64
}

// NewTask wires work to the scheduler's ticks.
func NewTask(sched *Scheduler, work func(), cfg TaskConfig) *Task {
	if cfg.Window < 1 {
		cfg.Window = DefaultOverrunWindow
	}
	return &Task{
		sched:     sched,
		work:      work,
		cfg:       cfg,
		durations: make([]time.Duration, cfg.Window),
		latencies: make([]time.Duration, cfg.Window),
	}
}

// Run processes ticks until ctx is cancelled. Ticks still queued at
// cancellation are processed before returning so that none that were
// accepted are lost.
func (t *Task) Run(ctx context.Context) error {
	t.mu.Lock()
	t.lastReport = time.Now()
	t.lastReportCycles = t.cycles
	t.mu.Unlock()

	for {
		select {
		case tick := <-t.sched.Events():
			t.handle(tick)
		case <-ctx.Done():
			t.drain()
			t.supervise()
			return nil
		}
	}
}

func (t *Task) drain() {
	for {
		select {
		case tick := <-t.sched.Events():
			t.handle(tick)
		default:
			return
		}
	}
}

func (t *Task) handle(tick Tick) {
	start := time.Now()
	if t.work != nil {
		t.work()
	}
	elapsed := time.Since(start)

	t.record(elapsed, start.Sub(tick.At))
	t.supervise()
}

func (t *Task) record(elapsed, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cycles++
	t.durations[t.next] = elapsed
	t.latencies[t.next] = latency
	t.next = (t.next + 1) % len(t.durations)
	if t.filled < len(t.durations) {
		t.filled++
	}

	if t.cfg.Period > 0 && elapsed > t.cfg.Period {
		t.overruns++
	}
}

// supervise polls the scheduler's overflow flag and emits the periodic
// timing report.
func (t *Task) supervise() {
	if t.sched.TakeOverflow() {
		dropped := t.sched.Dropped()
		t.mu.Lock()
		newly := dropped - t.dropped
		t.dropped = dropped
		t.mu.Unlock()
		slog.Warn("Ticks dropped, task is not keeping up", "dropped", newly, "total_dropped", dropped)
	}

	if t.cfg.LogInterval <= 0 {
		return
	}

	now := time.Now()
	t.mu.Lock()
	since := now.Sub(t.lastReport)
	if since < t.cfg.LogInterval {
		t.mu.Unlock()
		return
	}
	cycles := t.cycles - t.lastReportCycles
	t.lastReport = now
	t.lastReportCycles = t.cycles
	t.mu.Unlock()

	stats := t.Stats()
	slog.Info("Timing report",
		"cycles", stats.Cycles,
		"avg_cycle_us", float64(stats.AvgCycle.Nanoseconds())/1e3,
		"max_cycle_us", float64(stats.MaxCycle.Nanoseconds())/1e3,
		"avg_latency_us", float64(stats.AvgLatency.Nanoseconds())/1e3,
		"overruns", stats.Overruns,
		"dropped", stats.Dropped,
		"effective_hz", float64(cycles)/since.Seconds())
}

// Stats returns the current counters and the rolling window averages.
func (t *Task) Stats() TaskStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := TaskStats{
		Cycles:   t.cycles,
		Overruns: t.overruns,
		Dropped:  t.sched.Dropped(),
	}
	if t.filled == 0 {
		return s
	}

	var sum, lat time.Duration
	for i := range t.filled {
		d := t.durations[i]
		sum += d
		lat += t.latencies[i]
		if d > s.MaxCycle {
			s.MaxCycle = d
		}
	}
	s.AvgCycle = sum / time.Duration(t.filled)
	s.AvgLatency = lat / time.Duration(t.filled)
	return s
}
