package timing

import (
	"log/slog"
	"time"
)

// maxScheduleDebt bounds how much emulated time the limiter tries to
// claw back after an overrun or a pause before giving up and
// resynchronizing. One second of debt is a hundred back-to-back slices,
// already a noticeable fast-forward.
const maxScheduleDebt = time.Second

// AdaptiveLimiter paces slices against an absolute deadline ladder: each
// wait sleeps until the next rung rather than for a fixed interval, so
// per-slice scheduler jitter cancels out instead of accumulating into
// clock drift. A 10ms slice is coarse next to sleep wakeup error, which
// keeps the emulated clock within a fraction of a slice of 1 MHz without
// busy-waiting.
//
// When the emulation overruns, the missed rungs are left standing and
// the following slices run back-to-back until the ladder is caught up.
// Past maxScheduleDebt the ladder restarts from now, trading the lost
// emulated time for a responsive machine (e.g. after a debugger stop or
// a laptop suspend).
type AdaptiveLimiter struct {
	sliceTime time.Duration
	deadline  time.Time
	resyncs   int64
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return &AdaptiveLimiter{
		sliceTime: SliceDuration(),
		deadline:  time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextSlice() {
	a.deadline = a.deadline.Add(a.sliceTime)
	now := time.Now()

	if wait := a.deadline.Sub(now); wait > 0 {
		time.Sleep(wait)
		return
	}

	if debt := now.Sub(a.deadline); debt > maxScheduleDebt {
		a.deadline = now
		a.resyncs++
		slog.Debug("emulated clock fell behind, resynchronized",
			"debt_ms", debt.Milliseconds(), "resyncs", a.resyncs)
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.deadline = time.Now()
}
