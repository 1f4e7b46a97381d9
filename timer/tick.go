package timer

import (
	"context"
	"time"

	"github.com/abstudio/pomo/internal/timeutil"
)

const (
	// tickInterval is deliberately shorter than one second so that a
	// throttled or briefly suspended process still detects expiry close to
	// the true completion instant.
	tickInterval = 250 * time.Millisecond

	// persistInterval bounds data loss on an ungraceful shutdown while
	// running. Command writes persist immediately; tick refreshes only on
	// this coarser cadence.
	persistInterval = 5 * time.Second
)

// Run drives the recurring tick evaluation until the context is cancelled.
// It is the engine's only background activity and has no cross-surface
// lifecycle dependency: closing one surface stops only that surface's
// loop.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.flush()
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick re-derives the remaining time from the absolute end instant. The
// cached remaining seconds are refreshed only when their value changes, to
// avoid needless downstream writes.
func (t *Timer) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.snap.Running || t.snap.EndTime.IsZero() {
		return
	}

	now := t.clock.Now()

	remaining := timeutil.RemainingSeconds(now, t.snap.EndTime)
	if remaining <= 0 {
		// the guard is the Running check above: the transition settles
		// Running as its first step, so a subsequent tick cannot fire it
		// twice
		t.completeLocked(false)
		return
	}

	if remaining == t.snap.Remaining {
		return
	}

	t.snap.Remaining = remaining

	persist := now.Sub(t.lastPersist) >= persistInterval

	t.syncLocked(persist)
}

// flush writes the current state out once, on teardown.
func (t *Timer) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.syncLocked(true)
}
