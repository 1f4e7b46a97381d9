// Package timer operates the interval timer state machine and handles the
// recovery of timers that completed while no surface was open.
package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/abstudio/pomo/config"
	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/internal/timeutil"
	"github.com/abstudio/pomo/relay"
	"github.com/abstudio/pomo/store"
)

// Recorder receives one record per completed work phase. Implementations
// must be best-effort: a failed write is reported through the logger and
// never propagated back into the state machine.
type Recorder interface {
	Record(sess *models.Session)
}

// Effects fires the completion side effects (sound, notification,
// completion hook) for a finished phase. Implementations must not block
// the caller on failure.
type Effects interface {
	Completed(finished, next models.Mode, s config.Settings)
}

// Timer holds the canonical in-memory timer state for one user. Commands
// are total functions: no command can produce a state that violates the
// running/end-time invariant, so none of them return errors.
//
// The mutex exists because the tick loop and the surfaces run on separate
// goroutines within one process. Across processes there is no locking at
// all: surfaces race on the snapshot file and the last write wins.
type Timer struct {
	mu       sync.Mutex
	clock    timeutil.Clock
	snap     models.Snapshot
	settings config.Settings
	snaps    *store.SnapshotStore
	hub      *relay.Hub
	effects  Effects
	recorder Recorder
	userID   string

	lastPersist time.Time
}

// Options configures a Timer. Snapshots and Settings are required; the
// remaining fields default to working implementations.
type Options struct {
	Clock     timeutil.Clock
	Snapshots *store.SnapshotStore
	Hub       *relay.Hub
	Effects   Effects
	Recorder  Recorder
	Settings  config.Settings
	UserID    string
}

type nopRecorder struct{}

func (nopRecorder) Record(*models.Session) {}

type nopEffects struct{}

func (nopEffects) Completed(models.Mode, models.Mode, config.Settings) {}

// defaultSnapshot is the first-ever-use state: paused at the start of a
// work phase, cycle 1.
func defaultSnapshot(s config.Settings) models.Snapshot {
	return models.Snapshot{
		Mode:          models.Work,
		WorkSeconds:   s.WorkMinutes * 60,
		BreakSeconds:  s.BreakMinutes * 60,
		Remaining:     s.WorkMinutes * 60,
		Cycle:         1,
		AutoStartNext: s.AutoStartNext,
	}
}

// New restores the timer for the current user, applying the recovery rule:
// a snapshot that was running when last written has its remaining time
// recomputed against the clock, and a phase that elapsed entirely while
// unobserved is completed exactly once before the timer is handed to any
// surface. Recovery-detected completions log their session record but stay
// silent; the alert would arrive long after the event it announces.
func New(opts Options) *Timer {
	t := &Timer{
		clock:    opts.Clock,
		snaps:    opts.Snapshots,
		hub:      opts.Hub,
		effects:  opts.Effects,
		recorder: opts.Recorder,
		settings: opts.Settings,
		userID:   opts.UserID,
	}

	if t.clock == nil {
		t.clock = timeutil.SystemClock{}
	}

	if t.hub == nil {
		t.hub = relay.NewHub()
	}

	if t.effects == nil {
		t.effects = nopEffects{}
	}

	if t.recorder == nil {
		t.recorder = nopRecorder{}
	}

	snap, err := t.snaps.Load()
	if err != nil {
		// missing or malformed state is not an error: start fresh
		t.snap = defaultSnapshot(t.settings)
		t.syncLocked(true)

		return t
	}

	t.snap = *snap

	if t.snap.Running {
		remaining := timeutil.RemainingSeconds(t.clock.Now(), t.snap.EndTime)
		if remaining <= 0 {
			t.completeLocked(true)
			return t
		}

		t.snap.Remaining = remaining
		t.syncLocked(true)
	}

	return t
}

// Hub exposes the in-process snapshot channel for surfaces.
func (t *Timer) Hub() *relay.Hub {
	return t.hub
}

// Snapshot returns a copy of the current state.
func (t *Timer) Snapshot() models.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snap
}

// Settings returns a copy of the active settings.
func (t *Timer) Settings() config.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.settings
}

// Start begins counting down the paused phase. Starting a running timer is
// a no-op.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.Running {
		return
	}

	t.snap.Running = true
	t.snap.EndTime = t.clock.Now().
		Add(time.Duration(t.snap.Remaining) * time.Second)

	t.syncLocked(true)
}

// Pause freezes the running phase, caching its remaining time. Pausing a
// paused timer is a no-op.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.snap.Running {
		return
	}

	t.snap.Remaining = timeutil.RemainingSeconds(
		t.clock.Now(),
		t.snap.EndTime,
	)
	t.snap.Running = false
	t.snap.EndTime = time.Time{}

	t.syncLocked(true)
}

// Reset forces a paused work phase at full duration. The cycle position is
// preserved.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Mode = models.Work
	t.snap.Running = false
	t.snap.EndTime = time.Time{}
	t.snap.Remaining = t.snap.WorkSeconds

	t.syncLocked(true)
}

// Skip force-completes the current phase. It shares the completion
// transition with natural expiry, so side effects and session logging fire
// exactly as they would at zero remaining time.
func (t *Timer) Skip() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completeLocked(false)
}

// SetMode forces the given phase, stopped, at full duration. No session is
// logged and the cycle does not advance.
func (t *Timer) SetMode(m models.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Mode = m
	t.snap.Running = false
	t.snap.EndTime = time.Time{}
	t.snap.Remaining = t.snap.Duration(m)

	t.syncLocked(true)
}

// SetLinkedTask associates the session with an external task reference.
// The id is opaque and never validated; the title is display-only and
// supplied by the caller. Running state is unaffected.
func (t *Timer) SetLinkedTask(id, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.TaskID = id
	t.snap.TaskTitle = title

	t.syncLocked(true)
}

// UpdateSettings merges the patch into the durable settings and recomputes
// the derived durations on the live state. While paused, the remaining
// time resets to the (possibly changed) duration of the current phase;
// while running, the committed end time of the in-flight phase is left
// untouched.
func (t *Timer) UpdateSettings(p config.Patch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged := t.settings
	merged.Merge(p)

	if err := merged.Validate(); err != nil {
		return err
	}

	t.settings = merged

	if err := config.SaveSettings(&t.settings); err != nil {
		slog.Error("unable to persist settings", slog.Any("error", err))
	}

	t.snap.WorkSeconds = t.settings.WorkMinutes * 60
	t.snap.BreakSeconds = t.settings.BreakMinutes * 60
	t.snap.AutoStartNext = t.settings.AutoStartNext

	if !t.snap.Running {
		t.snap.Remaining = t.snap.Duration(t.snap.Mode)
	}

	t.syncLocked(true)

	return nil
}

// OverrideDurations applies command-line duration overrides to the live
// state without writing them to the durable settings. Zero values leave a
// duration unchanged. While paused, the remaining time resets to the
// current phase's new duration; a running phase keeps its committed end
// time.
func (t *Timer) OverrideDurations(workMins, breakMins int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if workMins > 0 {
		t.settings.WorkMinutes = workMins
		t.snap.WorkSeconds = workMins * 60
	}

	if breakMins > 0 {
		t.settings.BreakMinutes = breakMins
		t.snap.BreakSeconds = breakMins * 60
	}

	if !t.snap.Running {
		t.snap.Remaining = t.snap.Duration(t.snap.Mode)
	}

	t.syncLocked(true)
}

// SetAutoStart toggles automatic start of the next phase on the live state
// without persisting the setting.
func (t *Timer) SetAutoStart(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.settings.AutoStartNext = v
	t.snap.AutoStartNext = v

	t.syncLocked(true)
}

// Apply replaces the in-memory state with a snapshot received from another
// surface, unless it is stale. Writes that raced onto the same sequence
// number fall back to the later write timestamp, so the last writer wins.
// It performs no transition logic: the writing surface already did that.
func (t *Timer) Apply(snap models.Snapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if snap.Seq < t.snap.Seq {
		return false
	}

	if snap.Seq == t.snap.Seq && !snap.UpdatedAt.After(t.snap.UpdatedAt) {
		return false
	}

	t.snap = snap

	return true
}

// completeLocked is the single completion transition shared by natural
// expiry, skip, and recovery. Its first mutation settles the running
// state, so a tick that fires immediately afterwards finds Running false
// (or a fresh future end time) and cannot re-trigger it.
//
// quiet suppresses the audible and visible alerts for completions detected
// during recovery; the session record is still written.
func (t *Timer) completeLocked(quiet bool) {
	now := t.clock.Now()
	finished := t.snap.Mode
	next := finished.Toggle()

	t.snap.Mode = next

	if finished == models.Break {
		if t.snap.Cycle == models.CycleLength {
			t.snap.Cycle = 1
		} else {
			t.snap.Cycle++
		}
	}

	t.snap.Remaining = t.snap.Duration(next)

	if t.snap.AutoStartNext {
		t.snap.Running = true
		t.snap.EndTime = now.
			Add(time.Duration(t.snap.Remaining) * time.Second)
	} else {
		t.snap.Running = false
		t.snap.EndTime = time.Time{}
	}

	if !quiet {
		t.effects.Completed(finished, next, t.settings)
	}

	if finished == models.Work {
		d := t.snap.WorkSeconds

		t.recorder.Record(&models.Session{
			UserID:    t.userID,
			Mode:      models.Work,
			Duration:  d,
			StartTime: now.Add(-time.Duration(d) * time.Second),
			EndTime:   now,
			TaskID:    t.snap.TaskID,
			Completed: true,
		})
	}

	t.syncLocked(true)
}

// syncLocked stamps and publishes the snapshot, persisting it when asked.
// The sequence number advances only on persisted writes and is coordinated
// through the snapshot file, so counters from concurrently mounted surfaces
// cannot drift apart and shadow each other's commands. Snapshot writes are
// best-effort local calls: a failure is logged and the in-memory state
// remains the source of truth for this surface.
func (t *Timer) syncLocked(persist bool) {
	now := t.clock.Now()

	t.snap.UpdatedAt = now

	if persist {
		t.snap.Seq = t.snaps.NextSeq(t.snap.Seq)

		if err := t.snaps.Save(&t.snap); err != nil {
			slog.Error("unable to persist timer state", slog.Any("error", err))
		}

		t.lastPersist = now
	}

	t.hub.Publish(t.snap)
}
