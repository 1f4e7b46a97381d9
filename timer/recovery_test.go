package timer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/davecgh/go-spew/spew"

	"github.com/abstudio/pomo/config"
	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/store"
)

// seedSnapshot writes a snapshot file the way a previous surface would have
// left it.
func seedSnapshot(t *testing.T, snap *models.Snapshot) *store.SnapshotStore {
	t.Helper()

	snaps := store.NewSnapshotStore(
		filepath.Join(t.TempDir(), "snapshot.json"),
	)

	if err := snaps.Save(snap); err != nil {
		t.Fatal(err)
	}

	return snaps
}

func restore(
	t *testing.T,
	snaps *store.SnapshotStore,
	now time.Time,
) (*Timer, *recordSink, *effectSink) {
	t.Helper()

	records := &recordSink{}
	effects := &effectSink{}

	tm := New(Options{
		Clock:     &fakeClock{now: now},
		Snapshots: snaps,
		Effects:   effects,
		Recorder:  records,
		Settings:  testSettings(),
		UserID:    "user-1",
	})

	return tm, records, effects
}

func TestRecoveryResumesPausedState(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	snaps := seedSnapshot(t, &models.Snapshot{
		Mode:         models.Work,
		WorkSeconds:  25 * 60,
		BreakSeconds: 5 * 60,
		Remaining:    17 * 60,
		Cycle:        3,
		Seq:          9,
	})

	tm, records, effects := restore(t, snaps, now)

	snap := tm.Snapshot()

	if snap.Running || snap.Remaining != 17*60 || snap.Cycle != 3 {
		t.Fatalf("paused state not restored verbatim: %s", spew.Sdump(snap))
	}

	if len(records.records) != 0 || len(effects.fired) != 0 {
		t.Fatal("restoring a paused state triggered side effects")
	}
}

func TestRecoveryRecomputesRunningState(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	snaps := seedSnapshot(t, &models.Snapshot{
		Mode:         models.Work,
		Running:      true,
		WorkSeconds:  25 * 60,
		BreakSeconds: 5 * 60,
		Remaining:    25 * 60,
		EndTime:      now.Add(10 * time.Minute),
		Cycle:        1,
		Seq:          4,
	})

	tm, records, _ := restore(t, snaps, now)

	snap := tm.Snapshot()

	if !snap.Running {
		t.Fatal("running state was not restored as running")
	}

	if snap.Remaining != 10*60 {
		t.Fatalf("remaining = %d, want %d", snap.Remaining, 10*60)
	}

	if len(records.records) != 0 {
		t.Fatal("restoring an unexpired state wrote a session record")
	}
}

func TestRecoveryCompletesExpiredPhaseQuietly(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	snaps := seedSnapshot(t, &models.Snapshot{
		Mode:         models.Work,
		Running:      true,
		WorkSeconds:  25 * 60,
		BreakSeconds: 5 * 60,
		Remaining:    25 * 60,
		EndTime:      now.Add(-time.Hour),
		Cycle:        2,
		Seq:          4,
	})

	tm, records, effects := restore(t, snaps, now)

	snap := tm.Snapshot()

	if snap.Mode != models.Break || snap.Running {
		t.Fatalf("expected paused break phase, got %s", spew.Sdump(snap))
	}

	if snap.Remaining != 5*60 {
		t.Fatalf("remaining = %d, want %d", snap.Remaining, 5*60)
	}

	if snap.Cycle != 2 {
		t.Fatalf("work completion advanced cycle to %d", snap.Cycle)
	}

	if len(records.records) != 1 {
		t.Fatalf("got %d session records, want 1", len(records.records))
	}

	if len(effects.fired) != 0 {
		t.Fatal("recovery completion fired alerts")
	}

	// the settled state must be durable before any surface mounts
	persisted, err := snaps.Load()
	if err != nil {
		t.Fatal(err)
	}

	if persisted.Running || persisted.Mode != models.Break {
		t.Fatalf("settled state not persisted: %s", spew.Sdump(persisted))
	}

	if persisted.Seq <= 4 {
		t.Fatalf("persisted seq = %d, want > 4", persisted.Seq)
	}
}

func TestRecoveryMalformedSnapshotStartsFresh(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	path := filepath.Join(t.TempDir(), "snapshot.json")

	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	snaps := store.NewSnapshotStore(path)

	tm, records, _ := restore(t, snaps, now)

	snap := tm.Snapshot()

	if snap.Mode != models.Work || snap.Running || snap.Cycle != 1 {
		t.Fatalf("expected first-use defaults, got %s", spew.Sdump(snap))
	}

	if snap.Remaining != 25*60 {
		t.Fatalf("remaining = %d, want %d", snap.Remaining, 25*60)
	}

	if len(records.records) != 0 {
		t.Fatal("fresh start wrote a session record")
	}
}

func initTestPaths(t *testing.T) {
	t.Helper()

	dir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("POMO_USER", "user-1")
	t.Setenv("POMO_ENV", "test")

	xdg.Reload()

	config.InitializePaths()
}

func TestUpdateSettingsWhilePaused(t *testing.T) {
	initTestPaths(t)

	f := newFixture(t, testSettings())

	work := 50

	err := f.timer.UpdateSettings(config.Patch{WorkMinutes: &work})
	if err != nil {
		t.Fatal(err)
	}

	snap := f.timer.Snapshot()

	if snap.WorkSeconds != 50*60 {
		t.Fatalf("work duration = %d, want %d", snap.WorkSeconds, 50*60)
	}

	if snap.Remaining != 50*60 {
		t.Fatalf("paused remaining = %d, want %d", snap.Remaining, 50*60)
	}
}

func TestUpdateSettingsWhileRunning(t *testing.T) {
	initTestPaths(t)

	f := newFixture(t, testSettings())

	f.timer.Start()
	end := f.timer.Snapshot().EndTime

	work := 50

	err := f.timer.UpdateSettings(config.Patch{WorkMinutes: &work})
	if err != nil {
		t.Fatal(err)
	}

	snap := f.timer.Snapshot()

	if !snap.EndTime.Equal(end) {
		t.Fatalf("running end time moved: %v != %v", snap.EndTime, end)
	}

	if snap.WorkSeconds != 50*60 {
		t.Fatalf("work duration = %d, want %d", snap.WorkSeconds, 50*60)
	}
}

func TestUpdateSettingsRejectsInvalidDurations(t *testing.T) {
	initTestPaths(t)

	f := newFixture(t, testSettings())

	work := 0

	err := f.timer.UpdateSettings(config.Patch{WorkMinutes: &work})
	if err == nil {
		t.Fatal("zero work duration was accepted")
	}

	if got := f.timer.Settings().WorkMinutes; got != 25 {
		t.Fatalf("rejected patch changed settings: work = %d", got)
	}
}
