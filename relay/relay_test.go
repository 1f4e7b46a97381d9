package relay

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/store"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub()

	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()

	defer cancelFirst()
	defer cancelSecond()

	hub.Publish(models.Snapshot{Seq: 1})

	for _, ch := range []<-chan models.Snapshot{first, second} {
		select {
		case snap := <-ch:
			if snap.Seq != 1 {
				t.Fatalf("seq = %d, want 1", snap.Seq)
			}
		default:
			t.Fatal("subscriber did not receive the snapshot")
		}
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("cancelled subscription channel is still open")
	}

	// publishing after cancel must not panic on the closed channel
	hub.Publish(models.Snapshot{Seq: 1})

	// cancelling twice is safe
	cancel()
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		// well past the subscriber buffer, with nobody draining
		for i := 0; i < subBuffer*4; i++ {
			hub.Publish(models.Snapshot{Seq: uint64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func waitForSnapshot(
	t *testing.T,
	ch <-chan models.Snapshot,
) models.Snapshot {
	t.Helper()

	select {
	case snap := <-ch:
		return snap
	case <-time.After(3 * time.Second):
		t.Fatal("no snapshot observed on disk")
		return models.Snapshot{}
	}
}

func TestWatcherEmitsForeignWrites(t *testing.T) {
	snaps := store.NewSnapshotStore(
		filepath.Join(t.TempDir(), "snapshot.json"),
	)

	w, err := NewWatcher(snaps, 0)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = w.Close()
	}()

	if err := snaps.Save(&models.Snapshot{Seq: 7, Remaining: 90}); err != nil {
		t.Fatal(err)
	}

	snap := waitForSnapshot(t, w.Events())

	if snap.Seq != 7 || snap.Remaining != 90 {
		t.Fatalf("observed seq %d remaining %d, want 7/90", snap.Seq, snap.Remaining)
	}
}

func TestWatcherDropsStaleSequences(t *testing.T) {
	snaps := store.NewSnapshotStore(
		filepath.Join(t.TempDir(), "snapshot.json"),
	)

	w, err := NewWatcher(snaps, 10)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = w.Close()
	}()

	// not newer than the state the watcher started from
	if err := snaps.Save(&models.Snapshot{Seq: 10}); err != nil {
		t.Fatal(err)
	}

	select {
	case snap := <-w.Events():
		t.Fatalf("stale snapshot (seq %d) was emitted", snap.Seq)
	case <-time.After(500 * time.Millisecond):
	}

	if err := snaps.Save(&models.Snapshot{Seq: 11}); err != nil {
		t.Fatal(err)
	}

	snap := waitForSnapshot(t, w.Events())

	if snap.Seq != 11 {
		t.Fatalf("seq = %d, want 11", snap.Seq)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	snaps := store.NewSnapshotStore(filepath.Join(dir, "snapshot.json"))

	w, err := NewWatcher(snaps, 0)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = w.Close()
	}()

	other := store.NewSnapshotStore(filepath.Join(dir, "other.json"))

	if err := other.Save(&models.Snapshot{Seq: 99}); err != nil {
		t.Fatal(err)
	}

	select {
	case snap := <-w.Events():
		t.Fatalf("unrelated file produced a snapshot (seq %d)", snap.Seq)
	case <-time.After(500 * time.Millisecond):
	}
}
