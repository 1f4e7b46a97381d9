package relay

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/store"
)

// Watcher observes the snapshot file and emits snapshots written by other
// processes. It watches the containing directory because saves replace the
// file by rename.
//
// Snapshots whose sequence number is not newer than the last emitted one
// are dropped, collapsing repeated filesystem events for a single save into
// one emission. A surface's own writes do come back through the watcher;
// the engine's staleness check discards them.
type Watcher struct {
	fw      *fsnotify.Watcher
	snaps   *store.SnapshotStore
	events  chan models.Snapshot
	done    chan struct{}
	lastSeq uint64
}

func NewWatcher(
	snaps *store.SnapshotStore,
	lastSeq uint64,
) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(filepath.Dir(snaps.Path())); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:      fw,
		snaps:   snaps,
		events:  make(chan models.Snapshot, subBuffer),
		done:    make(chan struct{}),
		lastSeq: lastSeq,
	}

	go w.loop()

	return w, nil
}

// Events delivers snapshots observed on disk, newest-sequence only.
func (w *Watcher) Events() <-chan models.Snapshot {
	return w.events
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}

			if filepath.Clean(ev.Name) != w.snaps.Path() {
				continue
			}

			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}

			w.emit()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			slog.Warn("snapshot watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) emit() {
	snap, err := w.snaps.Load()
	if err != nil {
		// a partially visible or missing file is not an error here; the
		// next write produces another event
		return
	}

	if snap.Seq <= w.lastSeq {
		return
	}

	w.lastSeq = snap.Seq

	select {
	case w.events <- *snap:
	default:
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
