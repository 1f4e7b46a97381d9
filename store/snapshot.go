package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/abstudio/pomo/internal/models"
)

// ErrNoSnapshot indicates that no prior timer state exists for the user.
// A malformed snapshot file is reported the same way: the caller
// re-initializes to defaults rather than failing.
var ErrNoSnapshot = errors.New("no saved timer state")

// SnapshotStore persists the timer state as a single JSON file. Writes
// replace the whole file atomically so that watchers never observe a
// partial snapshot. Last write wins; there is no merging.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the watched snapshot file location.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the saved snapshot. Missing or unreadable state yields
// ErrNoSnapshot.
func (s *SnapshotStore) Load() (*models.Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSnapshot
		}

		return nil, err
	}

	snap := &models.Snapshot{}

	if err := json.Unmarshal(b, snap); err != nil {
		return nil, ErrNoSnapshot
	}

	return snap, nil
}

// NextSeq returns a sequence number strictly greater than both the given
// local value and the last persisted snapshot's. Writers call it right
// before saving, so counters issued by independently mounted surfaces stay
// totally ordered through the file they share.
func (s *SnapshotStore) NextSeq(local uint64) uint64 {
	snap, err := s.Load()
	if err == nil && snap.Seq > local {
		return snap.Seq + 1
	}

	return local + 1
}

// Save writes the snapshot durably via a temp file rename.
func (s *SnapshotStore) Save(snap *models.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
