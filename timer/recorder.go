package timer

import (
	"log/slog"

	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/store"
)

// LogRecorder appends completed work sessions to the BoltDB session log.
// The database is opened per write and released immediately so that
// surfaces running in other processes can take the lock for their own
// writes.
type LogRecorder struct {
	DBPath string
	UserID string
}

// Record writes one session record. The timer's own state is the source of
// truth for the user experience; the log is a best-effort historical
// record, so every failure here ends in the logger instead of the caller.
func (r *LogRecorder) Record(sess *models.Session) {
	db, err := store.NewClient(r.DBPath, r.UserID)
	if err != nil {
		slog.Error("session log unavailable", slog.Any("error", err))
		return
	}

	defer func() {
		_ = db.Close()
	}()

	if err := db.AppendSession(sess); err != nil {
		slog.Error("unable to record session", slog.Any("error", err))
	}
}
