package store

import (
	"time"

	"github.com/abstudio/pomo/internal/models"
)

// DB is the session log storage interface. The timer engine only appends;
// reads exist for the listing command.
type DB interface {
	// AppendSession adds one completed session record. Records are never
	// mutated afterwards.
	AppendSession(sess *models.Session) error
	// Sessions returns records whose start time falls in [start, end].
	Sessions(start, end time.Time) ([]*models.Session, error)
	// Close ends the database connection
	Close() error
}
