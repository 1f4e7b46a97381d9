// Package store owns the durable data: the append-only session log in
// BoltDB and the timer snapshot file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/abstudio/pomo/internal/models"
	"github.com/abstudio/pomo/internal/timeutil"
)

var errDBLocked = errors.New(
	"the session log is locked by another process",
)

const sessionBucket = "sessions"

// Client is a BoltDB database client scoped to one user's session log.
type Client struct {
	db     *bolt.DB
	userID string
}

var _ DB = (*Client)(nil)

// openDB opens the database, waiting briefly for a concurrent holder to
// release it. Surfaces hold the log only for the duration of a write.
func openDB(path string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		path,
		fileMode,
		&bolt.Options{Timeout: 500 * time.Millisecond},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errDBLocked
		}

		return nil, err
	}

	return db, nil
}

func (c *Client) bucketName() []byte {
	return []byte(sessionBucket + ":" + c.userID)
}

// AppendSession stores one completed session record keyed by its start
// time.
func (c *Client) AppendSession(sess *models.Session) error {
	value, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucketName()).
			Put(timeutil.ToKey(sess.StartTime), value)
	})
}

// Sessions returns the records started within the given bounds, oldest
// first.
func (c *Client) Sessions(
	start, end time.Time,
) ([]*models.Session, error) {
	var sessions []*models.Session

	err := c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(c.bucketName()).Cursor()

		min := timeutil.ToKey(start)
		max := timeutil.ToKey(end)

		for k, v := cur.Seek(min); k != nil && bytes.Compare(k, max) <= 0; k, v = cur.Next() {
			sess := &models.Session{}

			if err := json.Unmarshal(v, sess); err != nil {
				return err
			}

			sessions = append(sessions, sess)
		}

		return nil
	})

	return sessions, err
}

func (c *Client) Close() error {
	return c.db.Close()
}

// NewClient opens the session log for the given user, creating the bucket
// on first use.
func NewClient(dbPath, userID string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{db: db, userID: userID}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(c.bucketName())
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}
