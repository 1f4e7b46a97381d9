// Package models defines the persisted data shapes shared by the timer
// engine, the stores, and the presentation surfaces.
package models

import "time"

// Mode identifies the current phase of the timer.
type Mode string

const (
	Work  Mode = "work"
	Break Mode = "break"
)

// Toggle returns the opposite phase.
func (m Mode) Toggle() Mode {
	if m == Work {
		return Break
	}

	return Work
}

// CycleLength is the number of positions in the repeating work/break
// rotation. The cycle wraps back to 1 after this many completed breaks.
const CycleLength = 4

// Snapshot is the complete serialized timer state. It is the unit of
// persistence and broadcast: every surface renders from the most recently
// observed snapshot, and the last write to durable storage wins.
type Snapshot struct {
	Mode Mode `json:"mode"`
	// Running reports whether the phase is actively counting down.
	// EndTime is set if and only if Running is true.
	Running      bool `json:"running"`
	WorkSeconds  int  `json:"work_seconds"`
	BreakSeconds int  `json:"break_seconds"`
	// EndTime is the wall-clock instant at which the running phase
	// completes. Zero while paused.
	EndTime time.Time `json:"end_time"`
	// Remaining is authoritative only while paused. While running it is a
	// display cache; completion detection always re-derives from EndTime.
	Remaining     int       `json:"remaining_seconds"`
	Cycle         int       `json:"cycle"`
	TaskID        string    `json:"task_id,omitempty"`
	TaskTitle     string    `json:"task_title,omitempty"`
	AutoStartNext bool      `json:"auto_start_next"`
	UpdatedAt     time.Time `json:"updated_at"`
	// Seq totally orders persisted writes across surfaces: each writer
	// picks a value greater than both its own counter and the one on disk.
	// Receivers discard snapshots older than the state they hold, breaking
	// ties on UpdatedAt.
	Seq uint64 `json:"seq"`
}

// Duration returns the configured length of the given phase in seconds.
func (s *Snapshot) Duration(m Mode) int {
	if m == Work {
		return s.WorkSeconds
	}

	return s.BreakSeconds
}

// Session is one completed work interval as appended to the session log.
// Records are written once and never mutated or deleted by the engine.
type Session struct {
	UserID    string    `json:"user_id"`
	Mode      Mode      `json:"mode"`
	Duration  int       `json:"duration_seconds"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TaskID    string    `json:"task_id,omitempty"`
	Completed bool      `json:"completed"`
}
