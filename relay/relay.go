// Package relay propagates timer snapshots between concurrently open
// surfaces. Two independent channels exist: an in-process hub for surfaces
// mounted in the same process, and a filesystem watcher on the snapshot
// file for surfaces running in other processes. Both are best-effort with
// no acknowledgement; the last write observed wins.
package relay

import (
	"sync"

	"github.com/abstudio/pomo/internal/models"
)

const subBuffer = 8

// Hub fans snapshots out to in-process subscribers. Publishing never
// blocks: a subscriber that falls behind misses intermediate snapshots and
// catches up with the next one.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan models.Snapshot
	next int
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan models.Snapshot),
	}
}

// Subscribe registers a surface. The returned cancel function must be
// called when the surface unmounts.
func (h *Hub) Subscribe() (<-chan models.Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++

	ch := make(chan models.Snapshot, subBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}

	return ch, cancel
}

// Publish delivers the snapshot to every subscriber without blocking.
func (h *Hub) Publish(snap models.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
