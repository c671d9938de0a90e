package refresh

import (
	"sync"

	"calticker/internal/model"
)

// Cell holds the current snapshot. The refresh loop is its only writer;
// HTTP handlers and newly connected clients read it.
type Cell struct {
	mu   sync.RWMutex
	snap model.Snapshot
}

// NewCell returns an empty cell. Until the first successful refresh,
// Current returns a snapshot with no events and a zero RefreshedAt.
func NewCell() *Cell {
	return &Cell{}
}

// Replace atomically installs a new snapshot.
func (c *Cell) Replace(snap model.Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// Current returns the most recent snapshot.
func (c *Cell) Current() model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}
