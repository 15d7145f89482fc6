package cache

import (
	"sync"

	"github.com/branddi/taskdash/backend/internal/types"
)

// Dataset holds the current dashboard aggregate. Replacement is
// last-write-wins and atomic from the readers' perspective; the stored
// dashboard is treated as immutable by everyone who reads it.
type Dataset struct {
	mu        sync.RWMutex
	dashboard *types.Dashboard
}

// NewDataset creates an empty dataset holder
func NewDataset() *Dataset {
	return &Dataset{}
}

// Replace swaps in a freshly aggregated dashboard, discarding the
// previous one wholesale.
func (d *Dataset) Replace(dashboard *types.Dashboard) {
	d.mu.Lock()
	d.dashboard = dashboard
	d.mu.Unlock()
}

// Get returns the current dashboard, false when none is loaded
func (d *Dataset) Get() (*types.Dashboard, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dashboard, d.dashboard != nil
}

// Clear drops the current dashboard
func (d *Dataset) Clear() {
	d.mu.Lock()
	d.dashboard = nil
	d.mu.Unlock()
}
