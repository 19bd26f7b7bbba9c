// Package registry keeps the known-good liquid-class parameter vectors,
// keyed by pipette and liquid, with CSV exchange for external tooling.
// The registry feeds seed vectors to tuning runs and is maintained
// independently of any single run.
package registry

import (
	"sort"
	"sync"

	"github.com/liqcal/calibration-core/pkg/liquids"
	"github.com/liqcal/calibration-core/pkg/params"
)

// Entry is one liquid class: a pipette/liquid pair and its parameters
// (touch_tip included in the vector).
type Entry struct {
	Pipette liquids.Pipette
	Liquid  liquids.Liquid
	Params  params.Vector
}

type entryKey struct {
	pipette liquids.Pipette
	liquid  liquids.Liquid
}

// Registry is a keyed store of liquid classes. Reads are safe under
// concurrent use; writes follow a single-writer discipline owned by the
// caller. There is no package-global instance: construct one and pass it
// by reference.
type Registry struct {
	mu      sync.RWMutex
	entries map[entryKey]Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[entryKey]Entry)}
}

// NewWithDefaults creates a registry seeded with the default liquid
// class dataset.
func NewWithDefaults() *Registry {
	r := New()
	for _, e := range DefaultEntries() {
		r.Add(e)
	}
	return r
}

// Get returns the parameters for a pipette/liquid pair. A miss is not an
// error; the second return is false.
func (r *Registry) Get(pipette liquids.Pipette, liquid liquids.Liquid) (params.Vector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[entryKey{pipette, liquid}]
	return e.Params, ok
}

// Add inserts an entry, overwriting any existing entry with the same key.
func (r *Registry) Add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entryKey{e.Pipette, e.Liquid}] = e
}

// Delete removes an entry, reporting whether it existed.
func (r *Registry) Delete(pipette liquids.Pipette, liquid liquids.Liquid) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := entryKey{pipette, liquid}
	if _, ok := r.entries[k]; !ok {
		return false
	}
	delete(r.entries, k)
	return true
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns all entries ordered by pipette, then liquid.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Pipette != out[j].Pipette {
			return out[i].Pipette < out[j].Pipette
		}
		return out[i].Liquid < out[j].Liquid
	})
	return out
}
