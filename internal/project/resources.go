package project

import (
	"sync"

	"github.com/google/uuid"
)

// Registry hands out transient references to imported file content.
// Every reference is allocated once and must be released exactly once.
type Registry struct {
	mu       sync.Mutex
	handles  map[string]FileHandle
	released int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]FileHandle)}
}

// Allocate registers a handle and returns its reference
func (r *Registry) Allocate(f FileHandle) string {
	ref := "blob:" + uuid.NewString()
	r.mu.Lock()
	r.handles[ref] = f
	r.mu.Unlock()
	return ref
}

// Release drops a reference. Releasing an unknown or already released reference fails.
func (r *Registry) Release(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[ref]; !ok {
		return ErrResourceReleased
	}
	delete(r.handles, ref)
	r.released++
	return nil
}

// Lookup returns the handle behind a live reference
func (r *Registry) Lookup(ref string) (FileHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.handles[ref]
	return f, ok
}

// Live returns the number of references not yet released
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Released returns the number of successful releases
func (r *Registry) Released() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}
