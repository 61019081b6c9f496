// Package presence keeps the process-wide map of online users to their
// live connection.
package presence

import (
	"slices"
	"sync"
)

// Handle is a live connection that can receive pushed events.
type Handle interface {
	Push(event string, payload any) bool
}

// Registry maps a user id to at most one Handle. The last registration
// wins; Unregister only removes the entry it is given, so a late close of
// a replaced connection cannot evict its successor.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Handle)}
}

// Register binds userID to h and returns the handle it replaced, if any.
func (r *Registry) Register(userID string, h Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	r.conns[userID] = h
	return prev
}

// Unregister removes userID only while it is still bound to h.
func (r *Registry) Unregister(userID string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[userID]; !ok || cur != h {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[userID]
	return ok
}

func (r *Registry) Get(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.conns[userID]
	return h, ok
}

// Snapshot returns the sorted ids of online users.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}
