package presence

import (
	"sync"

	"github.com/vinayak-88/LoviNova/internal/event"
)

// Conn is a live realtime connection a user announced on. Deliver is
// best-effort: false means the event was dropped, and the peer recovers the
// state on its next fetch from durable storage.
type Conn interface {
	Deliver(ev event.Envelope) bool
}

// Registry maps a user id to its single live connection. Last writer wins: a
// fresh announce from another device silently replaces the previous handle.
// State is purely in-memory; clients re-announce after a reconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
	}
}

// Announce binds userID to c, replacing any previous handle.
func (r *Registry) Announce(userID string, c Conn) {
	if userID == "" || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = c
}

// Lookup returns the current connection for userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// Remove drops every entry holding c. Normally that is one entry, but stale
// duplicates left by abnormal disconnects are swept out here too.
func (r *Registry) Remove(c Conn) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, conn := range r.conns {
		if conn == c {
			delete(r.conns, userID)
		}
	}
}

// Online reports whether userID currently has a live connection.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}
