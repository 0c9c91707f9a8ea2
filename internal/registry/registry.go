// Package registry maps user identifiers to live client connections.
//
// The presence and call channels each own an independent Registry instance;
// a user connected only to one channel is invisible to the other.
package registry

import "sync"

// Conn is the registry's view of one live client connection. Implementations
// must be safe for concurrent use; Send is expected to serialize writes
// internally so concurrent routing to the same recipient preserves frame
// integrity.
type Conn interface {
	Send(data []byte) error
	IsOpen() bool
}

// Registry is a concurrent mapping from user identifier to exactly one live
// connection. A later Put for the same user overwrites the entry
// (last-writer-wins); the stale connection is not closed here and is pruned
// on its own transport close notification or on the next routing attempt.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
	}
}

// Put registers conn under userID, overwriting any prior entry. It has no
// side effects beyond the mapping itself.
func (r *Registry) Put(userID string, conn Conn) {
	r.mu.Lock()
	r.conns[userID] = conn
	r.mu.Unlock()
}

func (r *Registry) Get(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.conns, userID)
	r.mu.Unlock()
}

// RemoveConn removes userID only if it still maps to conn. A connection that
// was overwritten by a later registration for the same user must not evict
// its replacement when it closes.
func (r *Registry) RemoveConn(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; ok && cur == conn {
		delete(r.conns, userID)
		return true
	}
	return false
}

// SnapshotKeys returns a point-in-time copy of the registered user
// identifiers. The copy is safe to iterate while the registry keeps mutating.
func (r *Registry) SnapshotKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.conns))
	for id := range r.conns {
		keys = append(keys, id)
	}
	return keys
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
