package runtime

import (
	"sync"
	"time"

	"chat-core/contract"
	"chat-core/domain"
	"chat-core/errors"
)

// Registry is the single piece of mutable shared state in the core:
// the authoritative mapping of live connections to joined sessions.
// It is only ever touched through the methods below; every method is
// atomic and holds the lock for O(1) or a single map walk.
type Registry struct {
	mu      sync.RWMutex
	members map[domain.ConnectionID]contract.Member
}

func NewRegistry() *Registry {
	return &Registry{members: make(map[domain.ConnectionID]contract.Member)}
}

// Register creates a session for the connection. A connection that
// already holds a session is rejected; re-join is not an overwrite.
func (r *Registry) Register(connID domain.ConnectionID, username string, sink contract.EventSink) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[connID]; ok {
		return domain.Session{}, errors.ErrAlreadyJoined
	}
	session := domain.Session{
		ConnID:   connID,
		Username: username,
		JoinedAt: time.Now().UTC(),
	}
	r.members[connID] = contract.Member{Session: session, Sink: sink}
	return session, nil
}

func (r *Registry) Lookup(connID domain.ConnectionID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.members[connID]
	return member.Session, ok
}

// Unregister removes and returns the prior session atomically.
func (r *Registry) Unregister(connID domain.ConnectionID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[connID]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.members, connID)
	return member.Session, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.members)
}

// Snapshot returns the current membership for broadcast iteration.
// Broadcasting over a copy keeps the critical section short and avoids
// stale-membership bugs from a stored subscriber list.
func (r *Registry) Snapshot() []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]contract.Member, 0, len(r.members))
	for _, member := range r.members {
		members = append(members, member)
	}
	return members
}
