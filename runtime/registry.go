// Package runtime coordinates presence, live delivery, and catch-up.
// It orchestrates the system without containing storage or UI logic.
package runtime

import (
	"chat-direct/contract"
	"chat-direct/domain/chat"
	"sync"
)

// Registry maps user identities to their live sessions. A user may own zero,
// one, or several sessions at once (multi-device); the user is online while
// at least one session remains.
//
// This is the most contended shared structure in the system: every connect,
// disconnect, send, and read acknowledgment queries it. Mutations take the
// write lock; lookups for unrelated users proceed concurrently under the
// read lock, and an entry is either absent or present with at least one
// session, never half-updated.
type Registry struct {
	mu       sync.RWMutex
	sessions map[chat.UserID]map[string]contract.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[chat.UserID]map[string]contract.Session),
	}
}

// Register adds a session to the user's active set. The returned flag
// reports the offline->online transition so the caller can broadcast the
// status change at most once.
func (r *Registry) Register(user chat.UserID, s contract.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[user]
	if !ok {
		set = make(map[string]contract.Session)
		r.sessions[user] = set
	}
	set[s.ID()] = s
	return !ok
}

// Unregister removes the given session. The returned flag reports whether
// this was the user's last session, i.e. the online->offline transition.
// No empty sets are left behind.
func (r *Registry) Unregister(user chat.UserID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[user]
	if !ok {
		return false
	}
	if _, ok := set[sessionID]; !ok {
		return false
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.sessions, user)
		return true
	}
	return false
}

func (r *Registry) Lookup(user chat.UserID) []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sessions[user]
	if !ok {
		return nil
	}
	res := make([]contract.Session, 0, len(set))
	for _, s := range set {
		res = append(res, s)
	}
	return res
}

func (r *Registry) IsOnline(user chat.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[user]
	return ok
}

func (r *Registry) AllOnline() []chat.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]chat.UserID, 0, len(r.sessions))
	for user := range r.sessions {
		res = append(res, user)
	}
	return res
}

// Sessions returns every live session across all users, for broadcasts.
func (r *Registry) Sessions() []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []contract.Session
	for _, set := range r.sessions {
		for _, s := range set {
			res = append(res, s)
		}
	}
	return res
}
