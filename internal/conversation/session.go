// Package conversation implements a generic finite-state-machine driver
// for multi-step operator dialogs. A flow is a named set of states; each
// state binds input handlers that validate, mutate the per-operator
// scratch context and decide the transition. One operator runs at most
// one flow at a time; distinct operators' sessions are independent.
package conversation

import (
	"sync"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// Fields is the scratch context a flow collects step by step. Values are
// strings because everything arrives as operator text or callback data;
// flows normalize on the way in ("2026-09-05", "14:30").
type Fields map[string]string

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Session is one operator's in-progress flow. It lives only in the
// session store and is dropped unconditionally on completion,
// cancellation or error termination - never persisted durably.
type Session struct {
	OperatorID shared.OperatorID
	Flow       string
	State      string
	Fields     Fields
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// Set stores one collected field.
func (s *Session) Set(key, value string) {
	if s.Fields == nil {
		s.Fields = make(Fields)
	}
	s.Fields[key] = value
	s.UpdatedAt = time.Now().UTC()
}

// Get returns one collected field ("" when absent).
func (s *Session) Get(key string) string {
	return s.Fields[key]
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store keeps at most one session per operator. Passed into the engine
// as an explicit dependency so tests can inspect and seed it.
type Store interface {
	// Get returns the operator's active session, if any.
	Get(id shared.OperatorID) (*Session, bool)

	// Put saves the session, replacing any previous one for the same
	// operator (last-write-wins).
	Put(s *Session)

	// Delete drops the operator's session. Deleting an absent session
	// is a no-op.
	Delete(id shared.OperatorID)
}

// MemoryStore is the in-process Store implementation. Sessions have no
// timeout: a stalled flow holds its context until cancelled or replaced
// by a new flow entry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[shared.OperatorID]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[shared.OperatorID]*Session)}
}

// Get returns the operator's active session, if any.
func (m *MemoryStore) Get(id shared.OperatorID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Put saves the session, replacing any previous one for the operator.
func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.OperatorID] = s
}

// Delete drops the operator's session.
func (m *MemoryStore) Delete(id shared.OperatorID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of active sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
