package checkout

import (
	"sync"
	"time"
)

// staleAfter bounds how long an abandoned session lingers before the
// next Create prunes it.
const staleAfter = 24 * time.Hour

// Store holds in-flight checkout sessions by ID. Purely in-memory: a
// service restart discards every open checkout, matching the session's
// never-persisted lifecycle.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Create(mode Mode) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, s := range st.sessions {
		if time.Since(s.createdAt) > staleAfter {
			delete(st.sessions, id)
		}
	}

	s := NewSession(mode)
	st.sessions[s.id] = s
	return s
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	return s, ok
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
