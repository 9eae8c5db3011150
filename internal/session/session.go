// Package session tracks per-browser quiz state in process memory. This
// state is deliberately ephemeral: it lives for one visit and is never
// written to the store.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pavelanni/studyplanner/internal/model"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 24 * time.Hour

// State holds one visitor's quiz bookkeeping.
type State struct {
	Exam      string
	QuizID    int64
	Quiz      *model.Quiz
	Answers   map[int]string
	Submitted bool
}

// ResetQuiz clears the quiz fields while keeping the session alive.
func (st *State) ResetQuiz() {
	st.QuizID = 0
	st.Quiz = nil
	st.Answers = nil
	st.Submitted = false
}

type entry struct {
	state   *State
	expires time.Time
}

// Manager owns the token-to-state map. The mutex exists only because the
// HTTP server serves requests concurrently; each session is used by one
// visitor at a time.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*entry
	now      func() time.Time
}

// NewManager creates a Manager with the given idle TTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Create allocates a new session and returns its token.
func (m *Manager) Create() (string, *State, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}
	st := &State{}

	m.mu.Lock()
	m.sessions[token] = &entry{state: st, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return token, st, nil
}

// Get returns the state for a token, or nil when the token is unknown or
// expired. A hit extends the session's lifetime.
func (m *Manager) Get(token string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return nil
	}
	if m.now().After(e.expires) {
		delete(m.sessions, token)
		return nil
	}
	e.expires = m.now().Add(m.ttl)
	return e.state
}

// Sweep drops all expired sessions and reports how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := m.now()
	for token, e := range m.sessions {
		if now.After(e.expires) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
