// Package session ties a signed-in user to their per-session state: the
// cart and the pharmacy selection. A session exists from sign-in to
// sign-out; cart and selection live and die with it.
package session

import (
	"sync"
	"time"

	"github.com/pharmakit/storefront/internal/cart"
	"github.com/pharmakit/storefront/internal/pharmacy"
)

// Session is one signed-in user's server-side state.
type Session struct {
	UserID    string
	Email     string
	Role      string
	CreatedAt time.Time
	Cart      *cart.Cart
	Selector  *pharmacy.Selector
}

// Manager holds the active sessions, keyed by user ID.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	newSelector func() *pharmacy.Selector
}

// NewManager creates an empty session manager. newSelector builds the
// pharmacy selector attached to each new session; it may be nil when
// pharmacy selection is not wired.
func NewManager(newSelector func() *pharmacy.Selector) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		newSelector: newSelector,
	}
}

// Create starts a session with a fresh empty cart and its own pharmacy
// selector, replacing any existing session for the user.
func (m *Manager) Create(userID, email, role string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		Cart:      cart.New(),
	}
	if m.newSelector != nil {
		s.Selector = m.newSelector()
	}
	m.sessions[userID] = s
	return s
}

// Get returns the session for a user, or nil when none exists.
func (m *Manager) Get(userID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID]
}

// Destroy ends a session, dropping its cart and selection. Returns the
// destroyed session so callers can clear the remote mirror, or nil when
// none existed.
func (m *Manager) Destroy(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	delete(m.sessions, userID)
	return s
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
