package session

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Manager is the single source of truth for who is logged in. It is safe for
// concurrent use and every transition replaces the whole session at once.
type Manager struct {
	mu      sync.RWMutex
	current Session
	log     zerolog.Logger
}

type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = logger.With().Str("component", "session").Logger()
	}
}

// New creates an empty, unauthenticated session manager.
func New(opts ...Option) *Manager {
	m := &Manager{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login replaces the session with the given identity and tokens.
func (m *Manager) Login(user User, accessToken, refreshToken string) {
	next := Session{
		User:  user.clone(),
		Token: newToken(accessToken, refreshToken),
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	m.log.Debug().Str("user_id", user.ID).Time("expiry", next.Expiry()).Msg("session established")
}

// Logout clears the session. Calling it on an empty session changes nothing.
func (m *Manager) Logout() {
	m.mu.Lock()
	wasSet := m.current.User != nil || m.current.Token != nil
	m.current = Session{}
	m.mu.Unlock()

	if wasSet {
		m.log.Debug().Msg("session cleared")
	}
}

// Session returns a copy of the current session. It never performs I/O.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Session{}
	if m.current.User != nil {
		s.User = m.current.User.clone()
	}
	if m.current.Token != nil {
		token := *m.current.Token
		s.Token = &token
	}
	return s
}

func (m *Manager) IsAuthenticated() bool {
	return m.Session().IsAuthenticated()
}

// User returns the logged in user or nil.
func (m *Manager) User() *User {
	return m.Session().User
}

// Token returns the current token pair as an oauth2 token, or nil when logged out.
func (m *Manager) Token() *oauth2.Token {
	return m.Session().Token
}
