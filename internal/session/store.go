package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"expvar"
	"sync"
	"time"
)

var activeSessions = expvar.NewInt("gauge_sessions_active")

// Store holds the active sessions
type Store struct {
	cfg         *Config
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates a Store, evicting sessions that have been idle for idleTimeout once Run is called
func NewStore(cfg Config, idleTimeout time.Duration) *Store {
	return &Store{
		cfg:         &cfg,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session
func (s *Store) Create() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	session := newSession(id, s.cfg)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = session
	activeSessions.Add(1)

	return session, nil
}

// Get returns the session with the given id
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	return session, nil
}

// Delete ends the session with the given id
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}

	s.remove(session)
	return nil
}

// Len returns the amount of active sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Run evicts idle sessions every interval until ctx is canceled
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.Evict(time.Now()); evicted > 0 {
				s.cfg.Log.Debugw("evicted idle sessions", "count", evicted, "active", s.Len())
			}
		}
	}
}

// Evict removes the sessions that have been idle since before now minus the idle timeout
// Sessions are checked and removed under one lock, so a session used meanwhile is kept
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for _, session := range s.sessions {
		if now.Sub(session.idleSince()) >= s.idleTimeout {
			s.remove(session)
			evicted++
		}
	}

	return evicted
}

// The caller must hold s.mu
func (s *Store) remove(session *Session) {
	delete(s.sessions, session.id)
	activeSessions.Add(-1)
	session.close()
}

func newID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
