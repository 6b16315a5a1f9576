// Package memory provides an in-process implementation of the
// storage.SessionStore interface. Nothing is written to disk.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmynk/splitchat/internal/session"
	"github.com/mmynk/splitchat/internal/storage"
)

// Ensure Store implements storage.SessionStore
var _ storage.SessionStore = (*Store)(nil)

// Store keeps sessions in a map guarded by a RWMutex.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New creates a store that expires sessions idle for longer than ttl.
// A zero ttl disables expiry.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session.Session),
	}
}

// Create stores a new session.
func (s *Store) Create(_ context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("%w: %s", storage.ErrExists, sess.ID)
	}
	s.sessions[sess.ID] = sess
	return nil
}

// Get retrieves a session by ID. Reads count as activity, so a client that
// only polls a session keeps it alive.
func (s *Store) Get(_ context.Context, id string) (*session.Session, error) {
	now := s.now()
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.expired(sess, now) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	sess.Touch(now)
	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Sweep evicts expired sessions.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) expired(sess *session.Session, now time.Time) bool {
	if s.ttl <= 0 || sess.Flight().Busy() {
		return false
	}
	return now.Sub(sess.LastTouched()) > s.ttl
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drops all sessions.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
	return nil
}
