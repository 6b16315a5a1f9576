// Package storage provides abstractions for session storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitchat/internal/session"
)

var (
	// ErrNotFound is returned for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned when creating a session whose ID is taken.
	ErrExists = errors.New("session already exists")
)

// SessionStore holds live sessions.
// This abstraction keeps the service layer independent of where sessions
// live and how they expire.
type SessionStore interface {
	// Create stores a new session under s.ID.
	// Returns ErrExists if the ID is already in use.
	Create(ctx context.Context, s *session.Session) error

	// Get retrieves a session by its ID.
	// Returns ErrNotFound if the session does not exist or has expired.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes a session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Sweep evicts sessions idle since before now minus the store's TTL and
	// returns how many were removed. Sessions with a request in flight are kept.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Len returns the number of live sessions.
	Len() int

	// Close releases any resources held by the store.
	Close() error
}
