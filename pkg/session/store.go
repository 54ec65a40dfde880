package session

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	// ErrNotFound is returned when a session doesn't exist. Callers treat
	// it as "create a new session", never as a failure.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable wraps store backend failures (network, timeout).
	// Callers must surface it rather than fabricating a session.
	ErrUnavailable = errors.New("session store unavailable")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("session store is closed")
)

// Store abstracts session persistence behind a TTL-backed key-value
// contract. Implementations must be safe for concurrent use across
// sessions; turns within one session are serialized by the caller.
type Store interface {
	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Put writes the full session and refreshes its TTL. The write is
	// all-or-nothing; a partially written session is never observable.
	Put(ctx context.Context, sess *Session) error

	// Delete removes a session. Returns ErrNotFound if absent.
	Delete(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store.
	Close() error
}
