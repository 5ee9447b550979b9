// Package session stores per-viewer application state.
//
// A session holds one viewer's [view.State]: the detail level and the nodes
// the viewer has pinned. The HTTP server creates one per browser tab and
// mutates it on toggle, pin and release, so two viewers never see each
// other's layout.
//
// # Backends
//
//   - [MemoryStore]: in-process map, for a single server instance and tests
//   - [FileStore]: one JSON file per session, survives restarts
//   - [RedisStore]: shared by several server instances, expiry handled by Redis
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(view.Collapsed, session.DefaultTTL)
//	_ = store.Set(ctx, sess)
//
//	sess, err = store.Update(ctx, sess.ID, func(s *session.Session) error {
//	    s.State.Toggle()
//	    return nil
//	})
//
// Expired sessions behave as missing: Get and Update return [ErrNotFound].
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/linkatlas/pkg/view"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown session backend")
)

// DefaultTTL is the idle time after which a session expires. Every update
// extends it.
const DefaultTTL = 24 * time.Hour

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Session is one viewer's state.
type Session struct {
	ID string `json:"id"`
	view.State

	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	TTL       time.Duration `json:"ttl,omitempty"`
}

// New creates a session with a random id in the given mode.
func New(m view.Mode, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		State:     view.NewState(m),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
		TTL:       ttl,
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Touch marks the session as used now and pushes its expiry out by its TTL.
func (s *Session) Touch() {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.UpdatedAt = time.Now().UTC()
	s.ExpiresAt = s.UpdatedAt.Add(ttl)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.State = s.State.Clone()
	return &c
}

// Store is the interface for session storage backends. Implementations are
// safe for concurrent use.
type Store interface {
	// Get retrieves a session by ID. Returns ErrNotFound for a missing or
	// expired session.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, s *Session) error

	// Update applies fn to the stored session and saves the result. The
	// session is touched after fn succeeds. An error from fn aborts the
	// update and is returned unchanged.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (a no-op where the backend expires keys).
	Cleanup(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}
