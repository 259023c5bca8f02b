// Package session persists the per-visitor data map that flash stores bind
// to. Backends serialise the whole map as JSON under a random session ID and
// expire it after a TTL that is refreshed on every save.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned when a session ID is unknown or has expired.
var ErrNotFound = errors.New("session: not found")

// Store loads and saves session data maps.
type Store interface {
	// Load returns the data of an existing session, or ErrNotFound.
	Load(ctx context.Context, id string) (map[string]any, error)

	// Save writes data under id, creating the session if needed, and
	// refreshes its expiry.
	Save(ctx context.Context, id string, data map[string]any) error

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// NewID returns a fresh random session ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an ID produced by NewID. Cookies
// carrying anything else are treated as absent.
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}
