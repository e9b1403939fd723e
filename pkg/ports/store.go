package ports

import (
	"context"

	"github.com/aretw0/relview/pkg/domain"
)

// SessionStore persists per-user session documents.
type SessionStore interface {
	// Save persists the session under the given ID.
	Save(ctx context.Context, sessionID string, sess *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the active sessions.
	List(ctx context.Context) ([]string, error)
}
