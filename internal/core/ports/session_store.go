package ports

import (
	"context"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

// SessionStore keeps server-side sessions. Expiry policy belongs to the store.
type SessionStore interface {
	Create(ctx context.Context, principal domain.Principal) (string, error)
	// Resolve returns domain.ErrSessionNotFound for absent, expired or
	// malformed tokens.
	Resolve(ctx context.Context, token string) (*domain.Session, error)
	Destroy(ctx context.Context, token string) error
}
