package ports

import (
	"context"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	Principal domain.Principal
}

// AuthService is the session authenticator seen by the transport layer.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string)
	Resolve(ctx context.Context, token string) (*domain.Principal, bool)
}
