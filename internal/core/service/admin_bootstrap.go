package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

// EnsureDefaultAdmin creates the reserved admin account when no account
// matches username case-insensitively. It reports whether an account was created.
// An empty password disables the bootstrap.
func EnsureDefaultAdmin(ctx context.Context, accounts ports.AccountRepository, clock ports.Clock, username, password string, log zerolog.Logger) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		log.Warn().Msg("admin bootstrap skipped: ADMIN_USERNAME or ADMIN_PASSWORD not set")
		return false, nil
	}

	existing, err := accounts.FindAccountByUsernameFold(ctx, username)
	if err == nil {
		log.Debug().Str("username", existing.Username).Msg("admin account present")
		return false, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return false, fmt.Errorf("admin bootstrap: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("admin bootstrap: hash password: %w", err)
	}

	account := &domain.Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    clock.Now(),
	}
	if err := accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return false, nil
		}
		return false, fmt.Errorf("admin bootstrap: %w", err)
	}

	log.Info().Str("username", username).Msg("default admin account created")
	return true, nil
}
