package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/courierdesk/ops-dashboard/internal/api/metrics"
	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
	"github.com/courierdesk/ops-dashboard/internal/core/reqctx"
)

// Reasons recorded in LOGIN_FAILED details. They never reach the client.
const (
	reasonUserNotFound    = "User not found"
	reasonInactive        = "Account inactive"
	reasonInvalidPassword = "Invalid password"
)

// AuthService turns credentials into sessions and session tokens back into
// principals.
type AuthService struct {
	accounts ports.AccountFinder
	sessions ports.SessionStore
	throttle *LoginThrottle
	audit    *AuditLogger
	log      zerolog.Logger
}

func NewAuthService(
	accounts ports.AccountFinder,
	sessions ports.SessionStore,
	throttle *LoginThrottle,
	audit *AuditLogger,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		throttle: throttle,
		audit:    audit,
		log:      log,
	}
}

// authFailure carries what the audit trail needs about a rejected attempt.
type authFailure struct {
	account *domain.Account
	reason  string
}

// Authenticate verifies credentials for an attempt from sourceAddress. Unknown
// usernames, inactive accounts and wrong passwords all return
// domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password, sourceAddress string) (*domain.Principal, error) {
	p, _, err := s.authenticate(ctx, username, password, sourceAddress)
	return p, err
}

func (s *AuthService) authenticate(ctx context.Context, username, password, sourceAddress string) (*domain.Principal, *authFailure, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	if !s.throttle.Check(sourceAddress) {
		metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		s.log.Warn().Str("source", sourceAddress).Msg("login rate limit exceeded")
		return nil, nil, domain.ErrRateLimited
	}

	account, err := s.accounts.FindAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, &authFailure{reason: reasonUserNotFound}, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("authenticate: %w", err)
	}

	// Compare before checking Active so both paths cost a bcrypt round.
	pwErr := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	if !account.Active {
		return nil, &authFailure{account: account, reason: reasonInactive}, domain.ErrInvalidCredentials
	}
	if pwErr != nil {
		return nil, &authFailure{account: account, reason: reasonInvalidPassword}, domain.ErrInvalidCredentials
	}

	p := account.Principal()
	return &p, nil, nil
}

// Login authenticates, opens a session and records the outcome. Request
// metadata is taken from ctx.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	meta := reqctx.Meta(ctx)
	attempted := strings.TrimSpace(username)

	p, failure, err := s.authenticate(ctx, username, password, meta.SourceAddress)
	if err != nil {
		if failure != nil {
			metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
			s.audit.LoginFailed(ctx, attempted, failure.account, failure.reason)
			s.log.Info().Str("username", attempted).Str("source", meta.SourceAddress).Msg("login failed")
		}
		return nil, err
	}

	token, err := s.sessions.Create(ctx, *p)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.audit.LoginSucceeded(ctx, *p)
	s.log.Info().Str("username", p.Username).Str("role", string(p.Role)).Msg("login succeeded")

	return &ports.LoginResult{Token: token, Principal: *p}, nil
}

// Resolve returns the principal bound to token. It has no side effects.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Principal, bool) {
	if token == "" {
		return nil, false
	}
	sess, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Warn().Err(err).Msg("session lookup failed")
		}
		return nil, false
	}
	p := sess.Principal
	return &p, true
}

// Logout records the logout of the principal in ctx and destroys the session.
func (s *AuthService) Logout(ctx context.Context, token string) {
	s.audit.Logout(ctx)
	if token == "" {
		return
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.log.Warn().Err(err).Msg("failed to destroy session")
	}
}
