package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps sessions in Redis under session:<id> with a TTL. The
// token handed to clients is an HS256 JWT whose sid claim names the key, so
// forged or truncated tokens are rejected without a Redis round trip.
type SessionStore struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
	clock  ports.Clock
}

func NewSessionStore(client *redis.Client, secret []byte, ttl time.Duration, clock ports.Clock) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{client: client, secret: secret, ttl: ttl, clock: clock}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type storedSession struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create stores a snapshot of principal and returns the signed token.
func (s *SessionStore) Create(ctx context.Context, principal domain.Principal) (string, error) {
	now := s.clock.Now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		Principal: principal,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	payload, err := json.Marshal(storedSession{
		UserID:    principal.UserID,
		Username:  principal.Username,
		Role:      string(principal.Role),
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, key(sess.ID), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	token, err := s.sign(sess)
	if err != nil {
		_ = s.client.Del(ctx, key(sess.ID)).Err()
		return "", err
	}
	return token, nil
}

// Resolve returns the session behind token, or domain.ErrSessionNotFound.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	sid, err := s.parse(token, true)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	raw, err := s.client.Get(ctx, key(sid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	sess := &domain.Session{
		ID: sid,
		Principal: domain.Principal{
			UserID:   stored.UserID,
			Username: stored.Username,
			Role:     domain.Role(stored.Role),
		},
		IssuedAt:  stored.IssuedAt,
		ExpiresAt: stored.ExpiresAt,
	}
	if sess.Expired(s.clock.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Destroy deletes the session behind token. Expired tokens are still accepted
// so a late logout cleans up.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	sid, err := s.parse(token, false)
	if err != nil {
		return nil
	}
	if err := s.client.Del(ctx, key(sid)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) sign(sess *domain.Session) (string, error) {
	claims := sessionClaims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Principal.UserID,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (s *SessionStore) parse(token string, validateExpiry bool) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if !validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if claims.SessionID == "" {
		return "", errors.New("invalid session token: missing sid")
	}
	return claims.SessionID, nil
}

func key(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
