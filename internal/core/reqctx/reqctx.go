// Package reqctx carries the resolved principal and request metadata through
// context.Context so services can attribute audit entries without depending on
// the transport layer.
package reqctx

import (
	"context"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	metaKey
	tokenKey
)

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Principal returns the principal stored in ctx, or nil when the request has no session.
func Principal(ctx context.Context) *domain.Principal {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	if !ok {
		return nil
	}
	return &p
}

// WithMeta returns a copy of ctx carrying m.
func WithMeta(ctx context.Context, m domain.RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey, m)
}

// Meta returns the request metadata stored in ctx, or the zero value.
func Meta(ctx context.Context) domain.RequestMeta {
	m, _ := ctx.Value(metaKey).(domain.RequestMeta)
	return m
}

// WithSessionToken returns a copy of ctx carrying the raw session token.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// SessionToken returns the raw session token stored in ctx.
func SessionToken(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
