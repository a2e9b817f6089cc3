package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/courierdesk/ops-dashboard/internal/api/metrics"
	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
	"github.com/courierdesk/ops-dashboard/internal/core/reqctx"
)

const (
	DefaultClientAgentMaxLen = 500
	DefaultAuditWriteTimeout = 5 * time.Second
)

// AuditLogger writes the audit trail. Record has no error result: a failed
// write is logged and counted, and the observed operation carries on.
type AuditLogger struct {
	sink        ports.AuditSink
	clock       ports.Clock
	log         zerolog.Logger
	agentMaxLen int
	timeout     time.Duration
}

// AuditOption customises an AuditLogger.
type AuditOption func(*AuditLogger)

// WithClientAgentMaxLen caps the stored client agent, in characters.
func WithClientAgentMaxLen(n int) AuditOption {
	return func(l *AuditLogger) {
		if n > 0 {
			l.agentMaxLen = n
		}
	}
}

// WithWriteTimeout bounds a single sink write.
func WithWriteTimeout(d time.Duration) AuditOption {
	return func(l *AuditLogger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func NewAuditLogger(sink ports.AuditSink, clock ports.Clock, log zerolog.Logger, opts ...AuditOption) *AuditLogger {
	l := &AuditLogger{
		sink:        sink,
		clock:       clock,
		log:         log,
		agentMaxLen: DefaultClientAgentMaxLen,
		timeout:     DefaultAuditWriteTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record writes one entry for action. The actor is action.Actor when set,
// otherwise the principal in ctx; source address and client agent come from
// the request metadata in ctx.
func (l *AuditLogger) Record(ctx context.Context, action domain.AuditAction) {
	entry := l.entry(ctx, action)

	defer func() {
		if r := recover(); r != nil {
			l.fail(entry, fmt.Errorf("panic: %v", r))
		}
	}()

	// The write outlives request cancellation but not the timeout.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	if err := l.sink.InsertAuditEntry(writeCtx, entry); err != nil {
		l.fail(entry, err)
		return
	}
	metrics.AuditEntriesTotal.WithLabelValues(string(entry.Action)).Inc()
}

func (l *AuditLogger) fail(entry *domain.AuditEntry, err error) {
	metrics.AuditWriteFailuresTotal.WithLabelValues(string(entry.Action)).Inc()
	l.log.Error().
		Err(err).
		Str("action", string(entry.Action)).
		Str("actor", entry.ActorUsername).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Msg("failed to write audit entry")
}

func (l *AuditLogger) entry(ctx context.Context, action domain.AuditAction) *domain.AuditEntry {
	meta := reqctx.Meta(ctx)
	entry := &domain.AuditEntry{
		ActorUsername: domain.UnknownActor,
		Action:        action.Verb,
		ResourceType:  action.ResourceType,
		ResourceID:    action.ResourceID,
		Details:       action.Details,
		SourceAddress: meta.SourceAddress,
		ClientAgent:   truncate(meta.ClientAgent, l.agentMaxLen),
		Timestamp:     l.clock.Now(),
	}
	if entry.SourceAddress == "" {
		entry.SourceAddress = domain.UnknownActor
	}
	if entry.ClientAgent == "" {
		entry.ClientAgent = domain.UnknownActor
	}

	switch {
	case action.Actor != nil:
		entry.ActorUserID = action.Actor.UserID
		if action.Actor.Username != "" {
			entry.ActorUsername = action.Actor.Username
		}
	case reqctx.Principal(ctx) != nil:
		p := reqctx.Principal(ctx)
		id := p.UserID
		entry.ActorUserID = &id
		if p.Username != "" {
			entry.ActorUsername = p.Username
		}
	}
	return entry
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// LoginSucceeded records a successful login by principal.
func (l *AuditLogger) LoginSucceeded(ctx context.Context, p domain.Principal) {
	id := p.UserID
	l.Record(ctx, domain.AuditAction{
		Verb:         domain.AuditLoginSuccess,
		ResourceType: domain.ResourceUser,
		ResourceID:   p.UserID,
		Details:      fmt.Sprintf("Login attempt for user %s - Role: %s", p.Username, p.Role),
		Actor:        &domain.AuditActor{UserID: &id, Username: p.Username},
	})
}

// LoginFailed records a failed login attributed to the attempted username.
// account is nil when the username does not resolve, and the entry then has
// no actor user id.
func (l *AuditLogger) LoginFailed(ctx context.Context, username string, account *domain.Account, reason string) {
	actor := &domain.AuditActor{Username: username}
	resourceID := ""
	if account != nil {
		id := account.ID
		actor.UserID = &id
		resourceID = account.ID
	}
	details := fmt.Sprintf("Login attempt for user %s", username)
	if reason != "" {
		details += " - " + reason
	} else {
		details += " - Invalid credentials"
	}
	l.Record(ctx, domain.AuditAction{
		Verb:         domain.AuditLoginFailed,
		ResourceType: domain.ResourceUser,
		ResourceID:   resourceID,
		Details:      details,
		Actor:        actor,
	})
}

// Logout records the end of the session of the principal in ctx.
func (l *AuditLogger) Logout(ctx context.Context) {
	username := domain.UnknownActor
	if p := reqctx.Principal(ctx); p != nil && p.Username != "" {
		username = p.Username
	}
	l.Record(ctx, domain.AuditAction{
		Verb:         domain.AuditLogout,
		ResourceType: domain.ResourceUser,
		Details:      fmt.Sprintf("User %s logged out", username),
	})
}

// DeliveryAction records CREATE, UPDATE or DELETE against a delivery.
func (l *AuditLogger) DeliveryAction(ctx context.Context, verb domain.AuditVerb, displayID, details string) {
	l.Record(ctx, domain.AuditAction{
		Verb:         verb,
		ResourceType: domain.ResourceDelivery,
		ResourceID:   displayID,
		Details:      details,
	})
}

// Export records a report export for period in format.
func (l *AuditLogger) Export(ctx context.Context, period, format string) {
	if format == "" {
		format = "CSV"
	}
	l.Record(ctx, domain.AuditAction{
		Verb:         domain.AuditExport,
		ResourceType: domain.ResourceReport,
		Details:      fmt.Sprintf("Exported %s report in %s format", period, format),
	})
}

// PageView records page-view telemetry.
func (l *AuditLogger) PageView(ctx context.Context, page string) {
	l.Record(ctx, domain.AuditAction{
		Verb:         domain.AuditView,
		ResourceType: domain.ResourcePage,
		Details:      fmt.Sprintf("Viewed %s page", page),
	})
}
