package domain

import "time"

// AuditVerb enumerates the observed actions.
type AuditVerb string

const (
	AuditLoginSuccess AuditVerb = "LOGIN_SUCCESS"
	AuditLoginFailed  AuditVerb = "LOGIN_FAILED"
	AuditLogout       AuditVerb = "LOGOUT"
	AuditCreate       AuditVerb = "CREATE"
	AuditUpdate       AuditVerb = "UPDATE"
	AuditDelete       AuditVerb = "DELETE"
	AuditView         AuditVerb = "VIEW"
	AuditExport       AuditVerb = "EXPORT"
)

// Resource type tags used by the audit helpers.
const (
	ResourceUser     = "USER"
	ResourceDelivery = "DELIVERY"
	ResourceReport   = "REPORT"
	ResourcePage     = "PAGE"
)

// UnknownActor is recorded when no username is available.
const UnknownActor = "Unknown"

// AuditActor overrides the session principal as the actor of an entry. Login
// events use it because no session exists yet. A nil UserID marks an attempt
// against a username that does not resolve to an account.
type AuditActor struct {
	UserID   *string
	Username string
}

// AuditAction describes what happened; the logger enriches it with the actor
// and request metadata.
type AuditAction struct {
	Verb         AuditVerb
	ResourceType string
	ResourceID   string
	Details      string
	Actor        *AuditActor
}

// AuditEntry is an immutable record of one observed action.
type AuditEntry struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	ActorUserID   *string   `json:"actor_user_id" bson:"actor_user_id"`
	ActorUsername string    `json:"actor_username" bson:"actor_username"`
	Action        AuditVerb `json:"action" bson:"action"`
	ResourceType  string    `json:"resource_type,omitempty" bson:"resource_type,omitempty"`
	ResourceID    string    `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Details       string    `json:"details,omitempty" bson:"details,omitempty"`
	SourceAddress string    `json:"source_address" bson:"source_address"`
	ClientAgent   string    `json:"client_agent" bson:"client_agent"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
}

// RequestMeta is the per-request information attached to audit entries.
type RequestMeta struct {
	SourceAddress string
	ClientAgent   string
}
