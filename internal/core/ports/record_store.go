package ports

import (
	"context"
	"time"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

// DisplayIDStore is what the display id allocator reads.
type DisplayIDStore interface {
	// CountDeliveriesCreatedBetween counts deliveries with start <= created_at < end.
	CountDeliveriesCreatedBetween(ctx context.Context, start, end time.Time) (int, error)
	DeliveryExistsWithDisplayID(ctx context.Context, displayID string) (bool, error)
}

// AuditSink receives audit entries.
type AuditSink interface {
	InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
}

// AccountFinder looks up accounts by exact username. Returns
// domain.ErrAccountNotFound when absent.
type AccountFinder interface {
	FindAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// RecordStore is the persistence dependency of the identity and accountability
// core. Both the Mongo and Postgres stores implement it.
type RecordStore interface {
	DisplayIDStore
	AuditSink
	AccountFinder
}

// AccountRepository adds the writes needed by the admin bootstrap.
type AccountRepository interface {
	AccountFinder
	// FindAccountByUsernameFold matches case-insensitively. Only the reserved
	// admin account is looked up this way.
	FindAccountByUsernameFold(ctx context.Context, username string) (*domain.Account, error)
	CreateAccount(ctx context.Context, account *domain.Account) error
}

// AccountLister lists every account, active ones first, then by username.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
}

// DeliveryRepository persists deliveries. InsertDelivery returns
// domain.ErrDuplicateDisplayID when the display id is already taken.
type DeliveryRepository interface {
	DisplayIDStore
	InsertDelivery(ctx context.Context, d *domain.Delivery) error
	FindDeliveryByDisplayID(ctx context.Context, displayID string) (*domain.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, displayID string, status domain.DeliveryStatus, deliveryPerson string) error
	DeleteDelivery(ctx context.Context, displayID string) error
	// ListDeliveriesCreatedBetween returns deliveries with start <= created_at < end, newest first.
	ListDeliveriesCreatedBetween(ctx context.Context, start, end time.Time) ([]*domain.Delivery, error)
	// ListUnassignedDeliveries returns at most limit deliveries without a
	// delivery person, newest first.
	ListUnassignedDeliveries(ctx context.Context, limit int) ([]*domain.Delivery, error)
}

// AuditFilter narrows an audit listing. Action and Username are
// case-insensitive substring matches; zero times are unbounded.
type AuditFilter struct {
	Action   string
	Username string
	From     time.Time
	To       time.Time
	Page     int // 1-based
	PerPage  int
}

// AuditRepository reads the audit trail for the admin browser.
type AuditRepository interface {
	AuditSink
	ListAuditEntries(ctx context.Context, filter AuditFilter) ([]*domain.AuditEntry, int64, error)
}
