package ports

import (
	"context"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

// CreateDeliveryInput carries the form fields of a new delivery.
type CreateDeliveryInput struct {
	SenderName       string
	SenderPhone      string
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	GoodsType        string
	Quantity         int
	Amount           float64
	PaymentBy        string
	Status           string
}

// UpdateStatusInput changes a delivery's status and optionally reassigns it.
type UpdateStatusInput struct {
	DisplayID      string
	Status         string
	DeliveryPerson string
}

// DeliveryService defines the delivery use cases. The acting principal is
// passed explicitly; role checks have already run in middleware.
type DeliveryService interface {
	Create(ctx context.Context, actor domain.Principal, in CreateDeliveryInput) (*domain.Delivery, error)
	Get(ctx context.Context, displayID string) (*domain.Delivery, error)
	UpdateStatus(ctx context.Context, actor domain.Principal, in UpdateStatusInput) (*domain.Delivery, error)
	Delete(ctx context.Context, actor domain.Principal, displayID string) error
	ListUnassigned(ctx context.Context) ([]*domain.Delivery, error)
	// Export returns the deliveries created in the period's current window.
	// An empty window yields domain.ErrNoDeliveries.
	Export(ctx context.Context, period string) (*DeliveryExport, error)
}

// DeliveryExport is the content of one period export.
type DeliveryExport struct {
	Period     domain.ReportPeriod
	Label      string
	Filename   string
	Deliveries []*domain.Delivery
}

// UserDirectory backs the admin user listing.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]*domain.Account, error)
}

// AuditPage is one page of the audit browser.
type AuditPage struct {
	Items      []*domain.AuditEntry
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// AuditQueryService backs the admin audit browser.
type AuditQueryService interface {
	List(ctx context.Context, filter AuditFilter) (*AuditPage, error)
}
