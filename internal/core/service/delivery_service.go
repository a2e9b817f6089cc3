package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/courierdesk/ops-dashboard/internal/api/metrics"
	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const defaultPaymentMethod = "M-Pesa"

type DeliveryService struct {
	repo      ports.DeliveryRepository
	allocator *DisplayIDAllocator
	audit     *AuditLogger
	clock     ports.Clock
	log       zerolog.Logger
}

func NewDeliveryService(
	repo ports.DeliveryRepository,
	allocator *DisplayIDAllocator,
	audit *AuditLogger,
	clock ports.Clock,
	log zerolog.Logger,
) *DeliveryService {
	return &DeliveryService{repo: repo, allocator: allocator, audit: audit, clock: clock, log: log}
}

// Create stores a new delivery under a freshly allocated display id. If the
// insert loses a race on the display id, it is retried exactly once with a
// timestamp fallback id; a second duplicate returns domain.ErrAllocationExhausted.
func (s *DeliveryService) Create(ctx context.Context, actor domain.Principal, in ports.CreateDeliveryInput) (*domain.Delivery, error) {
	status := domain.StatusPending
	if in.Status != "" {
		status = domain.DeliveryStatus(in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, in.Status)
		}
	}
	paymentBy := in.PaymentBy
	if paymentBy == "" {
		paymentBy = defaultPaymentMethod
	}

	now := s.clock.Now()
	d := &domain.Delivery{
		DisplayID:        s.allocator.Allocate(ctx, now),
		SenderName:       strings.TrimSpace(in.SenderName),
		SenderPhone:      strings.TrimSpace(in.SenderPhone),
		RecipientName:    strings.TrimSpace(in.RecipientName),
		RecipientPhone:   strings.TrimSpace(in.RecipientPhone),
		RecipientAddress: strings.TrimSpace(in.RecipientAddress),
		GoodsType:        strings.TrimSpace(in.GoodsType),
		Quantity:         in.Quantity,
		Amount:           in.Amount,
		PaymentBy:        paymentBy,
		Status:           status,
		CreatedAt:        now,
		CreatedBy:        actor.UserID,
	}
	// Staff creating a delivery take it themselves.
	if actor.Role == domain.RoleStaff {
		d.DeliveryPerson = actor.Username
	}

	err := s.repo.InsertDelivery(ctx, d)
	if errors.Is(err, domain.ErrDuplicateDisplayID) {
		taken := d.DisplayID
		d.DisplayID = s.allocator.Fallback(now)
		s.log.Warn().Str("display_id", taken).Str("retry_display_id", d.DisplayID).Msg("display id taken on insert, retrying once")
		err = s.repo.InsertDelivery(ctx, d)
		if errors.Is(err, domain.ErrDuplicateDisplayID) {
			err = domain.ErrAllocationExhausted
		}
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create delivery")
		s.audit.DeliveryAction(ctx, domain.AuditCreate, "", fmt.Sprintf("Failed to create delivery: %v", err))
		return nil, err
	}

	metrics.DeliveriesCreatedTotal.WithLabelValues(string(actor.Role)).Inc()
	s.log.Info().Str("display_id", d.DisplayID).Str("created_by", actor.Username).Msg("delivery created")
	s.audit.DeliveryAction(ctx, domain.AuditCreate, d.DisplayID,
		fmt.Sprintf("Created delivery %s: %s -> %s (%s, KSh%v)", d.DisplayID, d.SenderName, d.RecipientName, d.GoodsType, d.Amount))

	return d, nil
}

func (s *DeliveryService) Get(ctx context.Context, displayID string) (*domain.Delivery, error) {
	return s.repo.FindDeliveryByDisplayID(ctx, displayID)
}

// UpdateStatus changes the status of a delivery and optionally reassigns it.
// Staff may only touch deliveries that are unassigned or assigned to them;
// admins are unrestricted. The role check itself happened in middleware.
func (s *DeliveryService) UpdateStatus(ctx context.Context, actor domain.Principal, in ports.UpdateStatusInput) (*domain.Delivery, error) {
	status := domain.DeliveryStatus(in.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, in.Status)
	}

	d, err := s.repo.FindDeliveryByDisplayID(ctx, in.DisplayID)
	if err != nil {
		return nil, err
	}

	if actor.Role == domain.RoleStaff && !d.AssignableBy(actor.Username) {
		s.audit.DeliveryAction(ctx, domain.AuditUpdate, d.DisplayID,
			fmt.Sprintf("Denied status change on delivery %s assigned to %s", d.DisplayID, d.DeliveryPerson))
		return nil, domain.ErrNotAssignee
	}

	person := d.DeliveryPerson
	if in.DeliveryPerson != "" {
		person = strings.TrimSpace(in.DeliveryPerson)
	}

	if err := s.repo.UpdateDeliveryStatus(ctx, d.DisplayID, status, person); err != nil {
		s.log.Error().Err(err).Str("display_id", d.DisplayID).Msg("failed to update delivery status")
		s.audit.DeliveryAction(ctx, domain.AuditUpdate, d.DisplayID, fmt.Sprintf("Failed to update delivery %s: %v", d.DisplayID, err))
		return nil, err
	}

	details := fmt.Sprintf("Status of delivery %s changed from %s to %s", d.DisplayID, d.Status, status)
	if person != d.DeliveryPerson {
		details += fmt.Sprintf(" and assigned to %s", person)
	}
	d.Status = status
	d.DeliveryPerson = person
	s.audit.DeliveryAction(ctx, domain.AuditUpdate, d.DisplayID, details)

	return d, nil
}

func (s *DeliveryService) Delete(ctx context.Context, actor domain.Principal, displayID string) error {
	if err := s.repo.DeleteDelivery(ctx, displayID); err != nil {
		if !errors.Is(err, domain.ErrDeliveryNotFound) {
			s.log.Error().Err(err).Str("display_id", displayID).Msg("failed to delete delivery")
			s.audit.DeliveryAction(ctx, domain.AuditDelete, displayID, fmt.Sprintf("Failed to delete delivery %s: %v", displayID, err))
		}
		return err
	}
	s.log.Info().Str("display_id", displayID).Str("deleted_by", actor.Username).Msg("delivery deleted")
	s.audit.DeliveryAction(ctx, domain.AuditDelete, displayID, fmt.Sprintf("Deleted delivery %s", displayID))
	return nil
}

// UnassignedListLimit caps the unassigned deliveries listing.
const UnassignedListLimit = 20

// ListUnassigned returns the newest deliveries nobody has taken yet.
func (s *DeliveryService) ListUnassigned(ctx context.Context) ([]*domain.Delivery, error) {
	return s.repo.ListUnassignedDeliveries(ctx, UnassignedListLimit)
}

// Export collects the deliveries created in the current window of period and
// records the export. Unknown period names export the current year.
func (s *DeliveryService) Export(ctx context.Context, period string) (*ports.DeliveryExport, error) {
	p := domain.ParseReportPeriod(period)
	now := s.clock.Now()
	start, end := p.Window(now)

	deliveries, err := s.repo.ListDeliveriesCreatedBetween(ctx, start, end)
	if err != nil {
		s.log.Error().Err(err).Str("period", string(p)).Msg("failed to list deliveries for export")
		return nil, err
	}
	if len(deliveries) == 0 {
		return nil, fmt.Errorf("%w for %s", domain.ErrNoDeliveries, p.Label())
	}

	s.audit.Export(ctx, p.Label(), "CSV")
	return &ports.DeliveryExport{
		Period:     p,
		Label:      p.Label(),
		Filename:   p.Filename(now),
		Deliveries: deliveries,
	}, nil
}
