package service

import (
	"context"

	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const (
	defaultAuditPerPage = 50
	maxAuditPerPage     = 200
)

// AuditQueryService pages through the audit trail, newest first.
type AuditQueryService struct {
	repo ports.AuditRepository
}

func NewAuditQueryService(repo ports.AuditRepository) *AuditQueryService {
	return &AuditQueryService{repo: repo}
}

func (s *AuditQueryService) List(ctx context.Context, filter ports.AuditFilter) (*ports.AuditPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = defaultAuditPerPage
	}
	if filter.PerPage > maxAuditPerPage {
		filter.PerPage = maxAuditPerPage
	}

	items, total, err := s.repo.ListAuditEntries(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage))
	return &ports.AuditPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	}, nil
}
