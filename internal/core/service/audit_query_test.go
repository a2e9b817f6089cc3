package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

type failingAuditRepo struct{ *memStore }

func (failingAuditRepo) ListAuditEntries(context.Context, ports.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	return nil, 0, errStoreDown
}

func TestAuditQuery_Paging(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 120; i++ {
		store.audit = append(store.audit, &domain.AuditEntry{ID: fmt.Sprint(i), Action: domain.AuditView})
	}
	svc := NewAuditQueryService(store)

	tests := []struct {
		name      string
		filter    ports.AuditFilter
		wantPage  int
		wantPer   int
		wantItems int
		wantPages int
	}{
		{name: "defaults", filter: ports.AuditFilter{}, wantPage: 1, wantPer: 50, wantItems: 50, wantPages: 3},
		{name: "last page", filter: ports.AuditFilter{Page: 3}, wantPage: 3, wantPer: 50, wantItems: 20, wantPages: 3},
		{name: "per page capped", filter: ports.AuditFilter{PerPage: 1000}, wantPage: 1, wantPer: 200, wantItems: 120, wantPages: 1},
		{name: "past the end", filter: ports.AuditFilter{Page: 9, PerPage: 25}, wantPage: 9, wantPer: 25, wantItems: 0, wantPages: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.Page != tt.wantPage || page.PerPage != tt.wantPer || page.TotalPages != tt.wantPages {
				t.Fatalf("unexpected paging: %+v", page)
			}
			if len(page.Items) != tt.wantItems || page.Total != 120 {
				t.Fatalf("expected %d items of 120, got %d of %d", tt.wantItems, len(page.Items), page.Total)
			}
		})
	}
}

func TestAuditQuery_StoreError(t *testing.T) {
	svc := NewAuditQueryService(failingAuditRepo{newMemStore()})

	if _, err := svc.List(context.Background(), ports.AuditFilter{}); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}
