package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

func seedDeliveryAt(store *memStore, id, person string, at time.Time) {
	store.deliveries[id] = &domain.Delivery{DisplayID: id, Status: domain.StatusPending, DeliveryPerson: person, CreatedAt: at}
}

func TestExport_CurrentWindowNewestFirst(t *testing.T) {
	svc, store := newDeliveryFixture()
	seedDeliveryAt(store, "2501170002", "", jan17.Add(-time.Hour))
	seedDeliveryAt(store, "2501170001", "wanjiru", jan17.Add(-3*time.Hour))
	seedDeliveryAt(store, "2501160001", "", jan17.Add(-24*time.Hour))

	out, err := svc.Export(actorCtx(adminActor), "daily")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Period != domain.PeriodDaily || out.Label != "today" || out.Filename != "deliveries_2025-01-17.csv" {
		t.Fatalf("unexpected export header: %+v", out)
	}
	if len(out.Deliveries) != 2 || out.Deliveries[0].DisplayID != "2501170002" || out.Deliveries[1].DisplayID != "2501170001" {
		t.Fatalf("unexpected deliveries: %+v", out.Deliveries)
	}

	e := store.lastEntry()
	if e.Action != domain.AuditExport || e.ResourceType != domain.ResourceReport ||
		e.Details != "Exported today report in CSV format" {
		t.Fatalf("unexpected audit entry: %+v", e)
	}

	out, err = svc.Export(actorCtx(adminActor), "weekly")
	if err != nil || len(out.Deliveries) != 3 {
		t.Fatalf("weekly: got %v, %v", out, err)
	}
}

func TestExport_UnknownPeriodIsYearly(t *testing.T) {
	svc, store := newDeliveryFixture()
	seedDeliveryAt(store, "2501020001", "", time.Date(2025, 1, 2, 9, 0, 0, 0, jan17.Location()))
	seedDeliveryAt(store, "2412310001", "", time.Date(2024, 12, 31, 9, 0, 0, 0, jan17.Location()))

	out, err := svc.Export(actorCtx(adminActor), "fortnightly")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Label != "this year" || len(out.Deliveries) != 1 || out.Deliveries[0].DisplayID != "2501020001" {
		t.Fatalf("unexpected export: %+v", out)
	}
}

func TestExport_EmptyWindow(t *testing.T) {
	svc, store := newDeliveryFixture()
	seedDeliveryAt(store, "2412310001", "", time.Date(2024, 12, 31, 9, 0, 0, 0, jan17.Location()))

	_, err := svc.Export(actorCtx(adminActor), "monthly")
	if !errors.Is(err, domain.ErrNoDeliveries) {
		t.Fatalf("expected ErrNoDeliveries, got %v", err)
	}
	if !strings.Contains(err.Error(), "this month") {
		t.Fatalf("error should name the window: %v", err)
	}
	if len(store.entries()) != 0 {
		t.Fatal("an empty export must not be audited")
	}
}

func TestExport_StoreError(t *testing.T) {
	svc, store := newDeliveryFixture()
	store.listErr = errStoreDown

	if _, err := svc.Export(actorCtx(adminActor), "all"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestListUnassigned_CappedAndNewestFirst(t *testing.T) {
	svc, store := newDeliveryFixture()
	for i := 0; i < UnassignedListLimit+5; i++ {
		seedDeliveryAt(store, fmt.Sprintf("25011700%02d", i), "", jan17.Add(time.Duration(i)*time.Minute))
	}
	seedDeliveryAt(store, "2501179999", "wanjiru", jan17.Add(time.Hour))

	out, err := svc.ListUnassigned(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != UnassignedListLimit {
		t.Fatalf("expected %d deliveries, got %d", UnassignedListLimit, len(out))
	}
	if out[0].DisplayID != "2501170024" {
		t.Fatalf("expected newest first, got %s", out[0].DisplayID)
	}
	for _, d := range out {
		if d.DeliveryPerson != "" {
			t.Fatalf("assigned delivery listed: %+v", d)
		}
	}
}

func TestUserDirectory_ActiveFirstThenUsername(t *testing.T) {
	store := newMemStore()
	for _, a := range []*domain.Account{
		{Username: "zawadi", Role: domain.RoleStaff, Active: true},
		{Username: "baraka", Role: domain.RoleUser, Active: false},
		{Username: "admin", Role: domain.RoleAdmin, Active: true},
	} {
		if err := store.CreateAccount(context.Background(), a); err != nil {
			t.Fatal(err)
		}
	}
	audit := NewAuditLogger(store, newFakeClock(jan17), zerolog.Nop())
	dir := NewUserDirectory(store, audit)

	users, err := dir.ListUsers(actorCtx(adminActor))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	if got := strings.Join(names, ","); got != "admin,zawadi,baraka" {
		t.Fatalf("unexpected order: %s", got)
	}
	if e := store.lastEntry(); e == nil || e.Details != "Viewed User Management page" {
		t.Fatalf("unexpected audit entry: %+v", e)
	}

	store.listErr = errStoreDown
	if _, err := dir.ListUsers(actorCtx(adminActor)); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}
