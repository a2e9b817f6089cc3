package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

func TestEnsureDefaultAdmin_Creates(t *testing.T) {
	store := newMemStore()

	created, err := EnsureDefaultAdmin(context.Background(), store, newFakeClock(jan17), "admin", "changeme", zerolog.Nop())
	if err != nil || !created {
		t.Fatalf("expected account to be created, got %v %v", created, err)
	}

	a := store.accounts["admin"]
	if a == nil || a.Role != domain.RoleAdmin || !a.Active || !a.CreatedAt.Equal(jan17) {
		t.Fatalf("unexpected account: %+v", a)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("changeme")) != nil {
		t.Fatal("stored hash does not match the password")
	}
}

func TestEnsureDefaultAdmin_ExistingAccountIsKept(t *testing.T) {
	store := newMemStore()
	store.accounts["Admin"] = &domain.Account{ID: "u-1", Username: "Admin", Role: domain.RoleStaff}

	created, err := EnsureDefaultAdmin(context.Background(), store, newFakeClock(jan17), "admin", "changeme", zerolog.Nop())
	if err != nil || created {
		t.Fatalf("expected no-op, got %v %v", created, err)
	}
	if len(store.accounts) != 1 || store.accounts["Admin"].Role != domain.RoleStaff {
		t.Fatal("existing account must not be touched")
	}
}

func TestEnsureDefaultAdmin_DisabledWithoutPassword(t *testing.T) {
	store := newMemStore()

	created, err := EnsureDefaultAdmin(context.Background(), store, newFakeClock(jan17), "admin", "", zerolog.Nop())
	if err != nil || created {
		t.Fatalf("expected bootstrap to be skipped, got %v %v", created, err)
	}
	if len(store.accounts) != 0 {
		t.Fatal("no account should be created")
	}
}
