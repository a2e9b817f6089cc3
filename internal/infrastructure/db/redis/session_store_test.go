package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{now: time.Now()}
	return NewSessionStore(client, testSecret, ttl, clock), mr, clock
}

var alice = domain.Principal{UserID: "u-1", Username: "alice", Role: domain.RoleStaff}

func TestSessionStore_CreateAndResolve(t *testing.T) {
	store, mr, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, err := store.Create(ctx, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Principal != alice {
		t.Fatalf("expected %+v, got %+v", alice, sess.Principal)
	}
	if ttl := mr.TTL(key(sess.ID)); ttl != time.Hour {
		t.Fatalf("expected key ttl 1h, got %v", ttl)
	}
}

func TestSessionStore_DestroyRevokes(t *testing.T) {
	store, mr, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, _ := store.Create(ctx, alice)
	sess, _ := store.Resolve(ctx, token)

	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(key(sess.ID)) {
		t.Fatal("expected session key deleted")
	}
	if _, err := store.Resolve(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_ResolveRejectsForgedToken(t *testing.T) {
	store, _, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, _ := store.Create(ctx, alice)

	other := NewSessionStore(store.client, []byte("another-secret-another-secret-xx"), time.Hour, store.clock)
	if _, err := other.Resolve(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.Resolve(ctx, "not-a-token"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_ExpiredSession(t *testing.T) {
	store, mr, clock := newTestStore(t, time.Minute)
	ctx := context.Background()

	token, _ := store.Create(ctx, alice)
	clock.now = clock.now.Add(2 * time.Minute)

	if _, err := store.Resolve(ctx, token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	// logout after expiry still cleans up the key
	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestSessionStore_DestroyUnknownTokenIsNoop(t *testing.T) {
	store, _, _ := newTestStore(t, time.Hour)

	if err := store.Destroy(context.Background(), "garbage"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConnect_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = client.Close()
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatal("expected an error for a closed server")
	}
}
