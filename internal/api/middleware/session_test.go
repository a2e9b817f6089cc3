package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
	"github.com/courierdesk/ops-dashboard/internal/core/reqctx"
)

type stubAuthService struct {
	sessions map[string]domain.Principal
}

func (s *stubAuthService) Login(context.Context, string, string) (*ports.LoginResult, error) {
	return nil, nil
}

func (s *stubAuthService) Logout(context.Context, string) {}

func (s *stubAuthService) Resolve(_ context.Context, token string) (*domain.Principal, bool) {
	p, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	return &p, true
}

var alice = domain.Principal{UserID: "u-1", Username: "alice", Role: domain.RoleStaff}

func newStub() *stubAuthService {
	return &stubAuthService{sessions: map[string]domain.Principal{"good": alice}}
}

func TestSession_CookieToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "good"})
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Session(newStub(), "sid")(func(c echo.Context) error {
		called = true
		ctx := c.Request().Context()

		p := reqctx.Principal(ctx)
		if p == nil || p.Username != "alice" {
			t.Fatalf("principal not attached: %+v", p)
		}
		if reqctx.SessionToken(ctx) != "good" {
			t.Fatalf("session token not attached")
		}
		meta := reqctx.Meta(ctx)
		if meta.SourceAddress != "203.0.113.7" {
			t.Fatalf("expected forwarded address, got %q", meta.SourceAddress)
		}
		if meta.ClientAgent != "test-agent" {
			t.Fatalf("expected user agent, got %q", meta.ClientAgent)
		}
		if _, ok := c.Get(PrincipalKey).(*domain.Principal); !ok {
			t.Fatalf("principal not set on echo context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestSession_BearerToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Session(newStub(), "sid")(func(c echo.Context) error {
		if reqctx.Principal(c.Request().Context()) == nil {
			t.Fatalf("principal not attached")
		}
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestSession_InvalidTokenPassesAnonymously(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Session(newStub(), "sid")(func(c echo.Context) error {
		called = true
		if reqctx.Principal(c.Request().Context()) != nil {
			t.Fatalf("expected no principal")
		}
		if reqctx.Meta(c.Request().Context()).SourceAddress == "" {
			t.Fatalf("expected request meta even without a session")
		}
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}
