package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: username and password are required", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrInvalidStatus, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrAuthenticationRequired, http.StatusUnauthorized},
		{domain.ErrInsufficientRole, http.StatusForbidden},
		{domain.ErrNotAssignee, http.StatusForbidden},
		{domain.ErrDeliveryNotFound, http.StatusNotFound},
		{fmt.Errorf("%w for today", domain.ErrNoDeliveries), http.StatusNotFound},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("create: %w", domain.ErrAllocationExhausted), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusForbidden, "access forbidden"), http.StatusForbidden},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		h(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body.Error == "" {
			t.Fatalf("%v: expected error message", tc.err)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("pq: connection refused"), c)

	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "internal server error" {
		t.Fatalf("expected generic message, got %q", body.Error)
	}
}

func TestHTTPErrorHandler_EmptyExportNamesWindow(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(fmt.Errorf("%w for this month", domain.ErrNoDeliveries), c)

	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if rec.Code != http.StatusNotFound || body.Error != "no delivery records found for this month" {
		t.Fatalf("got %d %q", rec.Code, body.Error)
	}
}
