package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

type stubAuditQuery struct {
	filters []ports.AuditFilter
	pages   map[int]*ports.AuditPage
}

func (s *stubAuditQuery) List(_ context.Context, filter ports.AuditFilter) (*ports.AuditPage, error) {
	s.filters = append(s.filters, filter)
	if p, ok := s.pages[filter.Page]; ok {
		return p, nil
	}
	return &ports.AuditPage{Page: filter.Page}, nil
}

type stubRecorder struct {
	views   []string
	exports []string
}

func (r *stubRecorder) PageView(_ context.Context, page string) {
	r.views = append(r.views, page)
}

func (r *stubRecorder) Export(_ context.Context, period, format string) {
	r.exports = append(r.exports, period+"/"+format)
}

var nairobi = time.FixedZone("EAT", 3*60*60)

func TestAuditHandler_List_ParsesFilters(t *testing.T) {
	e := newEcho()
	id := "u-1"
	query := &stubAuditQuery{pages: map[int]*ports.AuditPage{
		2: {
			Items: []*domain.AuditEntry{{
				ID: "a-1", ActorUserID: &id, ActorUsername: "alice", Action: domain.AuditLoginSuccess,
				Timestamp: time.Date(2025, 1, 17, 8, 0, 0, 0, time.UTC),
			}},
			Total: 51, Page: 2, PerPage: 50, TotalPages: 2,
		},
	}}
	rec := &stubRecorder{}
	h := NewAuditHandler(query, rec, nairobi)

	req := httptest.NewRequest(http.MethodGet, "/v1/audit?action=login&username=ali&date_from=2025-01-17&date_to=2025-01-17&page=2", nil)
	res := httptest.NewRecorder()
	c := e.NewContext(req, res)

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	f := query.filters[0]
	if f.Action != "login" || f.Username != "ali" || f.Page != 2 {
		t.Fatalf("unexpected filter: %+v", f)
	}
	wantFrom := time.Date(2025, 1, 17, 0, 0, 0, 0, nairobi)
	if !f.From.Equal(wantFrom) || !f.To.Equal(wantFrom.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected range: %v - %v", f.From, f.To)
	}

	var body auditPageResponse
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Total != 51 || len(body.Items) != 1 || body.Items[0].ActorUsername != "alice" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if len(rec.views) != 1 || rec.views[0] != "Audit Logs" {
		t.Fatalf("expected page view recorded, got %v", rec.views)
	}
}

func TestAuditHandler_List_BadDate(t *testing.T) {
	e := newEcho()
	h := NewAuditHandler(&stubAuditQuery{}, &stubRecorder{}, nairobi)

	req := httptest.NewRequest(http.MethodGet, "/v1/audit?date_from=17/01/2025", nil)
	res := httptest.NewRecorder()
	c := e.NewContext(req, res)

	if err := h.List(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAuditHandler_Export_WritesAllPages(t *testing.T) {
	e := newEcho()
	entry := func(user string) *domain.AuditEntry {
		return &domain.AuditEntry{ActorUsername: user, Action: domain.AuditView, Timestamp: time.Now()}
	}
	query := &stubAuditQuery{pages: map[int]*ports.AuditPage{
		1: {Items: []*domain.AuditEntry{entry("alice")}, Page: 1, TotalPages: 2},
		2: {Items: []*domain.AuditEntry{entry("bob")}, Page: 2, TotalPages: 2},
	}}
	rec := &stubRecorder{}
	h := NewAuditHandler(query, rec, nairobi)

	req := httptest.NewRequest(http.MethodGet, "/v1/audit/export", nil)
	res := httptest.NewRecorder()
	c := e.NewContext(req, res)

	if err := h.Export(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	rows, err := csv.NewReader(res.Body).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 3 || rows[1][1] != "alice" || rows[2][1] != "bob" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if len(rec.exports) != 1 || rec.exports[0] != "all time/CSV" {
		t.Fatalf("expected export recorded, got %v", rec.exports)
	}
}

func TestAuditHandler_Export_RecordsDateRange(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"?date_from=2025-01-01&date_to=2025-01-17", "2025-01-01 to 2025-01-17/CSV"},
		{"?date_from=2025-01-01", "since 2025-01-01/CSV"},
		{"?date_to=2025-01-17&action=login", "until 2025-01-17/CSV"},
		{"?username=alice", "all time/CSV"},
	}

	for _, tc := range cases {
		e := newEcho()
		rec := &stubRecorder{}
		h := NewAuditHandler(&stubAuditQuery{}, rec, nairobi)

		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/audit/export"+tc.query, nil), httptest.NewRecorder())
		if err := h.Export(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.query, err)
		}
		if len(rec.exports) != 1 || rec.exports[0] != tc.want {
			t.Fatalf("%s: expected %q, got %v", tc.query, tc.want, rec.exports)
		}
	}
}

func TestAuditHandler_Export_BadDateNotRecorded(t *testing.T) {
	e := newEcho()
	rec := &stubRecorder{}
	h := NewAuditHandler(&stubAuditQuery{}, rec, nairobi)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/audit/export?date_from=17-01-2025", nil), httptest.NewRecorder())
	if err := h.Export(c); err == nil {
		t.Fatal("expected a bad request error")
	}
	if len(rec.exports) != 0 {
		t.Fatalf("failed export was recorded: %v", rec.exports)
	}
}
