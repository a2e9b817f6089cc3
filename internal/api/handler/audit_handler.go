package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const (
	auditDateLayout = "2006-01-02"
	auditPageName   = "Audit Logs"
	exportPerPage   = 200
)

// AuditHandler backs the admin audit browser.
type AuditHandler struct {
	query    ports.AuditQueryService
	recorder ports.AuditRecorder
	loc      *time.Location
}

func NewAuditHandler(query ports.AuditQueryService, recorder ports.AuditRecorder, loc *time.Location) *AuditHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AuditHandler{query: query, recorder: recorder, loc: loc}
}

// List handles GET /v1/audit.
//
// @Summary      Browse the audit trail
// @Description  Newest first. action and username are case-insensitive substring filters; date_to is inclusive.
// @Tags         audit
// @Produce      json
// @Security     SessionCookie
// @Param        action     query     string  false  "Action filter"
// @Param        username   query     string  false  "Username filter"
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Param        page       query     int     false  "Page (1-based)"
// @Param        per_page   query     int     false  "Page size (default 50)"
// @Success      200        {object}  auditPageResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /v1/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	page, err := h.query.List(ctx, filter)
	if err != nil {
		return err
	}
	h.recorder.PageView(ctx, auditPageName)

	resp := auditPageResponse{
		Items:      make([]auditEntryResponse, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
	}
	for _, e := range page.Items {
		resp.Items = append(resp.Items, toAuditEntryResponse(e))
	}
	return c.JSON(http.StatusOK, resp)
}

// Export handles GET /v1/audit/export and streams the filtered trail as CSV.
//
// @Summary      Export the audit trail as CSV
// @Tags         audit
// @Produce      text/csv
// @Security     SessionCookie
// @Param        action     query  string  false  "Action filter"
// @Param        username   query  string  false  "Username filter"
// @Param        date_from  query  string  false  "YYYY-MM-DD"
// @Param        date_to    query  string  false  "YYYY-MM-DD"
// @Success      200
// @Failure      403  {object}  errorResponse
// @Router       /v1/audit/export [get]
func (h *AuditHandler) Export(c echo.Context) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	filter.Page = 1
	filter.PerPage = exportPerPage

	ctx := c.Request().Context()
	first, err := h.query.List(ctx, filter)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="audit_%s.csv"`, time.Now().In(h.loc).Format("20060102_150405")))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	_ = w.Write([]string{"timestamp", "username", "action", "resource_type", "resource_id", "details", "source_address", "client_agent"})

	page := first
	for {
		for _, e := range page.Items {
			_ = w.Write([]string{
				e.Timestamp.In(h.loc).Format(time.RFC3339),
				e.ActorUsername,
				string(e.Action),
				e.ResourceType,
				e.ResourceID,
				e.Details,
				e.SourceAddress,
				e.ClientAgent,
			})
		}
		if page.Page >= page.TotalPages {
			break
		}
		filter.Page++
		if page, err = h.query.List(ctx, filter); err != nil {
			w.Flush()
			return err
		}
	}
	w.Flush()

	h.recorder.Export(ctx, exportPeriod(c.QueryParam("date_from"), c.QueryParam("date_to")), "CSV")
	return w.Error()
}

// exportPeriod describes the date filter of an audit export. Both bounds are
// inclusive days.
func exportPeriod(from, to string) string {
	switch {
	case from != "" && to != "":
		return from + " to " + to
	case from != "":
		return "since " + from
	case to != "":
		return "until " + to
	default:
		return "all time"
	}
}

func (h *AuditHandler) parseFilter(c echo.Context) (ports.AuditFilter, error) {
	filter := ports.AuditFilter{
		Action:   c.QueryParam("action"),
		Username: c.QueryParam("username"),
	}

	var err error
	if filter.Page, err = intParam(c, "page"); err != nil {
		return filter, err
	}
	if filter.PerPage, err = intParam(c, "per_page"); err != nil {
		return filter, err
	}

	if v := c.QueryParam("date_from"); v != "" {
		from, err := time.ParseInLocation(auditDateLayout, v, h.loc)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "date_from must be YYYY-MM-DD")
		}
		filter.From = from
	}
	if v := c.QueryParam("date_to"); v != "" {
		to, err := time.ParseInLocation(auditDateLayout, v, h.loc)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "date_to must be YYYY-MM-DD")
		}
		filter.To = to.AddDate(0, 0, 1)
	}
	return filter, nil
}

func intParam(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}

func toAuditEntryResponse(e *domain.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:            e.ID,
		ActorUserID:   e.ActorUserID,
		ActorUsername: e.ActorUsername,
		Action:        string(e.Action),
		ResourceType:  e.ResourceType,
		ResourceID:    e.ResourceID,
		Details:       e.Details,
		SourceAddress: e.SourceAddress,
		ClientAgent:   e.ClientAgent,
		Timestamp:     e.Timestamp,
	}
}
