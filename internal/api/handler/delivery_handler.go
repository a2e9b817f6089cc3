package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const exportTimeLayout = "2006-01-02 15:04"

var deliveryExportHeader = []string{
	"ID", "Display ID", "Sender", "Recipient", "Delivery Person", "Goods Type", "Quantity",
	"Amount (KSh)", "Expenses (KSh)", "Profit (KSh)", "Status", "Created At",
}

// DeliveryHandler handles HTTP requests for delivery operations.
type DeliveryHandler struct {
	service ports.DeliveryService
	loc     *time.Location
}

// NewDeliveryHandler renders export timestamps in loc; nil means UTC.
func NewDeliveryHandler(service ports.DeliveryService, loc *time.Location) *DeliveryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DeliveryHandler{service: service, loc: loc}
}

// Create handles POST /v1/deliveries.
//
// @Summary      Create a delivery
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body      createDeliveryRequest  true  "Delivery details"
// @Success      201   {object}  deliveryResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/deliveries [post]
func (h *DeliveryHandler) Create(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req createDeliveryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	d, err := h.service.Create(c.Request().Context(), actor, ports.CreateDeliveryInput{
		SenderName:       req.SenderName,
		SenderPhone:      req.SenderPhone,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		RecipientAddress: req.RecipientAddress,
		GoodsType:        req.GoodsType,
		Quantity:         req.Quantity,
		Amount:           req.Amount,
		PaymentBy:        req.PaymentBy,
		Status:           req.Status,
	})
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/deliveries/"+d.DisplayID)
	return c.JSON(http.StatusCreated, toDeliveryResponse(d))
}

// Get handles GET /v1/deliveries/:display_id.
//
// @Summary      Get a delivery by display id
// @Tags         deliveries
// @Produce      json
// @Security     SessionCookie
// @Param        display_id  path      string  true  "Display id (e.g. 2501170004)"
// @Success      200         {object}  deliveryResponse
// @Failure      401         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Router       /v1/deliveries/{display_id} [get]
func (h *DeliveryHandler) Get(c echo.Context) error {
	d, err := h.service.Get(c.Request().Context(), c.Param("display_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDeliveryResponse(d))
}

// UpdateStatus handles PATCH /v1/deliveries/:display_id/status.
//
// @Summary      Update a delivery's status
// @Description  Staff may only update deliveries that are unassigned or assigned to them.
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        display_id  path      string               true  "Display id"
// @Param        body        body      updateStatusRequest  true  "New status"
// @Success      200         {object}  deliveryResponse
// @Failure      400         {object}  errorResponse
// @Failure      403         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Router       /v1/deliveries/{display_id}/status [patch]
func (h *DeliveryHandler) UpdateStatus(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	d, err := h.service.UpdateStatus(c.Request().Context(), actor, ports.UpdateStatusInput{
		DisplayID:      c.Param("display_id"),
		Status:         req.Status,
		DeliveryPerson: req.DeliveryPerson,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDeliveryResponse(d))
}

// Delete handles DELETE /v1/deliveries/:display_id.
//
// @Summary      Delete a delivery
// @Tags         deliveries
// @Security     SessionCookie
// @Param        display_id  path  string  true  "Display id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/deliveries/{display_id} [delete]
func (h *DeliveryHandler) Delete(c echo.Context) error {
	actor, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("display_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUnassigned handles GET /v1/deliveries/unassigned.
//
// @Summary      List unassigned deliveries
// @Description  The 20 newest deliveries without a delivery person.
// @Tags         deliveries
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  deliveryListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/deliveries/unassigned [get]
func (h *DeliveryHandler) ListUnassigned(c echo.Context) error {
	deliveries, err := h.service.ListUnassigned(c.Request().Context())
	if err != nil {
		return err
	}
	resp := deliveryListResponse{Items: make([]deliveryResponse, 0, len(deliveries))}
	for _, d := range deliveries {
		resp.Items = append(resp.Items, toDeliveryResponse(d))
	}
	resp.Count = len(resp.Items)
	return c.JSON(http.StatusOK, resp)
}

// Export handles GET /v1/deliveries/export/:period and streams the
// deliveries created in the current day, week, month, year or all time.
//
// @Summary      Export deliveries as CSV
// @Tags         deliveries
// @Produce      text/csv
// @Security     SessionCookie
// @Param        period  path  string  true  "daily, weekly, monthly, yearly or all"
// @Success      200
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/deliveries/export/{period} [get]
func (h *DeliveryHandler) Export(c echo.Context) error {
	out, err := h.service.Export(c.Request().Context(), c.Param("period"))
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	_ = w.Write(deliveryExportHeader)
	for _, d := range out.Deliveries {
		_ = w.Write([]string{
			d.ID,
			d.DisplayID,
			d.SenderName,
			d.RecipientName,
			d.DeliveryPerson,
			d.GoodsType,
			strconv.Itoa(d.Quantity),
			money(d.Amount),
			money(d.Expenses),
			money(d.Profit()),
			string(d.Status),
			d.CreatedAt.In(h.loc).Format(exportTimeLayout),
		})
	}
	w.Flush()
	return w.Error()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
