package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/reqctx"
)

// currentPrincipal returns the principal attached by the Session middleware.
// Routes behind Require never hit the error branch; it guards handlers
// mounted without it.
func currentPrincipal(c echo.Context) (domain.Principal, error) {
	p := reqctx.Principal(c.Request().Context())
	if p == nil {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return *p, nil
}

// bindAndValidate decodes the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
