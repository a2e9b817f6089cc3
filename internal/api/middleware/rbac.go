package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courierdesk/ops-dashboard/internal/api/metrics"
	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/reqctx"
)

// Require enforces a role requirement against the principal attached by
// Session. Missing sessions get 401, insufficient roles 403. The messages are
// uniform and never name the required role.
func Require(req domain.RoleRequirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := reqctx.Principal(c.Request().Context())
			if domain.Permits(p, req) {
				return next(c)
			}

			err := domain.DeniedError(p)
			if errors.Is(err, domain.ErrAuthenticationRequired) {
				metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required").SetInternal(err)
			}
			metrics.AccessDeniedTotal.WithLabelValues("insufficient_role").Inc()
			return echo.NewHTTPError(http.StatusForbidden, "access forbidden").SetInternal(err)
		}
	}
}
