package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
	"github.com/courierdesk/ops-dashboard/internal/core/reqctx"
)

// PrincipalKey is the echo.Context key holding the resolved *domain.Principal.
const PrincipalKey = "principal"

// Session attaches request metadata to every request and, when the request
// carries a valid session token, the principal. The token is read from the
// session cookie first, then from a Bearer Authorization header. Requests
// without a valid token pass through anonymously; Require decides access.
func Session(auth ports.AuthService, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := reqctx.WithMeta(req.Context(), domain.RequestMeta{
				SourceAddress: c.RealIP(),
				ClientAgent:   req.UserAgent(),
			})

			if token := sessionToken(c, cookieName); token != "" {
				if p, ok := auth.Resolve(ctx, token); ok {
					ctx = reqctx.WithPrincipal(ctx, *p)
					ctx = reqctx.WithSessionToken(ctx, token)
					c.Set(PrincipalKey, p)
				}
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func sessionToken(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
