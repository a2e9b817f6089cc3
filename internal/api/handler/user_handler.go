package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

// UserHandler backs the admin user management page.
type UserHandler struct {
	users ports.UserDirectory
}

func NewUserHandler(users ports.UserDirectory) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /v1/users.
//
// @Summary      List user accounts
// @Description  Active accounts first, then by username. Password hashes are never returned.
// @Tags         users
// @Produce      json
// @Security     SessionCookie
// @Success      200  {array}   userResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	accounts, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]userResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toUserResponse(a))
	}
	return c.JSON(http.StatusOK, resp)
}

func toUserResponse(a *domain.Account) userResponse {
	return userResponse{
		ID:        a.ID,
		Username:  a.Username,
		Role:      string(a.Role),
		IsAdmin:   a.Role == domain.RoleAdmin,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
	}
}
