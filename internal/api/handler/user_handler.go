package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

type UserHandler struct {
	identity ports.IdentityService
	users    ports.UserRepository
}

func NewUserHandler(identity ports.IdentityService, users ports.UserRepository) *UserHandler {
	return &UserHandler{identity: identity, users: users}
}

type updatePermissionsRequest struct {
	Permissions []domain.Permission `json:"permissions" validate:"required"`
}

// List returns all users. The route is guarded by the
// ADMIN/PERMISSIONUPDATE middleware.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}

// UpdatePermissions replaces the target user's whole permission set.
func (h *UserHandler) UpdatePermissions(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updatePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.identity.UpdatePermissions(c.Request().Context(), actor, c.Param("id"), req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}
