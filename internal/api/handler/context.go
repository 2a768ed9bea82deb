package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// ctxIdentity extracts the verified identity injected by the Auth
// middleware. Services receive this value explicitly; nothing downstream
// reads transport state.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	userID, _ := c.Get("userId").(string)
	if userID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return domain.Identity{UserID: userID}, nil
}
