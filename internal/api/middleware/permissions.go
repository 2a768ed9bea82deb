package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// RequirePermission guards a route behind permission labels: the
// authenticated user must hold at least one of required. Runs after Auth,
// loading the user to read a fresh permission set rather than trusting a
// year-old token.
func RequirePermission(users ports.UserRepository, required ...domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get("userId").(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "you must be signed in")
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "you must be signed in")
			}
			if !user.HasAnyPermission(required...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
