package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/core/ports"
)

type CartHandler struct {
	cart ports.CartService
}

func NewCartHandler(cart ports.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// Add puts one unit of an item into the caller's cart; repeated adds merge
// into the existing line.
//
// @Summary      Add an item to the cart
// @Tags         cart
// @Produce      json
// @Param        itemId  path      string  true  "Item id"
// @Success      200     {object}  map[string]any
// @Failure      401     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /cart/{itemId} [post]
func (h *CartHandler) Add(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	line, err := h.cart.AddToCart(c.Request().Context(), actor, c.Param("itemId"))
	if err != nil {
		return err
	}

	metrics.CartMutationsTotal.WithLabelValues("add").Inc()
	return c.JSON(http.StatusOK, map[string]any{"cart_item": line})
}

// Remove deletes a whole cart line regardless of quantity.
func (h *CartHandler) Remove(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	line, err := h.cart.RemoveFromCart(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.CartMutationsTotal.WithLabelValues("remove").Inc()
	return c.JSON(http.StatusOK, map[string]any{"cart_item": line})
}

// List returns the caller's pending cart lines.
func (h *CartHandler) List(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	lines, err := h.cart.ListCart(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"cart": lines})
}
