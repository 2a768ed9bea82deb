package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/core/ports"
)

type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create finalizes the caller's cart into an immutable order.
//
// @Summary      Create an order from the current cart
// @Tags         orders
// @Produce      json
// @Success      201  {object}  map[string]any
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	order, err := h.orders.CreateOrder(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	metrics.OrdersCreatedTotal.Inc()
	metrics.OrderTotalCents.Observe(float64(order.Total))
	return c.JSON(http.StatusCreated, map[string]any{"order": order})
}

// Get returns a single order; owner or admin only.
func (h *OrderHandler) Get(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrder(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"order": order})
}

// List returns the caller's order history, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	orders, err := h.orders.ListOrders(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": orders})
}
