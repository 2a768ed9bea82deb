package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// OrderService finalizes carts into immutable orders.
type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Identity) (*domain.Order, error)
	// GetOrder returns the order when the actor owns it or holds ADMIN.
	GetOrder(ctx context.Context, actor domain.Identity, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Identity) ([]*domain.Order, error)
}
