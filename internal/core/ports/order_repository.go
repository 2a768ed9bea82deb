package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// OrderRepository is the persistence boundary for finalized orders.
type OrderRepository interface {
	// CreateFromCart persists the order and deletes the consumed cart rows
	// in one transaction. When any of cartItemIDs no longer exists (a
	// concurrent finalization or removal got there first) the whole
	// transaction aborts with domain.ErrCartChanged and no order is
	// written.
	CreateFromCart(ctx context.Context, order *domain.Order, cartItemIDs []string) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}
