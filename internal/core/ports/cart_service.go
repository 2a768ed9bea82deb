package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// CartService mutates a user's pending cart.
type CartService interface {
	AddToCart(ctx context.Context, actor domain.Identity, itemID string) (*domain.CartItem, error)
	// RemoveFromCart deletes the whole row regardless of quantity and
	// returns the deleted line.
	RemoveFromCart(ctx context.Context, actor domain.Identity, cartItemID string) (*domain.CartItem, error)
	ListCart(ctx context.Context, actor domain.Identity) ([]*domain.CartItem, error)
}
