package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// CartRepository is the persistence boundary for pending cart lines.
type CartRepository interface {
	// UpsertIncrement adds one unit of itemID to userID's cart as a single
	// atomic operation: an existing (user, item) row has its quantity
	// incremented by 1, otherwise a fresh row with quantity 1 is created.
	// Concurrent calls for the same pair serialize at the store, never
	// producing duplicate rows or lost increments.
	UpsertIncrement(ctx context.Context, userID, itemID string) (*domain.CartItem, error)
	FindByID(ctx context.Context, id string) (*domain.CartItem, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.CartItem, error)
	Delete(ctx context.Context, id string) error
}
