package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// CreateItemInput carries the fields for a new catalog item. Price is in
// minor currency units.
type CreateItemInput struct {
	Title       string
	Description string
	Price       int64
	Image       string
	LargeImage  string
}

// ItemService manages the minimal catalog surface the cart depends on.
type ItemService interface {
	CreateItem(ctx context.Context, actor domain.Identity, input CreateItemInput) (*domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	// DeleteItem removes an item when the actor owns it or holds
	// ADMIN/ITEMDELETE.
	DeleteItem(ctx context.Context, actor domain.Identity, id string) (*domain.Item, error)
}
