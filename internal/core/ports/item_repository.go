package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// ItemRepository is the persistence boundary for catalog items.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	// FindByIDs returns the items whose ids appear in ids; missing ids are
	// simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Item, error)
	Delete(ctx context.Context, id string) error
}
