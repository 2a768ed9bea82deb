package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// CartService mutates a user's pending cart.
type CartService struct {
	carts  ports.CartRepository
	items  ports.ItemRepository
	logger zerolog.Logger
}

func NewCartService(carts ports.CartRepository, items ports.ItemRepository, logger zerolog.Logger) *CartService {
	return &CartService{carts: carts, items: items, logger: logger}
}

// AddToCart puts one unit of itemID into the actor's cart. A second call
// for the same item increments the existing row instead of creating a
// duplicate; the read-modify-write is a single atomic upsert at the store.
func (s *CartService) AddToCart(ctx context.Context, actor domain.Identity, itemID string) (*domain.CartItem, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	line, err := s.carts.UpsertIncrement(ctx, actor.UserID, itemID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", actor.UserID).
		Str("item_id", itemID).
		Int64("quantity", line.Quantity).
		Msg("cart line upserted")
	return line, nil
}

// RemoveFromCart deletes the whole row regardless of quantity. Only the
// owning user may remove a line.
func (s *CartService) RemoveFromCart(ctx context.Context, actor domain.Identity, cartItemID string) (*domain.CartItem, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	line, err := s.carts.FindByID(ctx, cartItemID)
	if err != nil {
		return nil, err
	}
	if line.UserID != actor.UserID {
		return nil, domain.ErrNotCartOwner
	}

	if err := s.carts.Delete(ctx, cartItemID); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *CartService) ListCart(ctx context.Context, actor domain.Identity) ([]*domain.CartItem, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}
	return s.carts.ListByUser(ctx, actor.UserID)
}
