package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// ItemService covers the minimal catalog surface the cart depends on.
type ItemService struct {
	items  ports.ItemRepository
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewItemService(items ports.ItemRepository, users ports.UserRepository, logger zerolog.Logger) *ItemService {
	return &ItemService{items: items, users: users, logger: logger}
}

func (s *ItemService) CreateItem(ctx context.Context, actor domain.Identity, input ports.CreateItemInput) (*domain.Item, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	now := time.Now().UTC()
	item := &domain.Item{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Image:       input.Image,
		LargeImage:  input.LargeImage,
		UserID:      actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.items.Create(ctx, item)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("item_id", created.ID).Str("user_id", actor.UserID).Msg("item created")
	return created, nil
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return s.items.FindByID(ctx, id)
}

// DeleteItem removes a catalog item. The actor must own it or hold
// ADMIN/ITEMDELETE.
func (s *ItemService) DeleteItem(ctx context.Context, actor domain.Identity, id string) (*domain.Item, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if item.UserID != actor.UserID {
		user, err := s.users.FindByID(ctx, actor.UserID)
		if err != nil {
			return nil, domain.ErrNotSignedIn
		}
		if !user.HasAnyPermission(domain.PermissionAdmin, domain.PermissionItemDelete) {
			return nil, domain.ErrPermissionDenied
		}
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info().Str("item_id", id).Str("user_id", actor.UserID).Msg("item deleted")
	return item, nil
}
