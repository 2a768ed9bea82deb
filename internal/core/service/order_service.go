package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// OrderService finalizes carts into immutable orders.
type OrderService struct {
	orders   ports.OrderRepository
	carts    ports.CartRepository
	items    ports.ItemRepository
	users    ports.UserRepository
	notifier ports.Notifier
	logger   zerolog.Logger
}

func NewOrderService(orders ports.OrderRepository, carts ports.CartRepository, items ports.ItemRepository, users ports.UserRepository, notifier ports.Notifier, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		items:    items,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateOrder snapshots the actor's cart into an order. Line items copy
// title, price and image as of now, so later catalog edits never touch the
// order. The order insert and the cart clear commit in one transaction; a
// concurrent finalization of the same cart loses with ErrCartChanged. An
// empty cart still produces a total-0 order with no lines.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Identity) (*domain.Order, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	lines, err := s.carts.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		itemIDs = append(itemIDs, l.ItemID)
	}
	catalog, err := s.items.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Item, len(catalog))
	for _, it := range catalog {
		byID[it.ID] = it
	}

	var total int64
	orderItems := make([]domain.OrderItem, 0, len(lines))
	cartItemIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		it, ok := byID[l.ItemID]
		if !ok {
			return nil, fmt.Errorf("cart references missing item %s: %w", l.ItemID, domain.ErrItemNotFound)
		}
		oi := domain.OrderItem{
			ItemID:   it.ID,
			Title:    it.Title,
			Price:    it.Price,
			Image:    it.Image,
			Quantity: l.Quantity,
		}
		total += oi.LineTotal()
		orderItems = append(orderItems, oi)
		cartItemIDs = append(cartItemIDs, l.ID)
	}

	order := &domain.Order{
		UserID:    actor.UserID,
		Total:     total,
		Items:     orderItems,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.orders.CreateFromCart(ctx, order, cartItemIDs)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", created.ID).
		Str("user_id", actor.UserID).
		Int64("total", created.Total).
		Int("line_count", len(created.Items)).
		Msg("order created")

	s.sendConfirmation(ctx, created)
	return created, nil
}

// sendConfirmation enqueues the order-confirmation mail. Delivery is best
// effort and never fails the order.
func (s *OrderService) sendConfirmation(ctx context.Context, order *domain.Order) {
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("skipping confirmation mail, user lookup failed")
		return
	}
	body := niceEmail(fmt.Sprintf("Thanks for your order! We charged a total of %d for %d item(s).", order.Total, len(order.Items)))
	s.notifier.Dispatch(ports.Notification{
		To:       user.Email,
		Subject:  "Your order confirmation",
		HTMLBody: body,
	})
}

// GetOrder returns the order when the actor owns it or holds ADMIN.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Identity, orderID string) (*domain.Order, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != actor.UserID {
		user, err := s.users.FindByID(ctx, actor.UserID)
		if err != nil {
			return nil, domain.ErrNotSignedIn
		}
		if !user.HasAnyPermission(domain.PermissionAdmin) {
			return nil, domain.ErrNotOrderOwner
		}
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, actor domain.Identity) ([]*domain.Order, error) {
	if !actor.SignedIn() {
		return nil, domain.ErrNotSignedIn
	}
	return s.orders.ListByUser(ctx, actor.UserID)
}
