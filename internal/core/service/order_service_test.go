package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub order repository and notifier
// ---------------------------------------------------------------------------

// stubOrderRepo deletes cart rows from the shared stubCartRepo the way the
// Mongo transaction does: all-or-nothing, aborting when any row is gone.
type stubOrderRepo struct {
	carts  *stubCartRepo
	orders map[string]*domain.Order
	seq    int
}

func newStubOrderRepo(carts *stubCartRepo) *stubOrderRepo {
	return &stubOrderRepo{carts: carts, orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) CreateFromCart(_ context.Context, order *domain.Order, cartItemIDs []string) (*domain.Order, error) {
	for _, id := range cartItemIDs {
		if _, ok := r.carts.lines[id]; !ok {
			return nil, domain.ErrCartChanged
		}
	}
	for _, id := range cartItemIDs {
		delete(r.carts.lines, id)
	}

	r.seq++
	clone := *order
	clone.ID = fmt.Sprintf("order_%d", r.seq)
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubNotifier struct {
	dispatched []ports.Notification
}

func (n *stubNotifier) Dispatch(notification ports.Notification) {
	n.dispatched = append(n.dispatched, notification)
}

type orderFixture struct {
	svc      *OrderService
	users    *stubUserRepo
	items    *stubItemRepo
	carts    *stubCartRepo
	orders   *stubOrderRepo
	notifier *stubNotifier
	actor    domain.Identity
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	users := newStubUserRepo()
	items := newStubItemRepo()
	carts := newStubCartRepo()
	orders := newStubOrderRepo(carts)
	notifier := &stubNotifier{}

	buyer, err := users.Create(context.Background(), &domain.User{
		Email:       "buyer@example.com",
		Permissions: []domain.Permission{domain.PermissionUser},
	})
	if err != nil {
		t.Fatalf("create buyer: %v", err)
	}

	return &orderFixture{
		svc:      NewOrderService(orders, carts, items, users, notifier, zerolog.Nop()),
		users:    users,
		items:    items,
		carts:    carts,
		orders:   orders,
		notifier: notifier,
		actor:    domain.Identity{UserID: buyer.ID},
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	hat := f.items.add("Hat", 500)
	shirt := f.items.add("Shirt", 300)

	_, _ = f.carts.UpsertIncrement(ctx, f.actor.UserID, hat.ID)
	_, _ = f.carts.UpsertIncrement(ctx, f.actor.UserID, hat.ID) // quantity 2
	_, _ = f.carts.UpsertIncrement(ctx, f.actor.UserID, shirt.ID)

	order, err := f.svc.CreateOrder(ctx, f.actor)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if order.Total != 1300 {
		t.Fatalf("expected total 1300, got %d", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Items))
	}
	if remaining, _ := f.carts.ListByUser(ctx, f.actor.UserID); len(remaining) != 0 {
		t.Fatalf("expected empty cart after order, got %d rows", len(remaining))
	}

	// Line items snapshot the catalog fields.
	for _, li := range order.Items {
		if li.ItemID == hat.ID {
			if li.Title != "Hat" || li.Price != 500 || li.Quantity != 2 || li.Image != "Hat.jpg" {
				t.Fatalf("bad hat snapshot: %+v", li)
			}
		}
	}

	if len(f.notifier.dispatched) != 1 || f.notifier.dispatched[0].To != "buyer@example.com" {
		t.Fatalf("expected 1 confirmation mail to buyer, got %+v", f.notifier.dispatched)
	}
}

func TestOrderService_CreateOrder_SnapshotSurvivesCatalogEdit(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	hat := f.items.add("Hat", 500)
	_, _ = f.carts.UpsertIncrement(ctx, f.actor.UserID, hat.ID)

	order, err := f.svc.CreateOrder(ctx, f.actor)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// A later price change must not touch the historical order.
	f.items.items[hat.ID].Price = 9999

	fetched, err := f.svc.GetOrder(ctx, f.actor, order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if fetched.Items[0].Price != 500 || fetched.Total != 500 {
		t.Fatalf("order snapshot mutated: %+v", fetched)
	}
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.actor)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Total != 0 || len(order.Items) != 0 {
		t.Fatalf("expected empty order, got %+v", order)
	}
}

func TestOrderService_CreateOrder_ConcurrentFinalization(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	hat := f.items.add("Hat", 500)
	line, _ := f.carts.UpsertIncrement(ctx, f.actor.UserID, hat.ID)

	// First finalization wins and clears the cart.
	if _, err := f.svc.CreateOrder(ctx, f.actor); err != nil {
		t.Fatalf("first order failed: %v", err)
	}

	// A racing finalization that snapshot the same cart rows loses: the
	// rows are gone, so the conditional delete aborts the transaction.
	stale := &domain.Order{UserID: f.actor.UserID, Total: 500}
	if _, err := f.orders.CreateFromCart(ctx, stale, []string{line.ID}); !errors.Is(err, domain.ErrCartChanged) {
		t.Fatalf("expected ErrCartChanged, got %v", err)
	}
	if len(f.orders.orders) != 1 {
		t.Fatalf("expected exactly 1 order, got %d", len(f.orders.orders))
	}
}

func TestOrderService_CreateOrder_NotSignedIn(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), domain.Identity{})
	if !errors.Is(err, domain.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestOrderService_GetOrder_Ownership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	hat := f.items.add("Hat", 500)
	_, _ = f.carts.UpsertIncrement(ctx, f.actor.UserID, hat.ID)
	order, _ := f.svc.CreateOrder(ctx, f.actor)

	stranger, _ := f.users.Create(ctx, &domain.User{
		Email:       "stranger@example.com",
		Permissions: []domain.Permission{domain.PermissionUser},
	})
	if _, err := f.svc.GetOrder(ctx, domain.Identity{UserID: stranger.ID}, order.ID); !errors.Is(err, domain.ErrNotOrderOwner) {
		t.Fatalf("expected ErrNotOrderOwner, got %v", err)
	}

	admin, _ := f.users.Create(ctx, &domain.User{
		Email:       "admin@example.com",
		Permissions: []domain.Permission{domain.PermissionAdmin},
	})
	if _, err := f.svc.GetOrder(ctx, domain.Identity{UserID: admin.ID}, order.ID); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
}
