package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/commerce-api/internal/core/domain"
)

const collectionOrders = "orders"

type OrderRepository struct {
	client *mongo.Client
	orders *mongo.Collection
	cart   *mongo.Collection
}

func NewOrderRepository(client *mongo.Client, db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		client: client,
		orders: db.Collection(collectionOrders),
		cart:   db.Collection(collectionCartItems),
	}
}

type orderItemDoc struct {
	ItemID   string `bson:"item_id"`
	Title    string `bson:"title"`
	Price    int64  `bson:"price"`
	Image    string `bson:"image,omitempty"`
	Quantity int64  `bson:"quantity"`
}

type orderDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Total     int64              `bson:"total"`
	Items     []orderItemDoc     `bson:"items"`
	CreatedAt int64              `bson:"created_at"`
}

func (d *orderDoc) toDomain() *domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.OrderItem{
			ItemID:   it.ItemID,
			Title:    it.Title,
			Price:    it.Price,
			Image:    it.Image,
			Quantity: it.Quantity,
		})
	}
	return &domain.Order{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Total:     d.Total,
		Items:     items,
		CreatedAt: unixToTime(d.CreatedAt),
	}
}

// CreateFromCart writes the order and clears the consumed cart rows inside
// one session transaction. The delete is conditioned on every row still
// existing; a shortfall means a concurrent finalization (or removal) got
// there first, so the transaction aborts with domain.ErrCartChanged and
// nothing is persisted.
func (r *OrderRepository) CreateFromCart(ctx context.Context, order *domain.Order, cartItemIDs []string) (*domain.Order, error) {
	items := make([]orderItemDoc, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItemDoc{
			ItemID:   it.ItemID,
			Title:    it.Title,
			Price:    it.Price,
			Image:    it.Image,
			Quantity: it.Quantity,
		})
	}
	doc := orderDoc{
		UserID:    order.UserID,
		Total:     order.Total,
		Items:     items,
		CreatedAt: order.CreatedAt.Unix(),
	}

	cartOIDs := make([]primitive.ObjectID, 0, len(cartItemIDs))
	for _, id := range cartItemIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, domain.ErrCartChanged
		}
		cartOIDs = append(cartOIDs, oid)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.orders.InsertOne(sc, doc)
		if err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}

		if len(cartOIDs) > 0 {
			del, err := r.cart.DeleteMany(sc, bson.M{
				"_id":     bson.M{"$in": cartOIDs},
				"user_id": order.UserID,
			})
			if err != nil {
				return nil, fmt.Errorf("clear cart: %w", err)
			}
			if del.DeletedCount != int64(len(cartOIDs)) {
				return nil, domain.ErrCartChanged
			}
		}

		return res.InsertedID.(primitive.ObjectID), nil
	})
	if err != nil {
		return nil, err
	}

	created := *order
	created.ID = result.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc orderDoc
	if err := r.orders.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.orders.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []*domain.Order
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, doc.toDomain())
	}
	return orders, cur.Err()
}
