package domain

import "time"

// OrderItem is an immutable snapshot of a catalog item at purchase time.
// It copies title, price and image so later catalog edits never alter a
// historical order.
type OrderItem struct {
	ItemID   string `json:"item_id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Image    string `json:"image,omitempty"`
	Quantity int64  `json:"quantity"`
}

// LineTotal returns price times quantity in minor units.
func (oi OrderItem) LineTotal() int64 {
	return oi.Price * oi.Quantity
}

// Order is the finalized, never-mutated result of checking out a cart.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Total     int64       `json:"total"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}
