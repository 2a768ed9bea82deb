package domain

import "time"

// CartItem is one pending line in a user's cart. The (UserID, ItemID) pair
// is unique: adding the same item again increments Quantity instead of
// creating a second row.
type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
