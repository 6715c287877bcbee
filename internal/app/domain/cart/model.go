// Package cart defines the per-user staging area for pets pending purchase.
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds the pets a user intends to buy. A user has at most one cart;
// checkout deletes it.
type Cart struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item references a pet along with the price captured when it was added.
// A pet appears at most once per cart.
type Item struct {
	ID        int64           `json:"id"`
	CartID    int64           `json:"cart_id"`
	PetID     int64           `json:"pet_id"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// Total sums the item price snapshots.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price)
	}
	return total
}

// Contains reports whether the cart already holds the pet.
func (c Cart) Contains(petID int64) bool {
	for _, item := range c.Items {
		if item.PetID == petID {
			return true
		}
	}
	return false
}
