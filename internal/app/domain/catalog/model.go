// Package catalog defines pets and their categories.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// PetStatus tracks a pet's availability for purchase.
type PetStatus string

const (
	StatusAvailable PetStatus = "AVAILABLE"
	StatusPending   PetStatus = "PENDING"
	StatusSold      PetStatus = "SOLD"
)

// Valid reports whether s is a known status.
func (s PetStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusSold:
		return true
	}
	return false
}

// Category groups pets. Names are unique case-insensitively.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pet is a catalog entry. OwnerID is zero while the pet is store inventory
// and set to the buyer on purchase.
type Pet struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	CategoryID     int64           `json:"category_id"`
	Price          decimal.Decimal `json:"price"`
	Status         PetStatus       `json:"status"`
	OwnerID        int64           `json:"owner_id,omitempty"`
	PhotoURLs      []string        `json:"photo_urls,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	CreatedBy      int64           `json:"created_by,omitempty"`
	LastModifiedBy int64           `json:"last_modified_by,omitempty"`
}

// Filter narrows a pet search. Zero values match everything.
type Filter struct {
	Name       string
	CategoryID int64
	Status     PetStatus
	OwnerID    int64
}

// Page is a paginated pet listing.
type Page struct {
	Items      []Pet `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}
