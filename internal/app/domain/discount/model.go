// Package discount defines time-bounded percentage price reductions.
package discount

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount is a percentage price reduction identified by a unique code and
// bounded by a validity window.
type Discount struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Percentage  decimal.Decimal `json:"percentage"`
	ValidFrom   time.Time       `json:"valid_from"`
	ValidTo     time.Time       `json:"valid_to"`
	Description string          `json:"description,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WithinWindow reports whether now falls inside [ValidFrom, ValidTo]. Zero
// bounds are open-ended.
func (d Discount) WithinWindow(now time.Time) bool {
	if !d.ValidFrom.IsZero() && now.Before(d.ValidFrom) {
		return false
	}
	if !d.ValidTo.IsZero() && now.After(d.ValidTo) {
		return false
	}
	return true
}

// AmountOff computes the reduction the discount applies to total.
func (d Discount) AmountOff(total decimal.Decimal) decimal.Decimal {
	return total.Mul(d.Percentage).Div(decimal.NewFromInt(100))
}
