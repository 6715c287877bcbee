// Package order defines orders, payments and deliveries.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusApproved  Status = "APPROVED"
	StatusCancelled Status = "CANCELLED"
	StatusDelivered Status = "DELIVERED"
)

// PaymentType selects the payment strategy used to settle an order.
type PaymentType string

const (
	PaymentCreditCard PaymentType = "CREDIT_CARD"
	PaymentDebitCard  PaymentType = "DEBIT_CARD"
	PaymentPayPal     PaymentType = "PAYPAL"
	PaymentEWallet    PaymentType = "E_WALLET"
)

// WalletType selects the e-wallet provider for E_WALLET payments.
type WalletType string

const (
	WalletGrabPay  WalletType = "GRABPAY"
	WalletBoostPay WalletType = "BOOSTPAY"
	WalletTouchNGo WalletType = "TOUCHNGO"
)

// PaymentStatus records the outcome of a payment attempt.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// DeliveryStatus is the shipment state of a paid order.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryShipped   DeliveryStatus = "SHIPPED"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
)

// rank orders delivery statuses for forward-only transition checks.
func (s DeliveryStatus) rank() int {
	switch s {
	case DeliveryPending:
		return 0
	case DeliveryShipped:
		return 1
	case DeliveryDelivered:
		return 2
	}
	return -1
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool { return s.rank() >= 0 }

// CanTransitionTo reports whether moving from s to next advances the
// shipment. Regressions and re-entry are rejected.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	return next.Valid() && next.rank() > s.rank()
}

// Order is the immutable record of a completed checkout. The discount
// fields are a frozen snapshot taken at checkout time; later edits to the
// discount do not affect historical orders.
type Order struct {
	ID                 int64           `json:"id"`
	OrderNumber        string          `json:"order_number"`
	UserID             int64           `json:"user_id"`
	Status             Status          `json:"status"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	DiscountCode       string          `json:"discount_code,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	ShippingAddressID  int64           `json:"shipping_address_id,omitempty"`
	BillingAddressID   int64           `json:"billing_address_id,omitempty"`
	Items              []Item          `json:"items,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Item snapshots one cart line at checkout time.
type Item struct {
	ID      int64           `json:"id"`
	OrderID int64           `json:"order_id"`
	PetID   int64           `json:"pet_id"`
	Price   decimal.Decimal `json:"price"`
}

// Payment settles an order. At most one payment exists per order.
type Payment struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      PaymentStatus   `json:"status"`
	PaymentType PaymentType     `json:"payment_type"`
	Note        string          `json:"note,omitempty"`
	PaidAt      time.Time       `json:"paid_at"`
}

// Delivery tracks the shipment of a paid order. The recipient fields are
// copied from the shipping address when the payment is committed.
type Delivery struct {
	ID          int64          `json:"id"`
	OrderID     int64          `json:"order_id"`
	Name        string         `json:"name"`
	Phone       string         `json:"phone"`
	Address     string         `json:"address"`
	Status      DeliveryStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ShippedAt   *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}
