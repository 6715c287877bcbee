// Package storage declares the persistence interfaces the services depend
// on. Implementations live in storage/memory and storage/postgres.
package storage

import (
	"context"
	"errors"

	"github.com/pawmart/petstore/internal/app/domain/audit"
	"github.com/pawmart/petstore/internal/app/domain/cart"
	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/domain/discount"
	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/app/domain/user"
)

// Sentinel errors shared by all store implementations. Services translate
// these into client-facing errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("record already exists")
	ErrPetUnavailable = errors.New("pet is not available")
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AddressStore persists postal addresses.
type AddressStore interface {
	CreateAddress(ctx context.Context, a user.Address) (user.Address, error)
	UpdateAddress(ctx context.Context, a user.Address) (user.Address, error)
	GetAddress(ctx context.Context, id int64) (user.Address, error)
	ListAddresses(ctx context.Context, userID int64) ([]user.Address, error)
	DeleteAddress(ctx context.Context, id int64) error
}

// CategoryStore persists pet categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error)
	UpdateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error)
	GetCategory(ctx context.Context, id int64) (catalog.Category, error)
	GetCategoryByName(ctx context.Context, name string) (catalog.Category, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// PetStore persists catalog pets.
type PetStore interface {
	CreatePet(ctx context.Context, p catalog.Pet) (catalog.Pet, error)
	UpdatePet(ctx context.Context, p catalog.Pet) (catalog.Pet, error)
	GetPet(ctx context.Context, id int64) (catalog.Pet, error)
	SearchPets(ctx context.Context, f catalog.Filter, page, size int) (catalog.Page, error)
	ListLatestAvailable(ctx context.Context, limit int) ([]catalog.Pet, error)
	DeletePet(ctx context.Context, id int64) error

	CountPetsByCategory(ctx context.Context, categoryID int64) (int, error)
	CountPetsByOwner(ctx context.Context, ownerID int64) (int, error)
	CountPetsCreatedBy(ctx context.Context, userID int64) (int, error)
}

// CartStore persists per-user carts.
type CartStore interface {
	GetCartByUser(ctx context.Context, userID int64) (cart.Cart, error)
	CreateCart(ctx context.Context, userID int64) (cart.Cart, error)
	AddCartItem(ctx context.Context, item cart.Item) (cart.Item, error)
	DeleteCartItem(ctx context.Context, itemID int64) error
}

// DiscountStore persists discount codes.
type DiscountStore interface {
	CreateDiscount(ctx context.Context, d discount.Discount) (discount.Discount, error)
	UpdateDiscount(ctx context.Context, d discount.Discount) (discount.Discount, error)
	GetDiscount(ctx context.Context, id int64) (discount.Discount, error)
	GetDiscountByCode(ctx context.Context, code string) (discount.Discount, error)
	ListDiscounts(ctx context.Context) ([]discount.Discount, error)
	DeleteDiscount(ctx context.Context, id int64) error
}

// PaymentCommit is the atomic mutation batch a successful payment applies:
// the payment row, the order transition with resolved addresses, the pet
// ownership flips, the pending delivery and the audit trail. Stores apply
// it all-or-nothing.
type PaymentCommit struct {
	Payment           order.Payment
	OrderID           int64
	OrderStatus       order.Status
	ShippingAddressID int64
	BillingAddressID  int64
	Pets              []catalog.Pet
	Delivery          order.Delivery
	Audits            []audit.Entry
}

// OrderStore persists orders and payments.
type OrderStore interface {
	// PlaceOrder atomically inserts the order with its items, verifies every
	// ordered pet is still AVAILABLE, deletes the source cart and appends the
	// audit entry. It returns ErrPetUnavailable when a pet was sold between
	// cart load and commit.
	PlaceOrder(ctx context.Context, ord order.Order, cartID int64, entry audit.Entry) (order.Order, error)

	// CommitPayment atomically applies a successful payment.
	CommitPayment(ctx context.Context, commit PaymentCommit) (order.Payment, error)

	GetOrder(ctx context.Context, id int64) (order.Order, error)
	GetOrderForUser(ctx context.Context, id, userID int64) (order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]order.Order, error)

	// SetOrderStatus atomically updates the order status and appends the
	// audit entry.
	SetOrderStatus(ctx context.Context, id int64, status order.Status, entry audit.Entry) error

	GetPaymentByOrder(ctx context.Context, orderID int64) (order.Payment, error)
	AddressInUse(ctx context.Context, addressID int64) (bool, error)
}

// DeliveryStore persists shipment records.
type DeliveryStore interface {
	GetDeliveryByOrder(ctx context.Context, orderID int64) (order.Delivery, error)

	// AdvanceDelivery atomically saves the delivery, optionally transitions
	// the parent order and appends the audit entry.
	AdvanceDelivery(ctx context.Context, d order.Delivery, orderStatus *order.Status, entry audit.Entry) (order.Delivery, error)
}

// AuditStore persists the append-only audit trail.
type AuditStore interface {
	AppendAudit(ctx context.Context, e audit.Entry) (audit.Entry, error)
	ListAuditByEntity(ctx context.Context, entityType string, entityID int64) ([]audit.Entry, error)
}
