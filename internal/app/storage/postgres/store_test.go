package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/pawmart/petstore/internal/app/domain/audit"
	"github.com/pawmart/petstore/internal/app/domain/cart"
	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/database"
)

func integrationDB(t *testing.T) *sql.DB {
	t.Helper()
	_ = godotenv.Load() // allow .env for local runs
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Integration test against a real Postgres. Runs migrations and walks the
// full purchase path through the transactional store operations.
func TestStoreIntegration(t *testing.T) {
	db := integrationDB(t)
	store := New(db)
	ctx := context.Background()
	tick := time.Now().UnixNano()

	buyer, err := store.CreateUser(ctx, user.User{
		Email:        fmt.Sprintf("it-%d@example.com", tick),
		PasswordHash: "x",
		Roles:        []user.Role{user.RoleUser},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	addr, err := store.CreateAddress(ctx, user.Address{
		UserID: buyer.ID, FullName: "IT Buyer", PhoneNumber: "555-0100",
		Street: "1 Main St", City: "Springfield", State: "IL",
		PostalCode: "62701", Country: "US", Default: true,
	})
	if err != nil {
		t.Fatalf("create address: %v", err)
	}

	category, err := store.CreateCategory(ctx, catalog.Category{Name: fmt.Sprintf("it-cat-%d", tick)})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	pet, err := store.CreatePet(ctx, catalog.Pet{
		Name: "it-pet", CategoryID: category.ID,
		Price: decimal.RequireFromString("40.00"), Status: catalog.StatusAvailable,
	})
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}

	c, err := store.CreateCart(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := store.AddCartItem(ctx, cart.Item{CartID: c.ID, PetID: pet.ID, Price: pet.Price}); err != nil {
		t.Fatalf("add cart item: %v", err)
	}

	placed, err := store.PlaceOrder(ctx, order.Order{
		OrderNumber: fmt.Sprintf("ORD-IT-%d", tick),
		UserID:      buyer.ID,
		Status:      order.StatusPlaced,
		TotalAmount: pet.Price,
		Items:       []order.Item{{PetID: pet.ID, Price: pet.Price}},
	}, c.ID, audit.Entry{
		EntityType: "ORDER", ActorID: buyer.ID, Action: audit.ActionCreateOrder,
		NewValue: string(order.StatusPlaced),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if placed.ID == 0 || len(placed.Items) != 1 {
		t.Fatalf("unexpected placed order: %+v", placed)
	}

	// The cart is consumed by the order.
	if _, err := store.GetCartByUser(ctx, buyer.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected cart gone, got %v", err)
	}

	pet.Status = catalog.StatusSold
	pet.OwnerID = buyer.ID
	payment, err := store.CommitPayment(ctx, storage.PaymentCommit{
		Payment: order.Payment{
			OrderID: placed.ID, Amount: placed.TotalAmount,
			Status: order.PaymentSuccess, PaymentType: order.PaymentEWallet,
			Note: "GRABPAY - it-wallet", PaidAt: time.Now().UTC(),
		},
		OrderID:           placed.ID,
		OrderStatus:       order.StatusApproved,
		ShippingAddressID: addr.ID,
		BillingAddressID:  addr.ID,
		Pets:              []catalog.Pet{pet},
		Delivery: order.Delivery{
			OrderID: placed.ID, Name: addr.FullName, Phone: addr.PhoneNumber,
			Address: addr.FullAddress(), Status: order.DeliveryPending,
		},
		Audits: []audit.Entry{{
			EntityType: "ORDER", EntityID: placed.ID, ActorID: buyer.ID,
			Action:   audit.ActionCheckoutOrder,
			OldValue: string(order.StatusPlaced), NewValue: string(order.StatusApproved),
		}},
	})
	if err != nil {
		t.Fatalf("commit payment: %v", err)
	}
	if payment.Status != order.PaymentSuccess {
		t.Fatalf("payment status = %s", payment.Status)
	}

	got, err := store.GetOrderForUser(ctx, placed.ID, buyer.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != order.StatusApproved || got.ShippingAddressID != addr.ID {
		t.Fatalf("unexpected order after payment: %+v", got)
	}

	soldPet, err := store.GetPet(ctx, pet.ID)
	if err != nil {
		t.Fatalf("get pet: %v", err)
	}
	if soldPet.Status != catalog.StatusSold || soldPet.OwnerID != buyer.ID {
		t.Fatalf("pet not sold to buyer: %+v", soldPet)
	}

	inUse, err := store.AddressInUse(ctx, addr.ID)
	if err != nil || !inUse {
		t.Fatalf("address in use = %v, %v", inUse, err)
	}

	d, err := store.GetDeliveryByOrder(ctx, placed.ID)
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	if d.Status != order.DeliveryPending {
		t.Fatalf("delivery status = %s", d.Status)
	}

	now := time.Now().UTC()
	d.Status = order.DeliveryShipped
	d.ShippedAt = &now
	if _, err := store.AdvanceDelivery(ctx, d, nil, audit.Entry{
		EntityType: "DELIVERY", EntityID: placed.ID, ActorID: buyer.ID,
		Action:   audit.ActionUpdateDeliveryStatus,
		OldValue: string(order.DeliveryPending), NewValue: string(order.DeliveryShipped),
	}); err != nil {
		t.Fatalf("advance delivery: %v", err)
	}

	trail, err := store.ListAuditByEntity(ctx, "ORDER", placed.ID)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(trail) < 2 {
		t.Fatalf("expected audit trail, got %d entries", len(trail))
	}
}

// A pet that is no longer AVAILABLE must abort PlaceOrder and roll the
// transaction back, keeping the cart intact.
func TestPlaceOrderUnavailablePet(t *testing.T) {
	db := integrationDB(t)
	store := New(db)
	ctx := context.Background()
	tick := time.Now().UnixNano()

	buyer, err := store.CreateUser(ctx, user.User{
		Email:        fmt.Sprintf("it2-%d@example.com", tick),
		PasswordHash: "x",
		Roles:        []user.Role{user.RoleUser},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	category, err := store.CreateCategory(ctx, catalog.Category{Name: fmt.Sprintf("it2-cat-%d", tick)})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	pet, err := store.CreatePet(ctx, catalog.Pet{
		Name: "it-sold", CategoryID: category.ID,
		Price: decimal.RequireFromString("10.00"), Status: catalog.StatusSold,
	})
	if err != nil {
		t.Fatalf("create pet: %v", err)
	}
	c, err := store.CreateCart(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := store.AddCartItem(ctx, cart.Item{CartID: c.ID, PetID: pet.ID, Price: pet.Price}); err != nil {
		t.Fatalf("add cart item: %v", err)
	}

	_, err = store.PlaceOrder(ctx, order.Order{
		OrderNumber: fmt.Sprintf("ORD-IT2-%d", tick),
		UserID:      buyer.ID,
		Status:      order.StatusPlaced,
		TotalAmount: pet.Price,
		Items:       []order.Item{{PetID: pet.ID, Price: pet.Price}},
	}, c.ID, audit.Entry{EntityType: "ORDER", ActorID: buyer.ID, Action: audit.ActionCreateOrder})
	if !errors.Is(err, storage.ErrPetUnavailable) {
		t.Fatalf("expected ErrPetUnavailable, got %v", err)
	}

	kept, err := store.GetCartByUser(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(kept.Items) != 1 {
		t.Fatalf("cart should survive the failed order, has %d items", len(kept.Items))
	}
}
