package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawmart/petstore/internal/app/domain/cart"
	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/domain/discount"
	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/services/discounts"
	"github.com/pawmart/petstore/internal/app/services/payments"
	"github.com/pawmart/petstore/internal/app/storage/memory"
	"github.com/pawmart/petstore/internal/errors"
)

type env struct {
	store *memory.Store
	svc   *Service
	buyer user.User
	pets  []catalog.Pet
	addr  user.Address
}

// newEnv seeds a buyer with an address and a cart holding two pets priced
// 100.00 and 50.00, plus an active 10% discount code SAVE10.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	buyer, err := store.CreateUser(ctx, user.User{Email: "buyer@example.com", PasswordHash: "x", Roles: []user.Role{user.RoleUser}})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	addr, err := store.CreateAddress(ctx, user.Address{
		UserID: buyer.ID, FullName: "Buyer One", PhoneNumber: "555-0100",
		Street: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US",
	})
	if err != nil {
		t.Fatalf("create address: %v", err)
	}

	cat, err := store.CreateCategory(ctx, catalog.Category{Name: "Dogs"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	var pets []catalog.Pet
	for _, price := range []string{"100.00", "50.00"} {
		p, err := store.CreatePet(ctx, catalog.Pet{
			Name: "pet-" + price, CategoryID: cat.ID,
			Price: decimal.RequireFromString(price), Status: catalog.StatusAvailable,
		})
		if err != nil {
			t.Fatalf("create pet: %v", err)
		}
		pets = append(pets, p)
	}

	c, err := store.CreateCart(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	for _, p := range pets {
		if _, err := store.AddCartItem(ctx, cart.Item{CartID: c.ID, PetID: p.ID, Price: p.Price}); err != nil {
			t.Fatalf("add cart item: %v", err)
		}
	}

	if _, err := store.CreateDiscount(ctx, discount.Discount{
		Code: "SAVE10", Percentage: decimal.NewFromInt(10), Active: true,
	}); err != nil {
		t.Fatalf("create discount: %v", err)
	}

	svc := NewService(store, store, store, store, store, store,
		discounts.NewService(store, nil), payments.NewFactory(), nil, nil)

	return &env{store: store, svc: svc, buyer: buyer, pets: pets, addr: addr}
}

func TestCheckoutWithDiscount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "SAVE10")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if got := ord.TotalAmount.StringFixed(2); got != "135.00" {
		t.Fatalf("expected total 135.00, got %s", got)
	}
	if got := ord.DiscountAmount.StringFixed(2); got != "15.00" {
		t.Fatalf("expected discount amount 15.00, got %s", got)
	}
	if ord.DiscountCode != "SAVE10" {
		t.Fatalf("discount code not frozen: %q", ord.DiscountCode)
	}
	if ord.Status != order.StatusPlaced {
		t.Fatalf("expected PLACED, got %s", ord.Status)
	}
	if len(ord.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(ord.Items))
	}
	if ord.OrderNumber == "" {
		t.Fatalf("expected a generated order number")
	}

	// The cart is deleted, so checkout is single-shot.
	if _, err := e.svc.Checkout(ctx, e.buyer.ID, ""); err == nil {
		t.Fatalf("expected second checkout to fail with an empty cart")
	}
}

func TestCheckoutWithoutDiscount(t *testing.T) {
	e := newEnv(t)

	ord, err := e.svc.Checkout(context.Background(), e.buyer.ID, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if got := ord.TotalAmount.StringFixed(2); got != "150.00" {
		t.Fatalf("expected total 150.00, got %s", got)
	}
	if ord.DiscountCode != "" {
		t.Fatalf("unexpected discount snapshot: %q", ord.DiscountCode)
	}
}

func TestCheckoutRejectsInvalidDiscount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Expired window.
	past := time.Now().Add(-time.Hour)
	if _, err := e.store.CreateDiscount(ctx, discount.Discount{
		Code: "EXPIRED", Percentage: decimal.NewFromInt(20), Active: true,
		ValidFrom: past.Add(-time.Hour), ValidTo: past,
	}); err != nil {
		t.Fatalf("create discount: %v", err)
	}
	// Inactive.
	if _, err := e.store.CreateDiscount(ctx, discount.Discount{
		Code: "DISABLED", Percentage: decimal.NewFromInt(20),
	}); err != nil {
		t.Fatalf("create discount: %v", err)
	}

	for _, code := range []string{"EXPIRED", "DISABLED", "NOSUCH"} {
		if _, err := e.svc.Checkout(ctx, e.buyer.ID, code); err == nil {
			t.Fatalf("expected checkout with code %s to fail", code)
		}
	}

	// No order was created and the cart survived.
	list, err := e.svc.ListByUser(ctx, e.buyer.ID)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no orders, got %d", len(list))
	}
	c, err := e.store.GetCartByUser(ctx, e.buyer.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(c.Items) != 2 {
		t.Fatalf("cart should be untouched, has %d items", len(c.Items))
	}
}

func TestCheckoutRejectsSoldPet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sold := e.pets[0]
	sold.Status = catalog.StatusSold
	if _, err := e.store.UpdatePet(ctx, sold); err != nil {
		t.Fatalf("update pet: %v", err)
	}

	_, err := e.svc.Checkout(ctx, e.buyer.ID, "")
	if err == nil {
		t.Fatalf("expected checkout to fail for a sold pet")
	}
	if !errors.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPaySuccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "SAVE10")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	payment, err := e.svc.Pay(ctx, ord.ID, e.buyer.ID, PaymentInput{
		Request:           payments.Request{PaymentType: order.PaymentEWallet, WalletType: order.WalletGrabPay, WalletID: "wallet-42"},
		ShippingAddressID: e.addr.ID,
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	if payment.Status != order.PaymentSuccess {
		t.Fatalf("expected SUCCESS, got %s", payment.Status)
	}
	if payment.Note != "GRABPAY - wallet-42" {
		t.Fatalf("unexpected note %q", payment.Note)
	}
	if got := payment.Amount.StringFixed(2); got != "135.00" {
		t.Fatalf("expected payment of 135.00, got %s", got)
	}

	// Every ordered pet is SOLD and owned by the buyer.
	for _, p := range e.pets {
		got, err := e.store.GetPet(ctx, p.ID)
		if err != nil {
			t.Fatalf("get pet: %v", err)
		}
		if got.Status != catalog.StatusSold || got.OwnerID != e.buyer.ID {
			t.Fatalf("pet %d not transferred: status=%s owner=%d", p.ID, got.Status, got.OwnerID)
		}
	}

	// Order APPROVED, billing defaulted to shipping.
	paid, err := e.store.GetOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if paid.Status != order.StatusApproved {
		t.Fatalf("expected APPROVED, got %s", paid.Status)
	}
	if paid.ShippingAddressID != e.addr.ID || paid.BillingAddressID != e.addr.ID {
		t.Fatalf("addresses not resolved: shipping=%d billing=%d", paid.ShippingAddressID, paid.BillingAddressID)
	}

	// Exactly one delivery in PENDING carrying the shipping details.
	d, err := e.store.GetDeliveryByOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	if d.Status != order.DeliveryPending {
		t.Fatalf("expected PENDING delivery, got %s", d.Status)
	}
	if d.Name != e.addr.FullName || d.Address == "" {
		t.Fatalf("delivery recipient not copied from shipping address")
	}
}

func TestPayValidatesBeforeMutating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	cases := []PaymentInput{
		{Request: payments.Request{PaymentType: order.PaymentCreditCard}, ShippingAddressID: e.addr.ID},
		{Request: payments.Request{PaymentType: order.PaymentDebitCard}, ShippingAddressID: e.addr.ID},
		{Request: payments.Request{PaymentType: order.PaymentPayPal}, ShippingAddressID: e.addr.ID},
		{Request: payments.Request{PaymentType: order.PaymentEWallet, WalletID: "w"}, ShippingAddressID: e.addr.ID},
		{Request: payments.Request{PaymentType: order.PaymentEWallet, WalletType: order.WalletGrabPay}, ShippingAddressID: e.addr.ID},
		{Request: payments.Request{PaymentType: order.PaymentEWallet, WalletType: "APPLEPAY", WalletID: "w"}, ShippingAddressID: e.addr.ID},
		{Request: payments.Request{PaymentType: "BITCOIN"}, ShippingAddressID: e.addr.ID},
	}

	for _, in := range cases {
		if _, err := e.svc.Pay(ctx, ord.ID, e.buyer.ID, in); err == nil {
			t.Fatalf("expected payment with %+v to fail validation", in.Request)
		}
	}

	// Nothing mutated: pets untouched, order still PLACED, no payment row.
	for _, p := range e.pets {
		got, _ := e.store.GetPet(ctx, p.ID)
		if got.Status != catalog.StatusAvailable || got.OwnerID != 0 {
			t.Fatalf("pet %d mutated by failed validation", p.ID)
		}
	}
	current, _ := e.store.GetOrder(ctx, ord.ID)
	if current.Status != order.StatusPlaced {
		t.Fatalf("order mutated by failed validation: %s", current.Status)
	}
	if _, err := e.store.GetPaymentByOrder(ctx, ord.ID); err == nil {
		t.Fatalf("payment row created despite failed validation")
	}
}

func TestPayRejectsMissingAddress(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	_, err = e.svc.Pay(ctx, ord.ID, e.buyer.ID, PaymentInput{
		Request:           payments.Request{PaymentType: order.PaymentPayPal, PaypalID: "pp-1"},
		ShippingAddressID: 9999,
	})
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	current, _ := e.store.GetOrder(ctx, ord.ID)
	if current.Status != order.StatusPlaced {
		t.Fatalf("order mutated by failed payment: %s", current.Status)
	}
}

func TestPayRejectsDoublePayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	in := PaymentInput{
		Request:           payments.Request{PaymentType: order.PaymentCreditCard, CardNumber: "4111111111111111"},
		ShippingAddressID: e.addr.ID,
	}
	if _, err := e.svc.Pay(ctx, ord.ID, e.buyer.ID, in); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if _, err := e.svc.Pay(ctx, ord.ID, e.buyer.ID, in); err == nil {
		t.Fatalf("expected second payment to be rejected")
	}
}

func TestCancel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if err := e.svc.Cancel(ctx, ord.ID, e.buyer.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	cancelled, _ := e.store.GetOrder(ctx, ord.ID)
	if cancelled.Status != order.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}

	// A cancelled order cannot be paid or re-cancelled.
	if err := e.svc.Cancel(ctx, ord.ID, e.buyer.ID); err == nil {
		t.Fatalf("expected re-cancel to fail")
	}
	_, err = e.svc.Pay(ctx, ord.ID, e.buyer.ID, PaymentInput{
		Request:           payments.Request{PaymentType: order.PaymentPayPal, PaypalID: "pp"},
		ShippingAddressID: e.addr.ID,
	})
	if err == nil {
		t.Fatalf("expected payment of cancelled order to fail")
	}
}

func payOrder(t *testing.T, e *env) order.Order {
	t.Helper()
	ctx := context.Background()
	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	_, err = e.svc.Pay(ctx, ord.ID, e.buyer.ID, PaymentInput{
		Request:           payments.Request{PaymentType: order.PaymentCreditCard, CardNumber: "4111111111111111"},
		ShippingAddressID: e.addr.ID,
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	return ord
}

func TestDeliveryForwardOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ord := payOrder(t, e)

	// PENDING -> SHIPPED stamps shippedAt.
	d, err := e.svc.UpdateDeliveryStatus(ctx, ord.ID, order.DeliveryShipped, time.Time{}, e.buyer.ID)
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if d.ShippedAt == nil {
		t.Fatalf("shippedAt not stamped")
	}

	// Regression and re-entry are rejected.
	if _, err := e.svc.UpdateDeliveryStatus(ctx, ord.ID, order.DeliveryPending, time.Time{}, e.buyer.ID); err == nil {
		t.Fatalf("expected regression to PENDING to fail")
	}
	if _, err := e.svc.UpdateDeliveryStatus(ctx, ord.ID, order.DeliveryShipped, time.Time{}, e.buyer.ID); err == nil {
		t.Fatalf("expected re-entering SHIPPED to fail")
	}

	// SHIPPED -> DELIVERED flips the order.
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	d, err = e.svc.UpdateDeliveryStatus(ctx, ord.ID, order.DeliveryDelivered, at, e.buyer.ID)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if d.DeliveredAt == nil || !d.DeliveredAt.Equal(at) {
		t.Fatalf("deliveredAt override not honoured: %v", d.DeliveredAt)
	}

	final, _ := e.store.GetOrder(ctx, ord.ID)
	if final.Status != order.StatusDelivered {
		t.Fatalf("expected order DELIVERED, got %s", final.Status)
	}

	// Terminal state.
	if _, err := e.svc.UpdateDeliveryStatus(ctx, ord.ID, order.DeliveryDelivered, time.Time{}, e.buyer.ID); err == nil {
		t.Fatalf("expected transition out of DELIVERED to fail")
	}
}

func TestDeliverySkipShippedAllowed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ord := payOrder(t, e)

	d, err := e.svc.UpdateDeliveryStatus(ctx, ord.ID, order.DeliveryDelivered, time.Time{}, e.buyer.ID)
	if err != nil {
		t.Fatalf("deliver directly: %v", err)
	}
	if d.Status != order.DeliveryDelivered {
		t.Fatalf("expected DELIVERED, got %s", d.Status)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ord, err := e.svc.Checkout(ctx, e.buyer.ID, "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	other, err := e.store.CreateUser(ctx, user.User{Email: "other@example.com", PasswordHash: "x", Roles: []user.Role{user.RoleUser}})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := e.svc.Get(ctx, ord.ID, other.ID, []user.Role{user.RoleUser}); !errors.IsNotFound(err) {
		t.Fatalf("expected not-found for foreign order, got %v", err)
	}
	if _, err := e.svc.Get(ctx, ord.ID, other.ID, []user.Role{user.RoleAdmin}); err != nil {
		t.Fatalf("admin should see any order: %v", err)
	}
}

func TestAuditTrail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ord := payOrder(t, e)

	entries, err := e.svc.AuditTrail(ctx, ord.ID)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected create + approve audit entries, got %d", len(entries))
	}
}
