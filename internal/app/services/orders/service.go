// Package orders orchestrates the checkout, payment and delivery workflow.
package orders

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pawmart/petstore/internal/app/domain/audit"
	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/metrics"
	"github.com/pawmart/petstore/internal/app/services/discounts"
	"github.com/pawmart/petstore/internal/app/services/ordernum"
	"github.com/pawmart/petstore/internal/app/services/payments"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/errors"
	"github.com/pawmart/petstore/pkg/logger"
)

// Service implements the order lifecycle: checkout, payment, cancellation
// and delivery tracking.
type Service struct {
	orders     storage.OrderStore
	deliveries storage.DeliveryStore
	carts      storage.CartStore
	pets       storage.PetStore
	addresses  storage.AddressStore
	audits     storage.AuditStore
	discounts  *discounts.Service
	strategies *payments.Factory
	numbers    ordernum.Generator
	now        func() time.Time
	log        *logger.Logger
}

// NewService wires the orders service. strategies and numbers fall back to
// defaults when nil.
func NewService(
	orders storage.OrderStore,
	deliveries storage.DeliveryStore,
	carts storage.CartStore,
	pets storage.PetStore,
	addresses storage.AddressStore,
	audits storage.AuditStore,
	discountSvc *discounts.Service,
	strategies *payments.Factory,
	numbers ordernum.Generator,
	log *logger.Logger,
) *Service {
	if strategies == nil {
		strategies = payments.NewFactory()
	}
	if numbers == nil {
		numbers = ordernum.UUID{}
	}
	if log == nil {
		log = logger.NewDefault("orders")
	}
	return &Service{
		orders:     orders,
		deliveries: deliveries,
		carts:      carts,
		pets:       pets,
		addresses:  addresses,
		audits:     audits,
		discounts:  discountSvc,
		strategies: strategies,
		numbers:    numbers,
		now:        time.Now,
		log:        log,
	}
}

// Checkout converts the user's cart into a PLACED order. The cart must
// exist and be non-empty; an optional discount code is validated and its
// percentage applied, with the code, percentage and amount frozen onto the
// order. The order insert, item copies, cart deletion and audit record are
// committed atomically, so checkout is single-shot per cart.
func (s *Service) Checkout(ctx context.Context, userID int64, discountCode string) (order.Order, error) {
	ord, err := s.checkout(ctx, userID, discountCode)
	metrics.RecordCheckout(err == nil)
	return ord, err
}

func (s *Service) checkout(ctx context.Context, userID int64, discountCode string) (order.Order, error) {
	c, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return order.Order{}, errors.Invalid("cart is empty")
		}
		return order.Order{}, errors.Internal(err)
	}
	if len(c.Items) == 0 {
		return order.Order{}, errors.Invalid("cart is empty")
	}

	ord := order.Order{
		OrderNumber: s.numbers.Generate(),
		UserID:      userID,
		Status:      order.StatusPlaced,
		TotalAmount: c.Total(),
	}

	if discountCode != "" {
		d, err := s.discounts.Validate(ctx, discountCode)
		if err != nil {
			return order.Order{}, err
		}
		amount := d.AmountOff(ord.TotalAmount)
		ord.DiscountCode = d.Code
		ord.DiscountPercentage = d.Percentage
		ord.DiscountAmount = amount
		ord.TotalAmount = ord.TotalAmount.Sub(amount)
	}

	for _, item := range c.Items {
		ord.Items = append(ord.Items, order.Item{PetID: item.PetID, Price: item.Price})
	}

	placed, err := s.orders.PlaceOrder(ctx, ord, c.ID, audit.Entry{
		EntityType: "order",
		ActorID:    userID,
		Action:     audit.ActionCreateOrder,
		NewValue:   string(order.StatusPlaced),
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrPetUnavailable) {
			return order.Order{}, errors.Conflict("a pet in the cart is no longer available")
		}
		return order.Order{}, errors.Internal(err)
	}

	s.log.WithField("order_id", placed.ID).WithField("order_number", placed.OrderNumber).Info("order placed")
	return placed, nil
}

// PaymentInput is the payload for settling an order.
type PaymentInput struct {
	payments.Request
	ShippingAddressID int64 `json:"shipping_address_id"`
	BillingAddressID  int64 `json:"billing_address_id,omitempty"`
}

// Pay settles a PLACED order. The payment strategy validates its required
// fields before anything mutates; on success the payment row, the pet
// ownership flips (SOLD, owner = buyer), the APPROVED order with resolved
// addresses, the PENDING delivery and the audit trail are committed as one
// atomic batch. Billing defaults to shipping when omitted.
func (s *Service) Pay(ctx context.Context, orderID, userID int64, in PaymentInput) (order.Payment, error) {
	start := s.now()
	p, err := s.pay(ctx, orderID, userID, in)
	metrics.RecordPayment(string(in.PaymentType), time.Since(start), err == nil)
	return p, err
}

func (s *Service) pay(ctx context.Context, orderID, userID int64, in PaymentInput) (order.Payment, error) {
	ord, err := s.getOwned(ctx, orderID, userID)
	if err != nil {
		return order.Payment{}, err
	}
	if ord.Status != order.StatusPlaced {
		return order.Payment{}, errors.Conflict("order %d is %s and cannot be paid", orderID, ord.Status)
	}

	strategy, err := s.strategies.Resolve(in.PaymentType)
	if err != nil {
		return order.Payment{}, err
	}
	note, err := strategy.Process(in.Request)
	if err != nil {
		return order.Payment{}, err
	}

	if in.ShippingAddressID == 0 {
		return order.Payment{}, errors.Invalid("shipping address is required")
	}
	shipping, err := s.addresses.GetAddress(ctx, in.ShippingAddressID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return order.Payment{}, errors.NotFound("address %d not found", in.ShippingAddressID)
		}
		return order.Payment{}, errors.Internal(err)
	}
	if shipping.UserID != userID {
		return order.Payment{}, errors.NotFound("address %d not found", in.ShippingAddressID)
	}
	billingID := in.BillingAddressID
	if billingID == 0 {
		billingID = shipping.ID
	}

	commit := storage.PaymentCommit{
		Payment: order.Payment{
			Amount:      ord.TotalAmount,
			Status:      order.PaymentSuccess,
			PaymentType: in.PaymentType,
			Note:        note,
			PaidAt:      s.now().UTC(),
		},
		OrderID:           ord.ID,
		OrderStatus:       order.StatusApproved,
		ShippingAddressID: shipping.ID,
		BillingAddressID:  billingID,
		Delivery: order.Delivery{
			OrderID: ord.ID,
			Name:    shipping.FullName,
			Phone:   shipping.PhoneNumber,
			Address: shipping.FullAddress(),
			Status:  order.DeliveryPending,
		},
		Audits: []audit.Entry{{
			EntityType: "order",
			EntityID:   ord.ID,
			ActorID:    userID,
			Action:     audit.ActionCheckoutOrder,
			OldValue:   string(order.StatusPlaced),
			NewValue:   string(order.StatusApproved),
		}},
	}

	for _, item := range ord.Items {
		p, err := s.pets.GetPet(ctx, item.PetID)
		if err != nil {
			return order.Payment{}, errors.Internal(err)
		}
		old := p.Status
		p.Status = catalog.StatusSold
		p.OwnerID = userID
		commit.Pets = append(commit.Pets, p)
		commit.Audits = append(commit.Audits, audit.Entry{
			EntityType: "pet",
			EntityID:   p.ID,
			ActorID:    userID,
			Action:     audit.ActionChangePetStatus,
			OldValue:   string(old),
			NewValue:   string(catalog.StatusSold),
		})
	}

	payment, err := s.orders.CommitPayment(ctx, commit)
	if err != nil {
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			return order.Payment{}, errors.NotFound("address not found")
		case stderrors.Is(err, storage.ErrDuplicate):
			return order.Payment{}, errors.Conflict("order %d is already paid", orderID)
		}
		return order.Payment{}, errors.Internal(err)
	}

	s.log.WithField("order_id", ord.ID).WithField("payment_type", string(in.PaymentType)).Info("payment committed")
	return payment, nil
}

// Get returns an order. Non-admin callers only see their own orders.
func (s *Service) Get(ctx context.Context, orderID, callerID int64, roles []user.Role) (order.Order, error) {
	for _, r := range roles {
		if r == user.RoleAdmin {
			ord, err := s.orders.GetOrder(ctx, orderID)
			if err != nil {
				if stderrors.Is(err, storage.ErrNotFound) {
					return order.Order{}, errors.NotFound("order %d not found", orderID)
				}
				return order.Order{}, errors.Internal(err)
			}
			return ord, nil
		}
	}
	return s.getOwned(ctx, orderID, callerID)
}

func (s *Service) getOwned(ctx context.Context, orderID, userID int64) (order.Order, error) {
	ord, err := s.orders.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return order.Order{}, errors.NotFound("order %d not found", orderID)
		}
		return order.Order{}, errors.Internal(err)
	}
	return ord, nil
}

// List returns all orders.
func (s *Service) List(ctx context.Context) ([]order.Order, error) {
	list, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// ListByUser returns the user's orders.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	list, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// Cancel moves a PLACED order to CANCELLED. Paid orders cannot be
// cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, userID int64) error {
	ord, err := s.getOwned(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if ord.Status != order.StatusPlaced {
		return errors.Conflict("order %d is %s and cannot be cancelled", orderID, ord.Status)
	}

	err = s.orders.SetOrderStatus(ctx, orderID, order.StatusCancelled, audit.Entry{
		EntityType: "order",
		EntityID:   orderID,
		ActorID:    userID,
		Action:     audit.ActionCancelOrder,
		OldValue:   string(ord.Status),
		NewValue:   string(order.StatusCancelled),
	})
	if err != nil {
		return errors.Internal(err)
	}

	s.log.WithField("order_id", orderID).Info("order cancelled")
	return nil
}

// GetDelivery returns the shipment record for an order the caller owns.
func (s *Service) GetDelivery(ctx context.Context, orderID, callerID int64, roles []user.Role) (order.Delivery, error) {
	if _, err := s.Get(ctx, orderID, callerID, roles); err != nil {
		return order.Delivery{}, err
	}
	d, err := s.deliveries.GetDeliveryByOrder(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return order.Delivery{}, errors.NotFound("delivery for order %d not found", orderID)
		}
		return order.Delivery{}, errors.Internal(err)
	}
	return d, nil
}

// UpdateDeliveryStatus advances the shipment state machine. Transitions are
// forward-only (PENDING < SHIPPED < DELIVERED); regressions and re-entry
// are rejected. SHIPPED stamps shippedAt, DELIVERED stamps deliveredAt and
// flips the parent order to DELIVERED. at overrides the stamp when non-zero.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, orderID int64, status order.DeliveryStatus, at time.Time, actorID int64) (order.Delivery, error) {
	if !status.Valid() {
		return order.Delivery{}, errors.Invalid("unknown delivery status %q", status)
	}

	d, err := s.deliveries.GetDeliveryByOrder(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return order.Delivery{}, errors.NotFound("delivery for order %d not found", orderID)
		}
		return order.Delivery{}, errors.Internal(err)
	}

	if !d.Status.CanTransitionTo(status) {
		return order.Delivery{}, errors.Conflict("delivery cannot move from %s to %s", d.Status, status)
	}

	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	old := d.Status
	d.Status = status
	var orderStatus *order.Status
	switch status {
	case order.DeliveryShipped:
		d.ShippedAt = &at
	case order.DeliveryDelivered:
		d.DeliveredAt = &at
		delivered := order.StatusDelivered
		orderStatus = &delivered
	}

	updated, err := s.deliveries.AdvanceDelivery(ctx, d, orderStatus, audit.Entry{
		EntityType: "delivery",
		EntityID:   d.ID,
		ActorID:    actorID,
		Action:     audit.ActionUpdateDeliveryStatus,
		OldValue:   string(old),
		NewValue:   string(status),
	})
	if err != nil {
		return order.Delivery{}, errors.Internal(err)
	}

	s.log.WithField("order_id", orderID).WithField("status", string(status)).Info("delivery status updated")
	return updated, nil
}

// GetPayment returns the payment recorded for an order the caller owns.
func (s *Service) GetPayment(ctx context.Context, orderID, callerID int64, roles []user.Role) (order.Payment, error) {
	if _, err := s.Get(ctx, orderID, callerID, roles); err != nil {
		return order.Payment{}, err
	}
	p, err := s.orders.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return order.Payment{}, errors.NotFound("payment for order %d not found", orderID)
		}
		return order.Payment{}, errors.Internal(err)
	}
	return p, nil
}

// AuditTrail returns the audit entries recorded for an order.
func (s *Service) AuditTrail(ctx context.Context, orderID int64) ([]audit.Entry, error) {
	entries, err := s.audits.ListAuditByEntity(ctx, "order", orderID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return entries, nil
}
