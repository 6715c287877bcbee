package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pawmart/petstore/internal/app/domain/audit"
	"github.com/pawmart/petstore/internal/app/domain/cart"
	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/domain/discount"
	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/database"
)

// --- CartStore ---------------------------------------------------------------

func (s *Store) GetCartByUser(ctx context.Context, userID int64) (cart.Cart, error) {
	var c cart.Cart
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return cart.Cart{}, mapError(err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cart_id, pet_id, price, created_at FROM cart_items WHERE cart_id = $1 ORDER BY id
	`, c.ID)
	if err != nil {
		return cart.Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item cart.Item
		if err := rows.Scan(&item.ID, &item.CartID, &item.PetID, &item.Price, &item.CreatedAt); err != nil {
			return cart.Cart{}, err
		}
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

func (s *Store) CreateCart(ctx context.Context, userID int64) (cart.Cart, error) {
	now := time.Now().UTC()
	c := cart.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id
	`, userID, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return cart.Cart{}, mapError(err)
	}
	return c, nil
}

func (s *Store) AddCartItem(ctx context.Context, item cart.Item) (cart.Item, error) {
	item.CreatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (cart_id, pet_id, price, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.CartID, item.PetID, item.Price, item.CreatedAt).Scan(&item.ID)
	if err != nil {
		return cart.Item{}, mapError(err)
	}
	return item, nil
}

func (s *Store) DeleteCartItem(ctx context.Context, itemID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- DiscountStore -----------------------------------------------------------

const discountColumns = `id, code, percentage, valid_from, valid_to, description, active, created_at, updated_at`

func scanDiscount(row interface{ Scan(...interface{}) error }) (discount.Discount, error) {
	var (
		d        discount.Discount
		from, to sql.NullTime
	)
	err := row.Scan(&d.ID, &d.Code, &d.Percentage, &from, &to, &d.Description, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return discount.Discount{}, mapError(err)
	}
	d.ValidFrom = from.Time
	d.ValidTo = to.Time
	return d, nil
}

func (s *Store) CreateDiscount(ctx context.Context, d discount.Discount) (discount.Discount, error) {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO discounts (code, percentage, valid_from, valid_to, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, d.Code, d.Percentage, nullTime(d.ValidFrom), nullTime(d.ValidTo), d.Description, d.Active, d.CreatedAt, d.UpdatedAt).Scan(&d.ID)
	if err != nil {
		return discount.Discount{}, mapError(err)
	}
	return d, nil
}

func (s *Store) UpdateDiscount(ctx context.Context, d discount.Discount) (discount.Discount, error) {
	d.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE discounts
		SET code = $2, percentage = $3, valid_from = $4, valid_to = $5, description = $6, active = $7, updated_at = $8
		WHERE id = $1
	`, d.ID, d.Code, d.Percentage, nullTime(d.ValidFrom), nullTime(d.ValidTo), d.Description, d.Active, d.UpdatedAt)
	if err != nil {
		return discount.Discount{}, mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return discount.Discount{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) GetDiscount(ctx context.Context, id int64) (discount.Discount, error) {
	return scanDiscount(s.db.QueryRowContext(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id))
}

func (s *Store) GetDiscountByCode(ctx context.Context, code string) (discount.Discount, error) {
	return scanDiscount(s.db.QueryRowContext(ctx, `SELECT `+discountColumns+` FROM discounts WHERE LOWER(code) = LOWER($1)`, code))
}

func (s *Store) ListDiscounts(ctx context.Context) ([]discount.Discount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+discountColumns+` FROM discounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []discount.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) DeleteDiscount(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- OrderStore --------------------------------------------------------------

func (s *Store) PlaceOrder(ctx context.Context, ord order.Order, cartID int64, entry audit.Entry) (order.Order, error) {
	err := database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		// Re-verify availability under row locks so a pet sold between cart
		// load and commit aborts the whole checkout.
		for _, item := range ord.Items {
			var status catalog.PetStatus
			err := tx.QueryRowContext(ctx, `SELECT status FROM pets WHERE id = $1 FOR UPDATE`, item.PetID).Scan(&status)
			if err != nil {
				return mapError(err)
			}
			if status != catalog.StatusAvailable {
				return storage.ErrPetUnavailable
			}
		}

		now := time.Now().UTC()
		ord.CreatedAt = now
		ord.UpdatedAt = now

		err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (order_number, user_id, status, total_amount, discount_code, discount_percentage, discount_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, ord.OrderNumber, ord.UserID, ord.Status, ord.TotalAmount, ord.DiscountCode,
			ord.DiscountPercentage, ord.DiscountAmount, ord.CreatedAt, ord.UpdatedAt).Scan(&ord.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", mapError(err))
		}

		for i := range ord.Items {
			ord.Items[i].OrderID = ord.ID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO order_items (order_id, pet_id, price) VALUES ($1, $2, $3) RETURNING id
			`, ord.ID, ord.Items[i].PetID, ord.Items[i].Price).Scan(&ord.Items[i].ID)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}

		entry.EntityID = ord.ID
		return insertAudit(ctx, tx, entry)
	})
	if err != nil {
		return order.Order{}, err
	}
	return ord, nil
}

func (s *Store) CommitPayment(ctx context.Context, commit storage.PaymentCommit) (order.Payment, error) {
	p := commit.Payment
	err := database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		for _, addrID := range []int64{commit.ShippingAddressID, commit.BillingAddressID} {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM addresses WHERE id = $1)`, addrID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return storage.ErrNotFound
			}
		}

		p.OrderID = commit.OrderID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO payments (order_id, amount, status, payment_type, note, paid_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, p.OrderID, p.Amount, p.Status, p.PaymentType, p.Note, p.PaidAt).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("insert payment: %w", mapError(err))
		}

		now := time.Now().UTC()
		for _, pet := range commit.Pets {
			result, err := tx.ExecContext(ctx, `
				UPDATE pets SET status = $2, owner_id = $3, updated_at = $4 WHERE id = $1
			`, pet.ID, pet.Status, nullInt64(pet.OwnerID), now)
			if err != nil {
				return fmt.Errorf("update pet %d: %w", pet.ID, err)
			}
			if rows, _ := result.RowsAffected(); rows == 0 {
				return storage.ErrNotFound
			}
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = $2, shipping_address_id = $3, billing_address_id = $4, updated_at = $5
			WHERE id = $1
		`, commit.OrderID, commit.OrderStatus, commit.ShippingAddressID, commit.BillingAddressID, now)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return storage.ErrNotFound
		}

		d := commit.Delivery
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO deliveries (order_id, name, phone, address, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, commit.OrderID, d.Name, d.Phone, d.Address, d.Status, now); err != nil {
			return fmt.Errorf("insert delivery: %w", mapError(err))
		}

		for _, entry := range commit.Audits {
			if err := insertAudit(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return order.Payment{}, err
	}
	return p, nil
}

const orderColumns = `id, order_number, user_id, status, total_amount, discount_code, discount_percentage, discount_amount, shipping_address_id, billing_address_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (order.Order, error) {
	var (
		ord      order.Order
		shipping sql.NullInt64
		billing  sql.NullInt64
	)
	err := row.Scan(&ord.ID, &ord.OrderNumber, &ord.UserID, &ord.Status, &ord.TotalAmount,
		&ord.DiscountCode, &ord.DiscountPercentage, &ord.DiscountAmount, &shipping, &billing,
		&ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return order.Order{}, mapError(err)
	}
	ord.ShippingAddressID = shipping.Int64
	ord.BillingAddressID = billing.Int64
	return ord, nil
}

func (s *Store) loadOrderItems(ctx context.Context, ord *order.Order) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, pet_id, price FROM order_items WHERE order_id = $1 ORDER BY id
	`, ord.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.PetID, &item.Price); err != nil {
			return err
		}
		ord.Items = append(ord.Items, item)
	}
	return rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	ord, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return order.Order{}, err
	}
	if err := s.loadOrderItems(ctx, &ord); err != nil {
		return order.Order{}, err
	}
	return ord, nil
}

func (s *Store) GetOrderForUser(ctx context.Context, id, userID int64) (order.Order, error) {
	ord, err := scanOrder(s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2
	`, id, userID))
	if err != nil {
		return order.Order{}, err
	}
	if err := s.loadOrderItems(ctx, &ord); err != nil {
		return order.Order{}, err
	}
	return ord, nil
}

func (s *Store) listOrders(ctx context.Context, query string, args ...interface{}) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ord)
	}
	return result, rows.Err()
}

func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY id`, userID)
}

func (s *Store) SetOrderStatus(ctx context.Context, id int64, status order.Status, entry audit.Entry) error {
	return database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
		`, id, status, time.Now().UTC())
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return storage.ErrNotFound
		}
		return insertAudit(ctx, tx, entry)
	})
}

func (s *Store) GetPaymentByOrder(ctx context.Context, orderID int64) (order.Payment, error) {
	var p order.Payment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, amount, status, payment_type, note, paid_at
		FROM payments WHERE order_id = $1
	`, orderID).Scan(&p.ID, &p.OrderID, &p.Amount, &p.Status, &p.PaymentType, &p.Note, &p.PaidAt)
	if err != nil {
		return order.Payment{}, mapError(err)
	}
	return p, nil
}

func (s *Store) AddressInUse(ctx context.Context, addressID int64) (bool, error) {
	var inUse bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM orders WHERE shipping_address_id = $1 OR billing_address_id = $1)
	`, addressID).Scan(&inUse)
	return inUse, err
}

// --- DeliveryStore -----------------------------------------------------------

func (s *Store) GetDeliveryByOrder(ctx context.Context, orderID int64) (order.Delivery, error) {
	var (
		d         order.Delivery
		shipped   sql.NullTime
		delivered sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, name, phone, address, status, created_at, shipped_at, delivered_at
		FROM deliveries WHERE order_id = $1
	`, orderID).Scan(&d.ID, &d.OrderID, &d.Name, &d.Phone, &d.Address, &d.Status, &d.CreatedAt, &shipped, &delivered)
	if err != nil {
		return order.Delivery{}, mapError(err)
	}
	if shipped.Valid {
		d.ShippedAt = &shipped.Time
	}
	if delivered.Valid {
		d.DeliveredAt = &delivered.Time
	}
	return d, nil
}

func (s *Store) AdvanceDelivery(ctx context.Context, d order.Delivery, orderStatus *order.Status, entry audit.Entry) (order.Delivery, error) {
	err := database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var shipped, delivered sql.NullTime
		if d.ShippedAt != nil {
			shipped = sql.NullTime{Time: *d.ShippedAt, Valid: true}
		}
		if d.DeliveredAt != nil {
			delivered = sql.NullTime{Time: *d.DeliveredAt, Valid: true}
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE deliveries SET status = $2, shipped_at = $3, delivered_at = $4 WHERE order_id = $1
		`, d.OrderID, d.Status, shipped, delivered)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return storage.ErrNotFound
		}

		if orderStatus != nil {
			result, err := tx.ExecContext(ctx, `
				UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
			`, d.OrderID, *orderStatus, time.Now().UTC())
			if err != nil {
				return err
			}
			if rows, _ := result.RowsAffected(); rows == 0 {
				return storage.ErrNotFound
			}
		}

		return insertAudit(ctx, tx, entry)
	})
	if err != nil {
		return order.Delivery{}, err
	}
	return d, nil
}

// --- AuditStore --------------------------------------------------------------

func insertAudit(ctx context.Context, tx *sql.Tx, e audit.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (entity_type, entity_id, actor_id, action, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.EntityType, e.EntityID, nullInt64(e.ActorID), e.Action, e.OldValue, e.NewValue, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *Store) AppendAudit(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO audit_logs (entity_type, entity_id, actor_id, action, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, e.EntityType, e.EntityID, nullInt64(e.ActorID), e.Action, e.OldValue, e.NewValue, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return audit.Entry{}, err
	}
	return e, nil
}

func (s *Store) ListAuditByEntity(ctx context.Context, entityType string, entityID int64) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, actor_id, action, old_value, new_value, created_at
		FROM audit_logs WHERE entity_type = $1 AND entity_id = $2 ORDER BY id
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []audit.Entry
	for rows.Next() {
		var (
			e     audit.Entry
			actor sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &actor, &e.Action, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ActorID = actor.Int64
		result = append(result, e)
	}
	return result, rows.Err()
}
