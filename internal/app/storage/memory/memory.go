// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pawmart/petstore/internal/app/domain/audit"
	"github.com/pawmart/petstore/internal/app/domain/cart"
	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/domain/discount"
	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/storage"

	"sync"
)

// Store is the in-memory backing store.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	users      map[int64]user.User
	addresses  map[int64]user.Address
	categories map[int64]catalog.Category
	pets       map[int64]catalog.Pet
	carts      map[int64]cart.Cart // keyed by cart ID
	cartByUser map[int64]int64
	discounts  map[int64]discount.Discount
	orders     map[int64]order.Order
	payments   map[int64]order.Payment  // keyed by order ID
	deliveries map[int64]order.Delivery // keyed by order ID
	audits     []audit.Entry
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.AddressStore = (*Store)(nil)
var _ storage.CategoryStore = (*Store)(nil)
var _ storage.PetStore = (*Store)(nil)
var _ storage.CartStore = (*Store)(nil)
var _ storage.DiscountStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.DeliveryStore = (*Store)(nil)
var _ storage.AuditStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:     1,
		users:      make(map[int64]user.User),
		addresses:  make(map[int64]user.Address),
		categories: make(map[int64]catalog.Category),
		pets:       make(map[int64]catalog.Pet),
		carts:      make(map[int64]cart.Cart),
		cartByUser: make(map[int64]int64),
		discounts:  make(map[int64]discount.Discount),
		orders:     make(map[int64]order.Order),
		payments:   make(map[int64]order.Payment),
		deliveries: make(map[int64]order.Delivery),
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, storage.ErrDuplicate
		}
	}

	u.ID = s.nextIDLocked()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Roles = append([]user.Role(nil), u.Roles...)

	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return user.User{}, storage.ErrDuplicate
		}
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	u.Roles = append([]user.Role(nil), u.Roles...)
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, cloneUser(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// AddressStore implementation -------------------------------------------------

func (s *Store) CreateAddress(_ context.Context, a user.Address) (user.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextIDLocked()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.addresses[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAddress(_ context.Context, a user.Address) (user.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.addresses[a.ID]
	if !ok {
		return user.Address{}, storage.ErrNotFound
	}
	a.UserID = existing.UserID
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	s.addresses[a.ID] = a
	return a, nil
}

func (s *Store) GetAddress(_ context.Context, id int64) (user.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.addresses[id]
	if !ok {
		return user.Address{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAddresses(_ context.Context, userID int64) ([]user.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []user.Address
	for _, a := range s.addresses {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteAddress(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.addresses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.addresses, id)
	return nil
}

// CategoryStore implementation ------------------------------------------------

func (s *Store) CreateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return catalog.Category{}, storage.ErrDuplicate
		}
	}

	c.ID = s.nextIDLocked()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c catalog.Category) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[c.ID]
	if !ok {
		return catalog.Category{}, storage.ErrNotFound
	}
	for id, other := range s.categories {
		if id != c.ID && strings.EqualFold(other.Name, c.Name) {
			return catalog.Category{}, storage.ErrDuplicate
		}
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return catalog.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetCategoryByName(_ context.Context, name string) (catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return catalog.Category{}, storage.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// PetStore implementation -----------------------------------------------------

func (s *Store) CreatePet(_ context.Context, p catalog.Pet) (catalog.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextIDLocked()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = catalog.StatusAvailable
	}
	s.pets[p.ID] = clonePet(p)
	return clonePet(p), nil
}

func (s *Store) UpdatePet(_ context.Context, p catalog.Pet) (catalog.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.pets[p.ID]
	if !ok {
		return catalog.Pet{}, storage.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.CreatedBy = existing.CreatedBy
	p.UpdatedAt = time.Now().UTC()
	s.pets[p.ID] = clonePet(p)
	return clonePet(p), nil
}

func (s *Store) GetPet(_ context.Context, id int64) (catalog.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pets[id]
	if !ok {
		return catalog.Pet{}, storage.ErrNotFound
	}
	return clonePet(p), nil
}

func (s *Store) SearchPets(_ context.Context, f catalog.Filter, page, size int) (catalog.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []catalog.Pet
	for _, p := range s.pets {
		if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.OwnerID != 0 && p.OwnerID != f.OwnerID {
			continue
		}
		matched = append(matched, clonePet(p))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	totalPages := int((total + int64(size) - 1) / int64(size))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	return catalog.Page{
		Items:      matched[start:end],
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (s *Store) ListLatestAvailable(_ context.Context, limit int) ([]catalog.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var available []catalog.Pet
	for _, p := range s.pets {
		if p.Status == catalog.StatusAvailable {
			available = append(available, clonePet(p))
		}
	}
	sort.Slice(available, func(i, j int) bool {
		if available[i].CreatedAt.Equal(available[j].CreatedAt) {
			return available[i].ID > available[j].ID
		}
		return available[i].CreatedAt.After(available[j].CreatedAt)
	})
	if limit < len(available) {
		available = available[:limit]
	}
	return available, nil
}

func (s *Store) DeletePet(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.pets, id)
	return nil
}

func (s *Store) CountPetsByCategory(_ context.Context, categoryID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.pets {
		if p.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountPetsByOwner(_ context.Context, ownerID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.pets {
		if p.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountPetsCreatedBy(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.pets {
		if p.CreatedBy == userID {
			count++
		}
	}
	return count, nil
}

// CartStore implementation ----------------------------------------------------

func (s *Store) GetCartByUser(_ context.Context, userID int64) (cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cartID, ok := s.cartByUser[userID]
	if !ok {
		return cart.Cart{}, storage.ErrNotFound
	}
	return cloneCart(s.carts[cartID]), nil
}

func (s *Store) CreateCart(_ context.Context, userID int64) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cartByUser[userID]; exists {
		return cart.Cart{}, storage.ErrDuplicate
	}

	now := time.Now().UTC()
	c := cart.Cart{ID: s.nextIDLocked(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.carts[c.ID] = c
	s.cartByUser[userID] = c.ID
	return cloneCart(c), nil
}

func (s *Store) AddCartItem(_ context.Context, item cart.Item) (cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[item.CartID]
	if !ok {
		return cart.Item{}, storage.ErrNotFound
	}
	if c.Contains(item.PetID) {
		return cart.Item{}, storage.ErrDuplicate
	}

	item.ID = s.nextIDLocked()
	item.CreatedAt = time.Now().UTC()
	c.Items = append(c.Items, item)
	c.UpdatedAt = item.CreatedAt
	s.carts[c.ID] = c
	return item, nil
}

func (s *Store) DeleteCartItem(_ context.Context, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for cartID, c := range s.carts {
		for i, item := range c.Items {
			if item.ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				c.UpdatedAt = time.Now().UTC()
				s.carts[cartID] = c
				return nil
			}
		}
	}
	return storage.ErrNotFound
}

func (s *Store) deleteCartLocked(cartID int64) {
	c, ok := s.carts[cartID]
	if !ok {
		return
	}
	delete(s.cartByUser, c.UserID)
	delete(s.carts, cartID)
}

// DiscountStore implementation ------------------------------------------------

func (s *Store) CreateDiscount(_ context.Context, d discount.Discount) (discount.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.discounts {
		if strings.EqualFold(existing.Code, d.Code) {
			return discount.Discount{}, storage.ErrDuplicate
		}
	}

	d.ID = s.nextIDLocked()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	s.discounts[d.ID] = d
	return d, nil
}

func (s *Store) UpdateDiscount(_ context.Context, d discount.Discount) (discount.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.discounts[d.ID]
	if !ok {
		return discount.Discount{}, storage.ErrNotFound
	}
	for id, other := range s.discounts {
		if id != d.ID && strings.EqualFold(other.Code, d.Code) {
			return discount.Discount{}, storage.ErrDuplicate
		}
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	s.discounts[d.ID] = d
	return d, nil
}

func (s *Store) GetDiscount(_ context.Context, id int64) (discount.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.discounts[id]
	if !ok {
		return discount.Discount{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) GetDiscountByCode(_ context.Context, code string) (discount.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.discounts {
		if strings.EqualFold(d.Code, code) {
			return d, nil
		}
	}
	return discount.Discount{}, storage.ErrNotFound
}

func (s *Store) ListDiscounts(_ context.Context) ([]discount.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]discount.Discount, 0, len(s.discounts))
	for _, d := range s.discounts {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteDiscount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.discounts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.discounts, id)
	return nil
}

// OrderStore implementation ---------------------------------------------------

func (s *Store) PlaceOrder(_ context.Context, ord order.Order, cartID int64, entry audit.Entry) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range ord.Items {
		pet, ok := s.pets[item.PetID]
		if !ok {
			return order.Order{}, storage.ErrNotFound
		}
		if pet.Status != catalog.StatusAvailable {
			return order.Order{}, storage.ErrPetUnavailable
		}
	}

	ord.ID = s.nextIDLocked()
	now := time.Now().UTC()
	ord.CreatedAt = now
	ord.UpdatedAt = now
	for i := range ord.Items {
		ord.Items[i].ID = s.nextIDLocked()
		ord.Items[i].OrderID = ord.ID
	}
	s.orders[ord.ID] = cloneOrder(ord)

	s.deleteCartLocked(cartID)

	entry.EntityID = ord.ID
	s.appendAuditLocked(entry)

	return cloneOrder(ord), nil
}

func (s *Store) CommitPayment(_ context.Context, commit storage.PaymentCommit) (order.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, ok := s.orders[commit.OrderID]
	if !ok {
		return order.Payment{}, storage.ErrNotFound
	}
	if _, exists := s.addresses[commit.ShippingAddressID]; !exists {
		return order.Payment{}, storage.ErrNotFound
	}
	if _, exists := s.addresses[commit.BillingAddressID]; !exists {
		return order.Payment{}, storage.ErrNotFound
	}
	// Validate the whole batch before touching anything: the commit is
	// all-or-nothing.
	for _, pet := range commit.Pets {
		if _, exists := s.pets[pet.ID]; !exists {
			return order.Payment{}, storage.ErrNotFound
		}
	}

	now := time.Now().UTC()

	p := commit.Payment
	p.ID = s.nextIDLocked()
	p.OrderID = commit.OrderID
	s.payments[commit.OrderID] = p

	for _, pet := range commit.Pets {
		stored := s.pets[pet.ID]
		stored.Status = pet.Status
		stored.OwnerID = pet.OwnerID
		stored.UpdatedAt = now
		s.pets[pet.ID] = stored
	}

	ord.Status = commit.OrderStatus
	ord.ShippingAddressID = commit.ShippingAddressID
	ord.BillingAddressID = commit.BillingAddressID
	ord.UpdatedAt = now
	s.orders[ord.ID] = ord

	d := commit.Delivery
	d.ID = s.nextIDLocked()
	d.OrderID = commit.OrderID
	d.CreatedAt = now
	s.deliveries[commit.OrderID] = d

	for _, entry := range commit.Audits {
		s.appendAuditLocked(entry)
	}

	return p, nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ord, ok := s.orders[id]
	if !ok {
		return order.Order{}, storage.ErrNotFound
	}
	return cloneOrder(ord), nil
}

func (s *Store) GetOrderForUser(_ context.Context, id, userID int64) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ord, ok := s.orders[id]
	if !ok || ord.UserID != userID {
		return order.Order{}, storage.ErrNotFound
	}
	return cloneOrder(ord), nil
}

func (s *Store) ListOrders(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]order.Order, 0, len(s.orders))
	for _, ord := range s.orders {
		result = append(result, cloneOrder(ord))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID int64) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []order.Order
	for _, ord := range s.orders {
		if ord.UserID == userID {
			result = append(result, cloneOrder(ord))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) SetOrderStatus(_ context.Context, id int64, status order.Status, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ord, ok := s.orders[id]
	if !ok {
		return storage.ErrNotFound
	}
	ord.Status = status
	ord.UpdatedAt = time.Now().UTC()
	s.orders[id] = ord

	s.appendAuditLocked(entry)
	return nil
}

func (s *Store) GetPaymentByOrder(_ context.Context, orderID int64) (order.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[orderID]
	if !ok {
		return order.Payment{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) AddressInUse(_ context.Context, addressID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ord := range s.orders {
		if ord.ShippingAddressID == addressID || ord.BillingAddressID == addressID {
			return true, nil
		}
	}
	return false, nil
}

// DeliveryStore implementation ------------------------------------------------

func (s *Store) GetDeliveryByOrder(_ context.Context, orderID int64) (order.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deliveries[orderID]
	if !ok {
		return order.Delivery{}, storage.ErrNotFound
	}
	return d, nil
}

func (s *Store) AdvanceDelivery(_ context.Context, d order.Delivery, orderStatus *order.Status, entry audit.Entry) (order.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deliveries[d.OrderID]; !ok {
		return order.Delivery{}, storage.ErrNotFound
	}
	if orderStatus != nil {
		if _, ok := s.orders[d.OrderID]; !ok {
			return order.Delivery{}, storage.ErrNotFound
		}
	}

	s.deliveries[d.OrderID] = d

	if orderStatus != nil {
		ord := s.orders[d.OrderID]
		ord.Status = *orderStatus
		ord.UpdatedAt = time.Now().UTC()
		s.orders[ord.ID] = ord
	}

	s.appendAuditLocked(entry)
	return d, nil
}

// AuditStore implementation ---------------------------------------------------

func (s *Store) AppendAudit(_ context.Context, e audit.Entry) (audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendAuditLocked(e), nil
}

func (s *Store) ListAuditByEntity(_ context.Context, entityType string, entityID int64) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []audit.Entry
	for _, e := range s.audits {
		if e.EntityType == entityType && e.EntityID == entityID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *Store) appendAuditLocked(e audit.Entry) audit.Entry {
	e.ID = s.nextIDLocked()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.audits = append(s.audits, e)
	return e
}

// clone helpers ---------------------------------------------------------------

func cloneUser(u user.User) user.User {
	u.Roles = append([]user.Role(nil), u.Roles...)
	return u
}

func clonePet(p catalog.Pet) catalog.Pet {
	p.PhotoURLs = append([]string(nil), p.PhotoURLs...)
	p.Tags = append([]string(nil), p.Tags...)
	return p
}

func cloneCart(c cart.Cart) cart.Cart {
	c.Items = append([]cart.Item(nil), c.Items...)
	return c
}

func cloneOrder(o order.Order) order.Order {
	o.Items = append([]order.Item(nil), o.Items...)
	return o
}
