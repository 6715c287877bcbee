// Package carts manages the per-user staging area for pets pending
// purchase.
package carts

import (
	"context"
	stderrors "errors"

	"github.com/pawmart/petstore/internal/app/domain/cart"
	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/errors"
	"github.com/pawmart/petstore/pkg/logger"
)

// Service implements cart operations.
type Service struct {
	carts storage.CartStore
	pets  storage.PetStore
	log   *logger.Logger
}

// NewService wires the carts service.
func NewService(carts storage.CartStore, pets storage.PetStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("carts")
	}
	return &Service{carts: carts, pets: pets, log: log}
}

// Get returns the user's cart. A user without a cart gets an empty one
// without persisting it.
func (s *Service) Get(ctx context.Context, userID int64) (cart.Cart, error) {
	c, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return cart.Cart{UserID: userID}, nil
		}
		return cart.Cart{}, errors.Internal(err)
	}
	return c, nil
}

// AddPet puts a pet into the user's cart, creating the cart lazily. The pet
// must not be SOLD, and a pet appears at most once per cart. The item price
// is snapshotted from the pet at add time.
func (s *Service) AddPet(ctx context.Context, userID, petID int64) (cart.Cart, error) {
	p, err := s.pets.GetPet(ctx, petID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return cart.Cart{}, errors.NotFound("pet %d not found", petID)
		}
		return cart.Cart{}, errors.Internal(err)
	}
	if p.Status == catalog.StatusSold {
		return cart.Cart{}, errors.Conflict("pet %d is already sold", petID)
	}

	c, err := s.carts.GetCartByUser(ctx, userID)
	if stderrors.Is(err, storage.ErrNotFound) {
		c, err = s.carts.CreateCart(ctx, userID)
	}
	if err != nil {
		return cart.Cart{}, errors.Internal(err)
	}

	if _, err := s.carts.AddCartItem(ctx, cart.Item{CartID: c.ID, PetID: petID, Price: p.Price}); err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return cart.Cart{}, errors.Conflict("pet %d is already in the cart", petID)
		}
		return cart.Cart{}, errors.Internal(err)
	}

	s.log.WithField("user_id", userID).WithField("pet_id", petID).Info("pet added to cart")
	return s.Get(ctx, userID)
}

// RemoveItem deletes a cart item, enforcing cart ownership.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	c, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("cart item %d not found", itemID)
		}
		return errors.Internal(err)
	}

	owned := false
	for _, item := range c.Items {
		if item.ID == itemID {
			owned = true
			break
		}
	}
	if !owned {
		return errors.NotFound("cart item %d not found", itemID)
	}

	if err := s.carts.DeleteCartItem(ctx, itemID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("cart item %d not found", itemID)
		}
		return errors.Internal(err)
	}
	return nil
}
