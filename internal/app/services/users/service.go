// Package users manages accounts and their postal addresses.
package users

import (
	"context"
	stderrors "errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/errors"
	"github.com/pawmart/petstore/pkg/logger"
)

// Service implements user and address management.
type Service struct {
	users     storage.UserStore
	addresses storage.AddressStore
	pets      storage.PetStore
	orders    storage.OrderStore
	log       *logger.Logger
}

// NewService wires the users service.
func NewService(users storage.UserStore, addresses storage.AddressStore, pets storage.PetStore, orders storage.OrderStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{users: users, addresses: addresses, pets: pets, orders: orders, log: log}
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.User{}, errors.NotFound("user %d not found", id)
		}
		return user.User{}, errors.Internal(err)
	}
	return u, nil
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	list, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// UpdateInput carries the mutable user fields. Nil pointers leave the field
// unchanged.
type UpdateInput struct {
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Update applies a partial update. A new password is re-hashed; a new email
// must remain unique.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (user.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return user.User{}, errors.Invalid("a valid email is required")
		}
		u.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return user.User{}, errors.Invalid("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return user.User{}, errors.Internal(err)
		}
		u.PasswordHash = string(hash)
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}

	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return user.User{}, errors.Conflict("email %q is already registered", u.Email)
		}
		return user.User{}, errors.Internal(err)
	}
	return updated, nil
}

// Delete removes a user. Deletion is blocked while the user owns or created
// pets; re-deleting an absent user is a clean not-found.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	owned, err := s.pets.CountPetsByOwner(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if owned > 0 {
		return errors.Conflict("user %d owns %d pet(s) and cannot be deleted", id, owned)
	}

	created, err := s.pets.CountPetsCreatedBy(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if created > 0 {
		return errors.Conflict("user %d created %d pet(s) and cannot be deleted", id, created)
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("user %d not found", id)
		}
		return errors.Internal(err)
	}

	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}

// ListAddresses returns the user's addresses.
func (s *Service) ListAddresses(ctx context.Context, userID int64) ([]user.Address, error) {
	list, err := s.addresses.ListAddresses(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// GetAddress returns an address, enforcing ownership.
func (s *Service) GetAddress(ctx context.Context, userID, addressID int64) (user.Address, error) {
	a, err := s.addresses.GetAddress(ctx, addressID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.Address{}, errors.NotFound("address %d not found", addressID)
		}
		return user.Address{}, errors.Internal(err)
	}
	if a.UserID != userID {
		return user.Address{}, errors.NotFound("address %d not found", addressID)
	}
	return a, nil
}

// CreateAddress adds an address for the user. The user's first address
// becomes the default; a new default demotes the previous one.
func (s *Service) CreateAddress(ctx context.Context, a user.Address) (user.Address, error) {
	if err := validateAddress(a); err != nil {
		return user.Address{}, err
	}

	existing, err := s.addresses.ListAddresses(ctx, a.UserID)
	if err != nil {
		return user.Address{}, errors.Internal(err)
	}
	if len(existing) == 0 {
		a.Default = true
	} else if a.Default {
		if err := s.demoteDefault(ctx, existing, 0); err != nil {
			return user.Address{}, err
		}
	}

	created, err := s.addresses.CreateAddress(ctx, a)
	if err != nil {
		return user.Address{}, errors.Internal(err)
	}
	return created, nil
}

// UpdateAddress replaces an address, enforcing ownership.
func (s *Service) UpdateAddress(ctx context.Context, userID int64, a user.Address) (user.Address, error) {
	current, err := s.GetAddress(ctx, userID, a.ID)
	if err != nil {
		return user.Address{}, err
	}
	if err := validateAddress(a); err != nil {
		return user.Address{}, err
	}
	a.UserID = current.UserID
	a.CreatedAt = current.CreatedAt

	if a.Default && !current.Default {
		existing, err := s.addresses.ListAddresses(ctx, userID)
		if err != nil {
			return user.Address{}, errors.Internal(err)
		}
		if err := s.demoteDefault(ctx, existing, a.ID); err != nil {
			return user.Address{}, err
		}
	}

	updated, err := s.addresses.UpdateAddress(ctx, a)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.Address{}, errors.NotFound("address %d not found", a.ID)
		}
		return user.Address{}, errors.Internal(err)
	}
	return updated, nil
}

// DeleteAddress removes an address. Deletion is blocked while an order
// references it for shipping or billing.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	if _, err := s.GetAddress(ctx, userID, addressID); err != nil {
		return err
	}

	inUse, err := s.orders.AddressInUse(ctx, addressID)
	if err != nil {
		return errors.Internal(err)
	}
	if inUse {
		return errors.Conflict("address %d is referenced by an order and cannot be deleted", addressID)
	}

	if err := s.addresses.DeleteAddress(ctx, addressID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("address %d not found", addressID)
		}
		return errors.Internal(err)
	}
	return nil
}

func (s *Service) demoteDefault(ctx context.Context, existing []user.Address, keepID int64) error {
	for _, other := range existing {
		if other.Default && other.ID != keepID {
			other.Default = false
			if _, err := s.addresses.UpdateAddress(ctx, other); err != nil {
				return errors.Internal(err)
			}
		}
	}
	return nil
}

func validateAddress(a user.Address) error {
	switch {
	case a.FullName == "":
		return errors.Invalid("full name is required")
	case a.Street == "":
		return errors.Invalid("street is required")
	case a.City == "":
		return errors.Invalid("city is required")
	case a.Country == "":
		return errors.Invalid("country is required")
	}
	return nil
}
