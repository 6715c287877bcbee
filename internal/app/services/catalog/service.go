// Package catalog implements pet and category management.
package catalog

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/errors"
	"github.com/pawmart/petstore/pkg/logger"
)

// PetCache is an optional read-through cache for pet lookups. Mutations
// invalidate; misses fall through to the store.
type PetCache interface {
	GetPet(ctx context.Context, id int64) (catalog.Pet, bool)
	SetPet(ctx context.Context, p catalog.Pet)
	InvalidatePet(ctx context.Context, id int64)
}

// Service implements catalog browsing and administration.
type Service struct {
	pets       storage.PetStore
	categories storage.CategoryStore
	cache      PetCache
	log        *logger.Logger
}

// NewService wires the catalog service. cache may be nil.
func NewService(pets storage.PetStore, categories storage.CategoryStore, cache PetCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{pets: pets, categories: categories, cache: cache, log: log}
}

// GetPet returns a pet by id, consulting the cache first.
func (s *Service) GetPet(ctx context.Context, id int64) (catalog.Pet, error) {
	if s.cache != nil {
		if p, ok := s.cache.GetPet(ctx, id); ok {
			return p, nil
		}
	}

	p, err := s.pets.GetPet(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.Pet{}, errors.NotFound("pet %d not found", id)
		}
		return catalog.Pet{}, errors.Internal(err)
	}

	if s.cache != nil {
		s.cache.SetPet(ctx, p)
	}
	return p, nil
}

// SearchPets returns a filtered, paginated pet listing. Page is 1-based;
// size is clamped to [1, 100].
func (s *Service) SearchPets(ctx context.Context, f catalog.Filter, page, size int) (catalog.Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if f.Status != "" && !f.Status.Valid() {
		return catalog.Page{}, errors.Invalid("unknown pet status %q", f.Status)
	}

	result, err := s.pets.SearchPets(ctx, f, page, size)
	if err != nil {
		return catalog.Page{}, errors.Internal(err)
	}
	return result, nil
}

// LatestAvailable returns the newest AVAILABLE pets.
func (s *Service) LatestAvailable(ctx context.Context, limit int) ([]catalog.Pet, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	list, err := s.pets.ListLatestAvailable(ctx, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// CreatePet adds a pet to the catalog. The category must exist.
func (s *Service) CreatePet(ctx context.Context, p catalog.Pet, actorID int64) (catalog.Pet, error) {
	if err := s.validatePet(ctx, p); err != nil {
		return catalog.Pet{}, err
	}
	if p.Status == "" {
		p.Status = catalog.StatusAvailable
	}
	p.CreatedBy = actorID
	p.LastModifiedBy = actorID

	created, err := s.pets.CreatePet(ctx, p)
	if err != nil {
		return catalog.Pet{}, errors.Internal(err)
	}

	s.log.WithField("pet_id", created.ID).Info("pet created")
	return created, nil
}

// UpdatePet replaces a pet's mutable fields.
func (s *Service) UpdatePet(ctx context.Context, p catalog.Pet, actorID int64) (catalog.Pet, error) {
	current, err := s.GetPet(ctx, p.ID)
	if err != nil {
		return catalog.Pet{}, err
	}
	if err := s.validatePet(ctx, p); err != nil {
		return catalog.Pet{}, err
	}
	p.OwnerID = current.OwnerID
	p.CreatedAt = current.CreatedAt
	p.CreatedBy = current.CreatedBy
	p.LastModifiedBy = actorID
	if p.Status == "" {
		p.Status = current.Status
	}

	updated, err := s.pets.UpdatePet(ctx, p)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.Pet{}, errors.NotFound("pet %d not found", p.ID)
		}
		return catalog.Pet{}, errors.Internal(err)
	}

	if s.cache != nil {
		s.cache.InvalidatePet(ctx, p.ID)
	}
	return updated, nil
}

// UpdatePetStatus changes only the availability status.
func (s *Service) UpdatePetStatus(ctx context.Context, id int64, status catalog.PetStatus, actorID int64) (catalog.Pet, error) {
	if !status.Valid() {
		return catalog.Pet{}, errors.Invalid("unknown pet status %q", status)
	}

	p, err := s.GetPet(ctx, id)
	if err != nil {
		return catalog.Pet{}, err
	}
	p.Status = status
	p.LastModifiedBy = actorID

	updated, err := s.pets.UpdatePet(ctx, p)
	if err != nil {
		return catalog.Pet{}, errors.Internal(err)
	}

	if s.cache != nil {
		s.cache.InvalidatePet(ctx, id)
	}
	return updated, nil
}

// DeletePet removes a pet from the catalog.
func (s *Service) DeletePet(ctx context.Context, id int64) error {
	if err := s.pets.DeletePet(ctx, id); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("pet %d not found", id)
		}
		return errors.Internal(err)
	}
	if s.cache != nil {
		s.cache.InvalidatePet(ctx, id)
	}
	return nil
}

func (s *Service) validatePet(ctx context.Context, p catalog.Pet) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Invalid("pet name is required")
	}
	if p.Price.LessThan(decimal.Zero) {
		return errors.Invalid("pet price must not be negative")
	}
	if p.Status != "" && !p.Status.Valid() {
		return errors.Invalid("unknown pet status %q", p.Status)
	}
	if _, err := s.categories.GetCategory(ctx, p.CategoryID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("category %d not found", p.CategoryID)
		}
		return errors.Internal(err)
	}
	return nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	list, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// GetCategory returns a category by id.
func (s *Service) GetCategory(ctx context.Context, id int64) (catalog.Category, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return catalog.Category{}, errors.NotFound("category %d not found", id)
		}
		return catalog.Category{}, errors.Internal(err)
	}
	return c, nil
}

// CreateCategory adds a category. Names are unique case-insensitively.
func (s *Service) CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return catalog.Category{}, errors.Invalid("category name is required")
	}

	created, err := s.categories.CreateCategory(ctx, c)
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return catalog.Category{}, errors.Conflict("category %q already exists", c.Name)
		}
		return catalog.Category{}, errors.Internal(err)
	}
	return created, nil
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return catalog.Category{}, errors.Invalid("category name is required")
	}

	updated, err := s.categories.UpdateCategory(ctx, c)
	if err != nil {
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			return catalog.Category{}, errors.NotFound("category %d not found", c.ID)
		case stderrors.Is(err, storage.ErrDuplicate):
			return catalog.Category{}, errors.Conflict("category %q already exists", c.Name)
		}
		return catalog.Category{}, errors.Internal(err)
	}
	return updated, nil
}

// DeleteCategory removes a category. Deletion is blocked while pets
// reference it; the conflict names the category and the pet count.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.pets.CountPetsByCategory(ctx, id)
	if err != nil {
		return errors.Internal(err)
	}
	if count > 0 {
		return errors.Conflict("category %q is used by %d pet(s)", c.Name, count)
	}

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("category %d not found", id)
		}
		return errors.Internal(err)
	}
	return nil
}
