// Package discounts manages time-bounded percentage discount codes.
package discounts

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawmart/petstore/internal/app/domain/discount"
	"github.com/pawmart/petstore/internal/app/storage"
	"github.com/pawmart/petstore/internal/errors"
	"github.com/pawmart/petstore/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

// Service implements discount management and validation.
type Service struct {
	discounts storage.DiscountStore
	now       func() time.Time
	log       *logger.Logger
}

// NewService wires the discounts service.
func NewService(discounts storage.DiscountStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("discounts")
	}
	return &Service{discounts: discounts, now: time.Now, log: log}
}

// Create adds a discount code. Codes are unique case-insensitively;
// percentages stay within (0, 100].
func (s *Service) Create(ctx context.Context, d discount.Discount) (discount.Discount, error) {
	if err := validate(&d); err != nil {
		return discount.Discount{}, err
	}

	created, err := s.discounts.CreateDiscount(ctx, d)
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicate) {
			return discount.Discount{}, errors.Conflict("discount code %q already exists", d.Code)
		}
		return discount.Discount{}, errors.Internal(err)
	}
	return created, nil
}

// Update replaces a discount. Historical orders keep their frozen snapshot
// regardless of edits here.
func (s *Service) Update(ctx context.Context, d discount.Discount) (discount.Discount, error) {
	if err := validate(&d); err != nil {
		return discount.Discount{}, err
	}

	updated, err := s.discounts.UpdateDiscount(ctx, d)
	if err != nil {
		switch {
		case stderrors.Is(err, storage.ErrNotFound):
			return discount.Discount{}, errors.NotFound("discount %d not found", d.ID)
		case stderrors.Is(err, storage.ErrDuplicate):
			return discount.Discount{}, errors.Conflict("discount code %q already exists", d.Code)
		}
		return discount.Discount{}, errors.Internal(err)
	}
	return updated, nil
}

// Get returns a discount by id.
func (s *Service) Get(ctx context.Context, id int64) (discount.Discount, error) {
	d, err := s.discounts.GetDiscount(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return discount.Discount{}, errors.NotFound("discount %d not found", id)
		}
		return discount.Discount{}, errors.Internal(err)
	}
	return d, nil
}

// List returns all discounts.
func (s *Service) List(ctx context.Context) ([]discount.Discount, error) {
	list, err := s.discounts.ListDiscounts(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return list, nil
}

// ListActive returns discounts that are flagged active and currently within
// their validity window.
func (s *Service) ListActive(ctx context.Context) ([]discount.Discount, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]discount.Discount, 0, len(all))
	for _, d := range all {
		if d.Active && d.WithinWindow(now) {
			active = append(active, d)
		}
	}
	return active, nil
}

// Delete removes a discount.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.discounts.DeleteDiscount(ctx, id); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("discount %d not found", id)
		}
		return errors.Internal(err)
	}
	return nil
}

// Validate resolves a code to a usable discount: it must exist, be flagged
// active and be within its validity window, else the checkout is rejected.
func (s *Service) Validate(ctx context.Context, code string) (discount.Discount, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return discount.Discount{}, errors.Invalid("discount code is required")
	}

	d, err := s.discounts.GetDiscountByCode(ctx, code)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return discount.Discount{}, errors.Invalid("discount code %q is not valid", code)
		}
		return discount.Discount{}, errors.Internal(err)
	}

	if !d.Active || !d.WithinWindow(s.now()) {
		return discount.Discount{}, errors.Invalid("discount code %q is not valid", code)
	}
	return d, nil
}

func validate(d *discount.Discount) error {
	d.Code = strings.TrimSpace(d.Code)
	if d.Code == "" {
		return errors.Invalid("discount code is required")
	}
	if !d.Percentage.IsPositive() || d.Percentage.GreaterThan(hundred) {
		return errors.Invalid("discount percentage must be between 0 and 100")
	}
	if !d.ValidFrom.IsZero() && !d.ValidTo.IsZero() && d.ValidTo.Before(d.ValidFrom) {
		return errors.Invalid("discount validity window is inverted")
	}
	return nil
}
