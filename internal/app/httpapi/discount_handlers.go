package httpapi

import (
	"net/http"
	"time"

	"github.com/pawmart/petstore/internal/app/domain/discount"
	"github.com/pawmart/petstore/internal/errors"
)

// discountPayload is the create/update body for discounts.
type discountPayload struct {
	Code        string     `json:"code"`
	Percentage  string     `json:"percentage"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidTo     *time.Time `json:"valid_to"`
	Description string     `json:"description"`
	Active      bool       `json:"active"`
}

func (p discountPayload) toDomain() (discount.Discount, error) {
	d := discount.Discount{
		Code:        p.Code,
		Description: p.Description,
		Active:      p.Active,
	}
	if p.Percentage != "" {
		pct, err := parseDecimal(p.Percentage)
		if err != nil {
			return discount.Discount{}, errors.Invalid("invalid percentage %q", p.Percentage)
		}
		d.Percentage = pct
	}
	if p.ValidFrom != nil {
		d.ValidFrom = *p.ValidFrom
	}
	if p.ValidTo != nil {
		d.ValidTo = *p.ValidTo
	}
	return d, nil
}

func (s *Server) handleListDiscounts(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Discounts.List(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListActiveDiscounts(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Discounts.ListActive(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	d, err := s.app.Discounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var payload discountPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	d, err := payload.toDomain()
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	created, err := s.app.Discounts.Create(r.Context(), d)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var payload discountPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	d, err := payload.toDomain()
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	d.ID = id

	updated, err := s.app.Discounts.Update(r.Context(), d)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.app.Discounts.Delete(r.Context(), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
