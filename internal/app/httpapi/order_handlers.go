package httpapi

import (
	"net/http"
	"time"

	"github.com/pawmart/petstore/internal/app/domain/order"
	"github.com/pawmart/petstore/internal/app/services/orders"
	"github.com/pawmart/petstore/internal/errors"
)

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var payload struct {
		DiscountCode string `json:"discount_code"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	placed, err := s.app.Orders.Checkout(r.Context(), principal.UserID, payload.DiscountCode)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (s *Server) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	list, err := s.app.Orders.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Orders.List(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	ord, err := s.app.Orders.Get(r.Context(), id, principal.UserID, principal.Roles)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	if err := s.app.Orders.Cancel(r.Context(), id, principal.UserID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayOrder(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var in orders.PaymentInput
	if err := decodeJSON(r.Body, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	payment, err := s.app.Orders.Pay(r.Context(), id, principal.UserID, in)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	payment, err := s.app.Orders.GetPayment(r.Context(), id, principal.UserID, principal.Roles)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	d, err := s.app.Orders.GetDelivery(r.Context(), id, principal.UserID, principal.Roles)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDelivery(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var payload struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp,omitempty"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var at time.Time
	if payload.Timestamp != "" {
		at, err = time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			writeError(w, r, s.log, errors.Invalid("timestamp must be RFC3339"))
			return
		}
	}

	d, err := s.app.Orders.UpdateDeliveryStatus(r.Context(), id, order.DeliveryStatus(payload.Status), at, principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleOrderAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	entries, err := s.app.Orders.AuditTrail(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
