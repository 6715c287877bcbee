package httpapi

import (
	"net/http"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	c, err := s.app.Carts.Get(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAddCartPet(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	petID, err := pathID(r, "petId")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	c, err := s.app.Carts.AddPet(r.Context(), principal.UserID, petID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	if err := s.app.Carts.RemoveItem(r.Context(), principal.UserID, itemID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
