package httpapi

import (
	"net/http"

	"github.com/pawmart/petstore/internal/app/domain/user"
	usersvc "github.com/pawmart/petstore/internal/app/services/users"
	"github.com/pawmart/petstore/internal/errors"
)

// selfOrAdmin rejects callers touching another user's record unless they
// hold ADMIN.
func selfOrAdmin(p Principal, targetID int64) error {
	if p.UserID == targetID || p.HasRole(user.RoleAdmin) {
		return nil
	}
	return errors.Forbidden("insufficient permissions")
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Users.List(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	u, err := s.app.Users.Get(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := selfOrAdmin(principal, id); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	u, err := s.app.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := selfOrAdmin(principal, id); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var in usersvc.UpdateInput
	if err := decodeJSON(r.Body, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	updated, err := s.app.Users.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := selfOrAdmin(principal, id); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	if err := s.app.Users.Delete(r.Context(), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addressPayload is the create/update body for addresses.
type addressPayload struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	Default     bool   `json:"default"`
}

func (p addressPayload) toDomain() user.Address {
	return user.Address{
		FullName:    p.FullName,
		PhoneNumber: p.PhoneNumber,
		Street:      p.Street,
		City:        p.City,
		State:       p.State,
		PostalCode:  p.PostalCode,
		Country:     p.Country,
		Default:     p.Default,
	}
}

func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	list, err := s.app.Users.ListAddresses(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var payload addressPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	a := payload.toDomain()
	a.UserID = principal.UserID

	created, err := s.app.Users.CreateAddress(r.Context(), a)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var payload addressPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	a := payload.toDomain()
	a.ID = id

	updated, err := s.app.Users.UpdateAddress(r.Context(), principal.UserID, a)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	if err := s.app.Users.DeleteAddress(r.Context(), principal.UserID, id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
