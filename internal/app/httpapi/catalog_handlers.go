package httpapi

import (
	"net/http"
	"strconv"

	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/errors"
)

func (s *Server) handleSearchPets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := catalog.Filter{
		Name:   q.Get("name"),
		Status: catalog.PetStatus(q.Get("status")),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, s.log, errors.Invalid("invalid category_id %q", raw))
			return
		}
		f.CategoryID = id
	}

	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	result, err := s.app.Catalog.SearchPets(r.Context(), f, page, size)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLatestPets(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	pets, err := s.app.Catalog.LatestAvailable(r.Context(), limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, pets)
}

func (s *Server) handleGetPet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p, err := s.app.Catalog.GetPet(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// petPayload is the create/update body for pets.
type petPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CategoryID  int64    `json:"category_id"`
	Price       string   `json:"price"`
	Status      string   `json:"status"`
	PhotoURLs   []string `json:"photo_urls"`
	Tags        []string `json:"tags"`
}

func (p petPayload) toDomain() (catalog.Pet, error) {
	pet := catalog.Pet{
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Status:      catalog.PetStatus(p.Status),
		PhotoURLs:   p.PhotoURLs,
		Tags:        p.Tags,
	}
	if p.Price != "" {
		price, err := parseDecimal(p.Price)
		if err != nil {
			return catalog.Pet{}, errors.Invalid("invalid price %q", p.Price)
		}
		pet.Price = price
	}
	return pet, nil
}

func (s *Server) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var payload petPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pet, err := payload.toDomain()
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	created, err := s.app.Catalog.CreatePet(r.Context(), pet, principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePet(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var payload petPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pet, err := payload.toDomain()
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pet.ID = id

	updated, err := s.app.Catalog.UpdatePet(r.Context(), pet, principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleUpdatePetStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	updated, err := s.app.Catalog.UpdatePetStatus(r.Context(), id, catalog.PetStatus(payload.Status), principal.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.app.Catalog.DeletePet(r.Context(), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	c, err := s.app.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	created, err := s.app.Catalog.CreateCategory(r.Context(), catalog.Category{Name: payload.Name})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	updated, err := s.app.Catalog.UpdateCategory(r.Context(), catalog.Category{ID: id, Name: payload.Name})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.app.Catalog.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
