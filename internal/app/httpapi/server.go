// Package httpapi exposes the application over a JSON REST API secured by
// JWT bearer tokens.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/pawmart/petstore/internal/app"
	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/metrics"
	"github.com/pawmart/petstore/internal/app/services/auth"
	"github.com/pawmart/petstore/pkg/logger"
)

// Server bundles the HTTP endpoints for the application services.
type Server struct {
	app    *app.Application
	tokens *auth.TokenProvider
	logins *loginLimiter
	log    *logger.Logger
}

// NewServer wires the REST API.
func NewServer(application *app.Application, tokens *auth.TokenProvider, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Server{
		app:    application,
		tokens: tokens,
		logins: newLoginLimiter(),
		log:    log,
	}
}

// Router builds the route table. Public routes cover auth, catalog reads
// and operational endpoints; everything else requires a bearer token, with
// ADMIN enforced per route.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public routes.
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.limitLogins(s.handleLogin)).Methods(http.MethodPost)
	api.HandleFunc("/pets", s.handleSearchPets).Methods(http.MethodGet)
	api.HandleFunc("/pets/latest", s.handleLatestPets).Methods(http.MethodGet)
	api.HandleFunc("/pets/{id:[0-9]+}", s.handleGetPet).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}", s.handleGetCategory).Methods(http.MethodGet)

	// Authenticated routes.
	authed := api.NewRoute().Subrouter()
	authed.Use(s.authenticate)

	authed.HandleFunc("/pets", s.requireRole(user.RoleAdmin, s.handleCreatePet)).Methods(http.MethodPost)
	authed.HandleFunc("/pets/{id:[0-9]+}", s.requireRole(user.RoleAdmin, s.handleUpdatePet)).Methods(http.MethodPut)
	authed.HandleFunc("/pets/{id:[0-9]+}/status", s.requireRole(user.RoleAdmin, s.handleUpdatePetStatus)).Methods(http.MethodPatch)
	authed.HandleFunc("/pets/{id:[0-9]+}", s.requireRole(user.RoleAdmin, s.handleDeletePet)).Methods(http.MethodDelete)

	authed.HandleFunc("/categories", s.requireRole(user.RoleAdmin, s.handleCreateCategory)).Methods(http.MethodPost)
	authed.HandleFunc("/categories/{id:[0-9]+}", s.requireRole(user.RoleAdmin, s.handleUpdateCategory)).Methods(http.MethodPut)
	authed.HandleFunc("/categories/{id:[0-9]+}", s.requireRole(user.RoleAdmin, s.handleDeleteCategory)).Methods(http.MethodDelete)

	authed.HandleFunc("/cart", s.handleGetCart).Methods(http.MethodGet)
	authed.HandleFunc("/cart/pets/{petId:[0-9]+}", s.handleAddCartPet).Methods(http.MethodPost)
	authed.HandleFunc("/cart/items/{itemId:[0-9]+}", s.handleRemoveCartItem).Methods(http.MethodDelete)

	authed.HandleFunc("/discounts", s.requireRole(user.RoleAdmin, s.handleListDiscounts)).Methods(http.MethodGet)
	authed.HandleFunc("/discounts", s.requireRole(user.RoleAdmin, s.handleCreateDiscount)).Methods(http.MethodPost)
	authed.HandleFunc("/discounts/active", s.handleListActiveDiscounts).Methods(http.MethodGet)
	authed.HandleFunc("/discounts/{id:[0-9]+}", s.requireRole(user.RoleAdmin, s.handleGetDiscount)).Methods(http.MethodGet)
	authed.HandleFunc("/discounts/{id:[0-9]+}", s.requireRole(user.RoleAdmin, s.handleUpdateDiscount)).Methods(http.MethodPut)
	authed.HandleFunc("/discounts/{id:[0-9]+}", s.requireRole(user.RoleAdmin, s.handleDeleteDiscount)).Methods(http.MethodDelete)

	authed.HandleFunc("/orders/checkout", s.handleCheckout).Methods(http.MethodPost)
	authed.HandleFunc("/orders", s.handleListMyOrders).Methods(http.MethodGet)
	authed.HandleFunc("/orders/all", s.requireRole(user.RoleAdmin, s.handleListAllOrders)).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id:[0-9]+}", s.handleGetOrder).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id:[0-9]+}/cancel", s.handleCancelOrder).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id:[0-9]+}/payments", s.handlePayOrder).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id:[0-9]+}/payments", s.handleGetPayment).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id:[0-9]+}/delivery", s.handleGetDelivery).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id:[0-9]+}/delivery", s.requireRole(user.RoleAdmin, s.handleUpdateDelivery)).Methods(http.MethodPut)
	authed.HandleFunc("/orders/{id:[0-9]+}/audit", s.requireRole(user.RoleAdmin, s.handleOrderAudit)).Methods(http.MethodGet)

	authed.HandleFunc("/users", s.requireRole(user.RoleAdmin, s.handleListUsers)).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", s.handleCurrentUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id:[0-9]+}", s.handleGetUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id:[0-9]+}", s.handleUpdateUser).Methods(http.MethodPut)
	authed.HandleFunc("/users/{id:[0-9]+}", s.handleDeleteUser).Methods(http.MethodDelete)

	authed.HandleFunc("/addresses", s.handleListAddresses).Methods(http.MethodGet)
	authed.HandleFunc("/addresses", s.handleCreateAddress).Methods(http.MethodPost)
	authed.HandleFunc("/addresses/{id:[0-9]+}", s.handleUpdateAddress).Methods(http.MethodPut)
	authed.HandleFunc("/addresses/{id:[0-9]+}", s.handleDeleteAddress).Methods(http.MethodDelete)

	return metrics.InstrumentHandler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
