package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	app "github.com/pawmart/petstore/internal/app"
	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/services/auth"
	"github.com/pawmart/petstore/internal/app/storage/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testAPI struct {
	router http.Handler
	store  *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokenProvider(testSecret, time.Hour)
	application := app.New(app.Stores{
		Users: store, Addresses: store, Categories: store, Pets: store,
		Carts: store, Discounts: store, Orders: store, Deliveries: store, Audits: store,
	}, app.Options{TokenProvider: tokens}, nil)
	server := NewServer(application, tokens, nil)
	return &testAPI{router: server.Router(), store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(t *testing.T, email string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "p4ssw0rd!", "first_name": "Test", "last_name": "User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *testAPI) login(t *testing.T, email string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "p4ssw0rd!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

// seedAdmin creates an ADMIN account directly in the store, since the
// public register endpoint never grants ADMIN.
func (a *testAPI) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("p4ssw0rd!"), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = a.store.CreateUser(context.Background(), user.User{
		Email: "admin@example.com", PasswordHash: string(hash),
		Roles: []user.Role{user.RoleUser, user.RoleAdmin},
	})
	require.NoError(t, err)
	return a.login(t, "admin@example.com")
}

func TestErrorEnvelope(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/orders", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope struct {
		Timestamp time.Time `json:"timestamp"`
		Status    int       `json:"status"`
		Error     string    `json:"error"`
		Message   string    `json:"message"`
		Path      string    `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, http.StatusUnauthorized, envelope.Status)
	require.Equal(t, "UNAUTHORIZED", envelope.Error)
	require.Equal(t, "/api/orders", envelope.Path)
	require.NotEmpty(t, envelope.Message)
	require.False(t, envelope.Timestamp.IsZero())
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	// Public reads work without a token.
	rec := api.do(t, http.MethodGet, "/api/pets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Garbage tokens are rejected.
	rec = api.do(t, http.MethodGet, "/api/cart", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleEnforced(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "user@example.com")
	token := api.login(t, "user@example.com")

	rec := api.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Dogs"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin := api.seedAdmin(t)
	rec = api.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Dogs"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestPurchaseFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.seedAdmin(t)
	api.register(t, "buyer@example.com")
	buyer := api.login(t, "buyer@example.com")

	// Admin sets up the catalog and a discount.
	rec := api.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Dogs"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var category struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))

	petIDs := make([]int64, 0, 2)
	for _, price := range []string{"100.00", "50.00"} {
		rec = api.do(t, http.MethodPost, "/api/pets", admin, map[string]interface{}{
			"name": "pet-" + price, "category_id": category.ID, "price": price,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var pet struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pet))
		petIDs = append(petIDs, pet.ID)
	}

	rec = api.do(t, http.MethodPost, "/api/discounts", admin, map[string]interface{}{
		"code": "SAVE10", "percentage": "10", "active": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Buyer needs an address for payment.
	rec = api.do(t, http.MethodPost, "/api/addresses", buyer, map[string]interface{}{
		"full_name": "Buyer One", "phone_number": "555-0100", "street": "1 Main St",
		"city": "Springfield", "state": "IL", "postal_code": "62701", "country": "US",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var address struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &address))

	// Fill the cart.
	for _, id := range petIDs {
		rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/cart/pets/%d", id), buyer, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	// Checkout applies the discount: 150.00 - 10% = 135.00.
	rec = api.do(t, http.MethodPost, "/api/orders/checkout", buyer, map[string]string{"discount_code": "SAVE10"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed struct {
		ID          int64  `json:"id"`
		TotalAmount string `json:"total_amount"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	require.Equal(t, "135", placed.TotalAmount)
	require.Equal(t, "PLACED", placed.Status)

	// The cart is gone.
	rec = api.do(t, http.MethodGet, "/api/cart", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cartView struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartView))
	require.Empty(t, cartView.Items)

	// Pay by e-wallet.
	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/payments", placed.ID), buyer, map[string]interface{}{
		"payment_type": "E_WALLET", "wallet_type": "GRABPAY", "wallet_id": "w-42",
		"shipping_address_id": address.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payment struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	require.Equal(t, "SUCCESS", payment.Status)
	require.Equal(t, "GRABPAY - w-42", payment.Note)

	// Delivery exists in PENDING; admin ships it; buyer sees the update.
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d/delivery", placed.ID), buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var delivery struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &delivery))
	require.Equal(t, "PENDING", delivery.Status)

	rec = api.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d/delivery", placed.ID), admin, map[string]string{"status": "SHIPPED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Buyers cannot drive the state machine.
	rec = api.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d/delivery", placed.ID), buyer, map[string]string{"status": "DELIVERED"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Regression is rejected with a conflict.
	rec = api.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d/delivery", placed.ID), admin, map[string]string{"status": "PENDING"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d/delivery", placed.ID), admin, map[string]string{"status": "DELIVERED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Reaching DELIVERED flips the order.
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", placed.ID), buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var final struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &final))
	require.Equal(t, "DELIVERED", final.Status)

	// The sold pets are no longer available.
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/pets/%d", petIDs[0]), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pet struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pet))
	require.Equal(t, "SOLD", pet.Status)
}

func TestOwnershipAcrossUsers(t *testing.T) {
	api := newTestAPI(t)
	admin := api.seedAdmin(t)
	api.register(t, "alice@example.com")
	api.register(t, "bob@example.com")
	alice := api.login(t, "alice@example.com")
	bob := api.login(t, "bob@example.com")

	rec := api.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Cats"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var category struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))

	rec = api.do(t, http.MethodPost, "/api/pets", admin, map[string]interface{}{
		"name": "Whiskers", "category_id": category.ID, "price": "25.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var pet struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pet))

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/cart/pets/%d", pet.ID), alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/orders/checkout", alice, map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	// Bob cannot see or cancel Alice's order; admins can read it.
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", placed.ID), bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", placed.ID), bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", placed.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bob cannot touch Alice's user record.
	var users []struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	rec = api.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	var aliceID int64
	for _, u := range users {
		if u.Email == "alice@example.com" {
			aliceID = u.ID
		}
	}
	require.NotZero(t, aliceID)

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", aliceID), bob, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
