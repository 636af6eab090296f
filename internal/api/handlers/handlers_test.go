package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimart/minimart/internal/api/handlers"
	"github.com/minimart/minimart/internal/api/middleware"
	"github.com/minimart/minimart/internal/config"
	"github.com/minimart/minimart/internal/errors"
	"github.com/minimart/minimart/internal/models"
	service "github.com/minimart/minimart/internal/services"
	"github.com/minimart/minimart/internal/storage"
	"github.com/minimart/minimart/internal/utils/response"
)

// newTestRouter wires the full route table against a real temp-file
// store, exactly as the server does, minus metrics and health.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{Storage: config.Storage{Path: filepath.Join(t.TempDir(), "minimart.db")}}

	store, err := storage.New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })

	userService := service.NewUserService(store, nil)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(service.NewCatalogService(store))
	cartHandler := handlers.NewCartHandler(service.NewCartService(store))
	orderHandler := handlers.NewOrderHandler(service.NewOrderService(store))
	identity := middleware.NewIdentityMiddleware(userService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signup", userHandler.Signup())
	mux.HandleFunc("POST /api/v1/auth/login", userHandler.Login())
	mux.HandleFunc("GET /api/v1/users/me", identity.Resolve(userHandler.Me()))
	mux.HandleFunc("POST /api/v1/products", productHandler.CreateProduct())
	mux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	mux.HandleFunc("GET /api/v1/products/search", productHandler.SearchProducts())
	mux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	mux.HandleFunc("PUT /api/v1/products/{id}", productHandler.UpdateProduct())
	mux.HandleFunc("DELETE /api/v1/products/{id}", productHandler.DeleteProduct())
	mux.HandleFunc("GET /api/v1/cart", identity.Resolve(cartHandler.ViewCart()))
	mux.HandleFunc("POST /api/v1/cart/items", identity.Resolve(cartHandler.AddItem()))
	mux.HandleFunc("DELETE /api/v1/cart/items/{productID}", identity.Resolve(cartHandler.RemoveItem()))
	mux.HandleFunc("PUT /api/v1/cart/items/{productID}/increase", identity.Resolve(cartHandler.IncreaseQuantity()))
	mux.HandleFunc("PUT /api/v1/cart/items/{productID}/decrease", identity.Resolve(cartHandler.DecreaseQuantity()))
	mux.HandleFunc("POST /api/v1/checkout", identity.Resolve(orderHandler.Checkout()))
	mux.HandleFunc("GET /api/v1/orders/{id}", identity.Resolve(orderHandler.GetOrder()))

	return middleware.Logging(mux)
}

// doRequest sends a JSON request through the router. A non-empty token
// is attached as a bearer token.
func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out))

	return out
}

func decodeErrorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	resp := decodeBody[response.APIResponse](t, recorder)
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)

	return resp.Error.Code
}

func createProduct(t *testing.T, router http.Handler, name string, price float64) models.Product {
	t.Helper()

	recorder := doRequest(t, router, "POST", "/api/v1/products", "", models.CreateProductRequest{
		Name:        name,
		Price:       price,
		Description: name + " description",
		Quantity:    10,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	return decodeBody[models.Product](t, recorder)
}

func loginTestUser(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()

	recorder := doRequest(t, router, "POST", "/api/v1/auth/signup", "", models.SignupRequest{
		Username: username, Password: password, Role: models.RoleBuyer,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doRequest(t, router, "POST", "/api/v1/auth/login", "", models.LoginRequest{
		Username: username, Password: password,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	session := decodeBody[models.Session](t, recorder)
	require.NotEmpty(t, session.Token)

	return session.Token
}

func TestAuthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Signup And Login", func(t *testing.T) {
		token := loginTestUser(t, router, "alice", "pw")

		recorder := doRequest(t, router, "GET", "/api/v1/users/me", token, nil)

		require.Equal(t, http.StatusOK, recorder.Code)
		user := decodeBody[models.User](t, recorder)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, models.RoleBuyer, user.Role)
	})

	t.Run("Duplicate Signup", func(t *testing.T) {
		recorder := doRequest(t, router, "POST", "/api/v1/auth/signup", "", models.SignupRequest{
			Username: "alice", Password: "pw", Role: models.RoleBuyer,
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, errors.ErrCodeConflict, decodeErrorCode(t, recorder))
	})

	t.Run("Signup Validation", func(t *testing.T) {
		recorder := doRequest(t, router, "POST", "/api/v1/auth/signup", "", models.SignupRequest{
			Username: "bob", Password: "pw", Role: "admin",
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, errors.ErrCodeValidation, decodeErrorCode(t, recorder))
	})

	t.Run("Wrong Password", func(t *testing.T) {
		recorder := doRequest(t, router, "POST", "/api/v1/auth/login", "", models.LoginRequest{
			Username: "alice", Password: "nope",
		})

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, errors.ErrCodeInvalidCredentials, decodeErrorCode(t, recorder))
	})

	t.Run("Me Without Token", func(t *testing.T) {
		recorder := doRequest(t, router, "GET", "/api/v1/users/me", "", nil)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Me With Stale Token", func(t *testing.T) {
		recorder := doRequest(t, router, "GET", "/api/v1/users/me", "deadbeef", nil)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestProductEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Create And Get", func(t *testing.T) {
		created := createProduct(t, router, "Phone", 299.99)

		recorder := doRequest(t, router, "GET", fmt.Sprintf("/api/v1/products/%d", created.ID), "", nil)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, created, decodeBody[models.Product](t, recorder))
	})

	t.Run("Create Validation", func(t *testing.T) {
		recorder := doRequest(t, router, "POST", "/api/v1/products", "", map[string]any{"price": -1})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, errors.ErrCodeValidation, decodeErrorCode(t, recorder))
	})

	t.Run("Malformed Body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/products", bytes.NewBufferString("{not json"))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Get Unknown", func(t *testing.T) {
		recorder := doRequest(t, router, "GET", "/api/v1/products/9999", "", nil)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, errors.ErrCodeNotFound, decodeErrorCode(t, recorder))
	})

	t.Run("Get Invalid ID", func(t *testing.T) {
		recorder := doRequest(t, router, "GET", "/api/v1/products/abc", "", nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Partial Update", func(t *testing.T) {
		created := createProduct(t, router, "Laptop", 899.99)

		newPrice := 799.99
		recorder := doRequest(t, router, "PUT", fmt.Sprintf("/api/v1/products/%d", created.ID), "",
			models.UpdateProductRequest{Price: &newPrice})

		require.Equal(t, http.StatusOK, recorder.Code)
		updated := decodeBody[models.Product](t, recorder)
		assert.Equal(t, newPrice, updated.Price)
		assert.Equal(t, "Laptop", updated.Name)
	})

	t.Run("Delete", func(t *testing.T) {
		created := createProduct(t, router, "Headphones", 99.99)
		path := fmt.Sprintf("/api/v1/products/%d", created.ID)

		recorder := doRequest(t, router, "DELETE", path, "", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, router, "DELETE", path, "", nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Search", func(t *testing.T) {
		createProduct(t, router, "Gaming Mouse", 49.99)

		recorder := doRequest(t, router, "GET", "/api/v1/products/search?query=gaming", "", nil)

		require.Equal(t, http.StatusOK, recorder.Code)
		results := decodeBody[[]models.Product](t, recorder)
		require.Len(t, results, 1)
		assert.Equal(t, "Gaming Mouse", results[0].Name)
	})
}

func TestCartEndpoints(t *testing.T) {
	router := newTestRouter(t)
	product := createProduct(t, router, "Phone", 299.99)

	t.Run("Anonymous Cart Flow", func(t *testing.T) {
		// No token: everything lands in the shared anonymous cart.
		recorder := doRequest(t, router, "POST", "/api/v1/cart/items", "",
			models.AddCartItemRequest{ProductID: product.ID, Quantity: 2})
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, router, "GET", "/api/v1/cart", "", nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		cart := decodeBody[models.Cart](t, recorder)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, int64(2), cart.Items[0].Quantity)

		recorder = doRequest(t, router, "PUT", fmt.Sprintf("/api/v1/cart/items/%d/increase", product.ID), "", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, router, "PUT", fmt.Sprintf("/api/v1/cart/items/%d/decrease", product.ID), "", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, router, "GET", "/api/v1/cart", "", nil)
		cart = decodeBody[models.Cart](t, recorder)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, int64(2), cart.Items[0].Quantity)

		recorder = doRequest(t, router, "DELETE", fmt.Sprintf("/api/v1/cart/items/%d", product.ID), "", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, router, "GET", "/api/v1/cart", "", nil)
		cart = decodeBody[models.Cart](t, recorder)
		assert.Empty(t, cart.Items)
	})

	t.Run("Add Unknown Product", func(t *testing.T) {
		recorder := doRequest(t, router, "POST", "/api/v1/cart/items", "",
			models.AddCartItemRequest{ProductID: 9999, Quantity: 1})

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Invalid Product ID In Path", func(t *testing.T) {
		recorder := doRequest(t, router, "DELETE", "/api/v1/cart/items/abc", "", nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Authenticated Cart Is Separate", func(t *testing.T) {
		token := loginTestUser(t, router, "carol", "pw")

		recorder := doRequest(t, router, "POST", "/api/v1/cart/items", token,
			models.AddCartItemRequest{ProductID: product.ID})
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, router, "GET", "/api/v1/cart", token, nil)
		cart := decodeBody[models.Cart](t, recorder)
		require.Len(t, cart.Items, 1)
		// Quantity omitted on add defaults to one.
		assert.Equal(t, int64(1), cart.Items[0].Quantity)

		recorder = doRequest(t, router, "GET", "/api/v1/cart", "", nil)
		anonymous := decodeBody[models.Cart](t, recorder)
		assert.Empty(t, anonymous.Items)
	})
}

func TestCheckoutEndpoints(t *testing.T) {
	router := newTestRouter(t)
	product := createProduct(t, router, "Phone", 100.0)
	token := loginTestUser(t, router, "dave", "pw")

	t.Run("Empty Cart", func(t *testing.T) {
		recorder := doRequest(t, router, "POST", "/api/v1/checkout", token, nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, errors.ErrCodeEmptyCart, decodeErrorCode(t, recorder))
	})

	t.Run("Checkout And Fetch Order", func(t *testing.T) {
		recorder := doRequest(t, router, "POST", "/api/v1/cart/items", token,
			models.AddCartItemRequest{ProductID: product.ID, Quantity: 3})
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = doRequest(t, router, "POST", "/api/v1/checkout", token, nil)
		require.Equal(t, http.StatusCreated, recorder.Code)

		order := decodeBody[models.Order](t, recorder)
		assert.Equal(t, 300.0, order.Total)
		assert.True(t, order.Paid)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Phone", order.Items[0].Name)

		recorder = doRequest(t, router, "GET", fmt.Sprintf("/api/v1/orders/%d", order.ID), token, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		fetched := decodeBody[models.Order](t, recorder)
		assert.Equal(t, order.ID, fetched.ID)
		assert.Equal(t, order.Total, fetched.Total)

		// Checkout leaves the cart empty.
		recorder = doRequest(t, router, "GET", "/api/v1/cart", token, nil)
		cart := decodeBody[models.Cart](t, recorder)
		assert.Empty(t, cart.Items)
	})

	t.Run("Unknown Order", func(t *testing.T) {
		recorder := doRequest(t, router, "GET", "/api/v1/orders/9999", token, nil)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Invalid Order ID", func(t *testing.T) {
		recorder := doRequest(t, router, "GET", "/api/v1/orders/abc", token, nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
