package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"catalog-api/helpers"
	"catalog-api/middleware"
	"catalog-api/models"
	"catalog-api/query"
	"catalog-api/validation"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Data        json.RawMessage     `json:"data"`
	Errors      validation.Failures `json:"errors"`
	Pagination  *query.Pagination   `json:"pagination"`
	SearchQuery map[string]string   `json:"searchQuery"`
	Category    string              `json:"category"`
}

type harness struct {
	t        *testing.T
	router   *gin.Engine
	users    *mockUserRepository
	products *mockProductRepository
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, func(*Dependencies) {})
}

func newHarnessWith(t *testing.T, configure func(*Dependencies)) *harness {
	gin.SetMode(gin.TestMode)
	users := newMockUserRepository()
	products := newMockProductRepository(users)
	d := Dependencies{
		Users:       users,
		Products:    products,
		Credentials: helpers.NewCredentials("test-secret", bcrypt.MinCost),
		Gate:        validation.NewGate(func() time.Time { return fixedNow }),
	}
	configure(&d)
	router, err := NewRouter(d)
	require.NoError(t, err)
	return &harness{t: t, router: router, users: users, products: products}
}

func (h *harness) do(method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func userBody(email string) map[string]any {
	return map[string]any{
		"firstName":   "Jan",
		"lastName":    "Peeters",
		"email":       email,
		"password":    "Secret123",
		"phone":       "+32 470 12 34 56",
		"dateOfBirth": "1990-05-20",
	}
}

func productBody(name, sku string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "A carefully built item for everyday use",
		"price":       499.99,
		"category":    "Electronics",
		"brand":       "Acme",
		"stock":       10,
		"sku":         sku,
		"weight":      0.2,
		"dimensions":  map[string]any{"length": 15, "width": 7, "height": 0.8},
		"releaseDate": "2025-01-15",
	}
}

// register creates an account and returns its id and token.
func (h *harness) register(email string) (string, string) {
	h.t.Helper()
	rec, env := h.do(http.MethodPost, "/api/register", userBody(email), "")
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var s struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &s))
	require.NotEmpty(h.t, s.Token)
	return s.User.ID, s.Token
}

func (h *harness) createProduct(token string, body map[string]any) string {
	h.t.Helper()
	rec, env := h.do(http.MethodPost, "/api/products", body, token)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var p struct{ ID string }
	require.NoError(h.t, json.Unmarshal(env.Data, &p))
	return p.ID
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(http.MethodGet, "/api/orders", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, env.Success)
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	id, _ := h.register("jan@example.com")

	t.Run("email is case-insensitive", func(t *testing.T) {
		rec, env := h.do(http.MethodPost, "/api/login", map[string]any{"email": " JAN@Example.com ", "password": "Secret123"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Login successful", env.Message)
		require.Contains(t, string(env.Data), id)
		require.NotContains(t, string(env.Data), "password")
		require.Contains(t, rec.Header().Get("Set-Cookie"), helpers.AuthCookie+"=")
	})
	t.Run("wrong password", func(t *testing.T) {
		rec, env := h.do(http.MethodPost, "/api/login", map[string]any{"email": "jan@example.com", "password": "Wrong1234"}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid email or password", env.Message)
	})
	t.Run("unknown email", func(t *testing.T) {
		rec, env := h.do(http.MethodPost, "/api/login", map[string]any{"email": "nobody@example.com", "password": "Secret123"}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid email or password", env.Message)
	})
	t.Run("missing fields", func(t *testing.T) {
		rec, env := h.do(http.MethodPost, "/api/login", map[string]any{"email": "jan@example.com"}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Email and password are required", env.Message)
	})
	t.Run("duplicate registration", func(t *testing.T) {
		rec, env := h.do(http.MethodPost, "/api/register", userBody("jan@example.com"), "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "User with this email already exists", env.Message)
	})
}

func TestRegisterIgnoresRole(t *testing.T) {
	h := newHarness(t)
	body := userBody("eve@example.com")
	body["role"] = "admin"
	rec, env := h.do(http.MethodPost, "/api/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, string(env.Data), `"role":"user"`)
}

func TestCreateUser(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(http.MethodPost, "/api/users", userBody("jan@example.com"), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "User created successfully", env.Message)
	require.NotContains(t, string(env.Data), "Secret123")

	t.Run("duplicate email differing in case", func(t *testing.T) {
		rec, env := h.do(http.MethodPost, "/api/users", userBody("JAN@Example.COM"), "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Email already exists", env.Message)
	})
	t.Run("invalid input never reaches the store", func(t *testing.T) {
		calls := h.users.calls
		body := userBody("new@example.com")
		body["firstName"] = "J"
		body["phone"] = "0470123456"
		body["password"] = "weakpass"
		delete(body, "dateOfBirth")

		rec, env := h.do(http.MethodPost, "/api/users", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Validation failed", env.Message)
		for _, field := range []string{"firstName", "phone", "password", "dateOfBirth"} {
			require.True(t, env.Errors.Has(field), field)
		}
		require.Equal(t, calls, h.users.calls)
	})
	t.Run("non-object body", func(t *testing.T) {
		rec, _ := h.do(http.MethodPost, "/api/users", []string{"x"}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetUser(t *testing.T) {
	h := newHarness(t)
	id, _ := h.register("jan@example.com")

	rec, env := h.do(http.MethodGet, "/api/users/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), "jan@example.com")

	rec, env = h.do(http.MethodGet, "/api/users/not-an-id", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid user ID format", env.Message)

	rec, env = h.do(http.MethodGet, "/api/users/65f000000000000000000000", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", env.Message)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	h := newHarness(t)
	janID, janToken := h.register("jan@example.com")
	piaID, _ := h.register("pia@example.com")

	t.Run("requires a token", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/users/"+janID, map[string]any{"firstName": "Janus"}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Access denied. No token provided.", env.Message)
	})
	t.Run("own account", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/users/"+janID, map[string]any{"firstName": "Janus"}, janToken)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, string(env.Data), `"firstName":"Janus"`)
	})
	t.Run("another account", func(t *testing.T) {
		rec, _ := h.do(http.MethodPut, "/api/users/"+piaID, map[string]any{"firstName": "Pia"}, janToken)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("role change needs admin", func(t *testing.T) {
		rec, _ := h.do(http.MethodPut, "/api/users/"+janID, map[string]any{"role": "admin"}, janToken)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("partial update validates present fields only", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/users/"+janID, map[string]any{"phone": "123"}, janToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Len(t, env.Errors, 1)
		require.True(t, env.Errors.Has("phone"))
	})
	t.Run("email taken", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/users/"+janID, map[string]any{"email": "PIA@example.com"}, janToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Email already exists", env.Message)
	})
	t.Run("delete own account", func(t *testing.T) {
		rec, _ := h.do(http.MethodDelete, "/api/users/"+janID, nil, janToken)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = h.do(http.MethodGet, "/api/users/"+janID, nil, "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		// The token no longer resolves to an account.
		rec, env := h.do(http.MethodGet, "/api/profile", nil, janToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid token", env.Message)
	})
}

func TestAdminCanManageOtherUsers(t *testing.T) {
	h := newHarness(t)
	adminID, adminToken := h.register("admin@example.com")
	role := models.RoleAdmin
	_, err := h.users.Update(context.Background(), adminID, models.UserPatch{Role: &role})
	require.NoError(t, err)
	piaID, _ := h.register("pia@example.com")

	rec, env := h.do(http.MethodPut, "/api/users/"+piaID, map[string]any{"isActive": false}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, string(env.Data), `"isActive":false`)

	rec, _ = h.do(http.MethodDelete, "/api/users/"+piaID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListAndSearchUsers(t *testing.T) {
	h := newHarness(t)
	h.register("jan@example.com")
	h.register("pia@example.com")
	h.register("tom@other.org")

	rec, env := h.do(http.MethodGet, "/api/users?limit=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, query.Pagination{Total: 3, Limit: 2, Offset: 0, HasMore: true}, *env.Pagination)

	rec, env = h.do(http.MethodGet, "/api/users/search?email=example", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, env.Pagination.Total)
	require.Equal(t, map[string]string{"email": "example"}, env.SearchQuery)
	require.NotContains(t, string(env.Data), "password")

	rec, env = h.do(http.MethodGet, "/api/users?sortBy=password", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.True(t, env.Errors.Has("sortBy"))
}

func TestProductLifecycle(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("jan@example.com")

	t.Run("create requires a token", func(t *testing.T) {
		rec, _ := h.do(http.MethodPost, "/api/products", productBody("Smartphone X", "ABC1234"), "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Zero(t, h.products.calls)
	})

	id := h.createProduct(token, productBody("Smartphone X", "ABC1234"))

	t.Run("owner is populated", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/products/"+id, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var p map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &p))
		owner, ok := p["createdBy"].(map[string]any)
		require.True(t, ok, "createdBy should be an object: %v", p["createdBy"])
		require.Equal(t, "jan@example.com", owner["email"])
		require.Equal(t, true, p["isAvailable"])
		require.InDelta(t, 84.0, p["volume"], 1e-9)
	})
	t.Run("duplicate sku", func(t *testing.T) {
		rec, env := h.do(http.MethodPost, "/api/products", productBody("Other", "ABC1234"), token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "SKU already exists", env.Message)
	})
	t.Run("invalid sku never reaches the store", func(t *testing.T) {
		calls := h.products.calls
		rec, env := h.do(http.MethodPost, "/api/products", productBody("Other", "abc1234"), token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.True(t, env.Errors.Has("sku"))
		require.Equal(t, calls, h.products.calls)
	})
	t.Run("partial update", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/products/"+id, map[string]any{"price": 449.5, "stock": 0}, token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, string(env.Data), `"price":449.5`)
		require.Contains(t, string(env.Data), `"isAvailable":false`)
	})
	t.Run("discontinue before stored release", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/products/"+id, map[string]any{"discontinueDate": "2024-12-31"}, token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, validation.Failures{{Field: "discontinueDate", Message: "Discontinue date must be after release date"}}, env.Errors)
	})
	t.Run("discontinue before release in the same body", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/products/"+id, map[string]any{
			"releaseDate":     "2025-06-01",
			"discontinueDate": "2025-05-01",
		}, token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.True(t, env.Errors.Has("discontinueDate"))
	})
	t.Run("release moved past stored discontinue", func(t *testing.T) {
		rec, _ := h.do(http.MethodPut, "/api/products/"+id, map[string]any{"discontinueDate": "2027-01-01"}, token)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := h.do(http.MethodPut, "/api/products/"+id, map[string]any{"releaseDate": "2027-02-01"}, token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.True(t, env.Errors.Has("discontinueDate"))
	})
	t.Run("clearing the discontinue date", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/products/"+id, map[string]any{"discontinueDate": nil}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NotContains(t, string(env.Data), "discontinueDate")
		rec, env = h.do(http.MethodGet, "/api/products/"+id, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, string(env.Data), "discontinueDate")

		// With no discontinue date left, the release date may move freely.
		rec, _ = h.do(http.MethodPut, "/api/products/"+id, map[string]any{"releaseDate": "2027-02-01"}, token)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = h.do(http.MethodPut, "/api/products/"+id, map[string]any{"discontinueDate": "2028-01-01"}, token)
		require.Equal(t, http.StatusOK, rec.Code)
		rec, env = h.do(http.MethodPut, "/api/products/"+id, map[string]any{"discontinueDate": ""}, token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, string(env.Data), "discontinueDate")
	})
	t.Run("bad id", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/products/xyz", map[string]any{"price": 1}, token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid product ID format", env.Message)
	})
	t.Run("delete then get", func(t *testing.T) {
		rec, env := h.do(http.MethodDelete, "/api/products/"+id, nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Product deleted successfully", env.Message)

		rec, env = h.do(http.MethodGet, "/api/products/"+id, nil, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Product not found", env.Message)

		rec, _ = h.do(http.MethodDelete, "/api/products/"+id, nil, token)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSearchProducts(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("jan@example.com")

	h.createProduct(token, productBody("Smartphone X", "ABC1234"))
	headphones := productBody("Studio Headset", "ABC1235")
	headphones["brand"] = "Phonic"
	headphones["price"] = 89.99
	h.createProduct(token, headphones)
	hose := productBody("Garden Hose", "ABC1236")
	hose["category"] = "Home & Garden"
	hose["price"] = 25
	h.createProduct(token, hose)

	t.Run("q matches any text field case-insensitively", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/products/search?q=PHONE", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.EqualValues(t, 2, env.Pagination.Total)
		require.Equal(t, map[string]string{"q": "PHONE"}, env.SearchQuery)
	})
	t.Run("price range is inclusive", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/products/search?minPrice=25&maxPrice=89.99", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.EqualValues(t, 2, env.Pagination.Total)
	})
	t.Run("filters combine with and", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/products/search?q=phone&category=Electronics&maxPrice=100", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.EqualValues(t, 1, env.Pagination.Total)
		require.Contains(t, string(env.Data), "Studio Headset")
	})
	t.Run("non-numeric bound", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/products/search?minPrice=cheap", nil, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.True(t, env.Errors.Has("minPrice"))
	})
	t.Run("sorted by price ascending", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/products?sortBy=price&order=asc", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var list []struct{ Price float64 }
		require.NoError(t, json.Unmarshal(env.Data, &list))
		require.Equal(t, []float64{25, 89.99, 499.99}, []float64{list[0].Price, list[1].Price, list[2].Price})
	})
	t.Run("by category", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/products/category/Home%20&%20Garden", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Home & Garden", env.Category)
		require.EqualValues(t, 1, env.Pagination.Total)
	})
}

func TestProductPagination(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("jan@example.com")
	for i := 0; i < 3; i++ {
		h.createProduct(token, productBody(fmt.Sprintf("Item %d", i), fmt.Sprintf("ABC100%d", i)))
	}

	rec, env := h.do(http.MethodGet, "/api/products?limit=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, query.Pagination{Total: 3, Limit: 2, Offset: 0, HasMore: true}, *env.Pagination)

	rec, env = h.do(http.MethodGet, "/api/products?limit=2&offset=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, query.Pagination{Total: 3, Limit: 2, Offset: 2, HasMore: false}, *env.Pagination)

	rec, env = h.do(http.MethodGet, "/api/products?limit=abc&offset=-5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, query.Pagination{Total: 3, Limit: 10, Offset: 0, HasMore: false}, *env.Pagination)
}

func TestAccountEndpoints(t *testing.T) {
	h := newHarness(t)
	id, token := h.register("jan@example.com")

	t.Run("profile", func(t *testing.T) {
		rec, env := h.do(http.MethodGet, "/api/profile", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, string(env.Data), id)
	})
	t.Run("profile update ignores protected fields", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/profile", map[string]any{
			"lastName": "Janssens",
			"email":    "other@example.com",
			"role":     "admin",
		}, token)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, string(env.Data), `"lastName":"Janssens"`)
		require.Contains(t, string(env.Data), `"email":"jan@example.com"`)
		require.Contains(t, string(env.Data), `"role":"user"`)
	})
	t.Run("change password", func(t *testing.T) {
		rec, env := h.do(http.MethodPut, "/api/change-password", map[string]any{"currentPassword": "Wrong1234", "newPassword": "Better123"}, token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Current password is incorrect", env.Message)

		rec, env = h.do(http.MethodPut, "/api/change-password", map[string]any{"currentPassword": "Secret123", "newPassword": "weak"}, token)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.True(t, env.Errors.Has("newPassword"))

		rec, _ = h.do(http.MethodPut, "/api/change-password", map[string]any{"currentPassword": "Secret123", "newPassword": "Better123"}, token)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = h.do(http.MethodPost, "/api/login", map[string]any{"email": "jan@example.com", "password": "Better123"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("logout clears the cookie", func(t *testing.T) {
		rec, _ := h.do(http.MethodPost, "/api/logout", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	})
	t.Run("deactivate", func(t *testing.T) {
		rec, _ := h.do(http.MethodDelete, "/api/deactivate", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := h.do(http.MethodGet, "/api/profile", nil, token)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Account is deactivated", env.Message)

		rec, env = h.do(http.MethodPost, "/api/login", map[string]any{"email": "jan@example.com", "password": "Better123"}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Account is deactivated", env.Message)
	})
}

func TestCookieAuthentication(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("jan@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: helpers.AuthCookie, Value: token})
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitUsesSocketAddress(t *testing.T) {
	newLimited := func(t *testing.T, proxies []string) *harness {
		l, err := middleware.NewRateLimiter("1-M")
		require.NoError(t, err)
		return newHarnessWith(t, func(d *Dependencies) {
			d.Limiter = l
			d.TrustedProxies = proxies
		})
	}
	get := func(h *harness, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("forwarded header from an untrusted peer is ignored", func(t *testing.T) {
		h := newLimited(t, nil)
		require.Equal(t, http.StatusOK, get(h, "1.2.3.0"))
		for i := 1; i < 5; i++ {
			require.Equal(t, http.StatusTooManyRequests, get(h, fmt.Sprintf("1.2.3.%d", i)))
		}
	})
	t.Run("trusted proxy forwards the client address", func(t *testing.T) {
		h := newLimited(t, []string{"10.0.0.0/8"})
		require.Equal(t, http.StatusOK, get(h, "1.2.3.0"))
		require.Equal(t, http.StatusOK, get(h, "1.2.3.1"))
		require.Equal(t, http.StatusTooManyRequests, get(h, "1.2.3.1"))
	})
}

func TestNewRouterRejectsBadProxy(t *testing.T) {
	_, err := NewRouter(Dependencies{TrustedProxies: []string{"not-an-ip"}})
	require.Error(t, err)
}
