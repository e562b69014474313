package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"backoffice/internal/handlers"
	"backoffice/internal/middleware"
	"backoffice/internal/models"
	"backoffice/internal/repositories"
	"backoffice/internal/services"
	"backoffice/internal/warehouse"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test_jwt_secret"

// cannedRuleSource serves a fixed rule set, standing in for the warehouse.
type cannedRuleSource struct {
	rules []warehouse.AssociationRule
	stats warehouse.Stats
}

func (s *cannedRuleSource) RulesForProduct(ctx context.Context, productID int64, topN int) ([]warehouse.AssociationRule, error) {
	return s.rules, nil
}

func (s *cannedRuleSource) RulesForCart(ctx context.Context, productIDs []int64, topN int) ([]warehouse.AssociationRule, error) {
	return s.rules, nil
}

func (s *cannedRuleSource) Stats(ctx context.Context) (*warehouse.Stats, error) {
	return &s.stats, nil
}

// setupApp builds the full application stack against an in-memory SQLite
// database. Each test gets its own database to keep state isolated.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Client{}, &models.Product{}, &models.Order{}, &models.OrderItem{}, &models.User{}))

	clientRepo := repositories.NewGORMClientRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	clientService := services.NewClientService(clientRepo)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productService, nil)
	authService := services.NewAuthService(userRepo, testJWTSecret)

	source := &cannedRuleSource{
		rules: []warehouse.AssociationRule{
			{RuleID: 1, ConsequentIDs: "20", ConsequentNames: "Filter Paper", Support: 0.12, Confidence: 0.8, Lift: 3.4},
		},
		stats: warehouse.Stats{TotalRules: 42, AvgConfidence: 0.5, AvgLift: 2.0},
	}
	recommendationService := services.NewRecommendationService(productService, source, nil, 0)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewClientHandler(clientService).RegisterRoutes(protectedRoutes)
	handlers.NewProductHandler(productService).RegisterRoutes(protectedRoutes)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protectedRoutes)
	handlers.NewRecommendationHandler(recommendationService).RegisterRoutes(protectedRoutes)

	return app
}

// TestMain suppresses noisy logging during tests.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// loginOperator registers and logs in a fresh operator, returning a JWT.
func loginOperator(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "operator",
		"email":    "operator@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "operator",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// createProduct creates a product through the API and returns it.
func createProduct(t *testing.T, app *fiber.App, token string, payload map[string]interface{}) models.Product {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/products", token, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var product models.Product
	decodeBody(t, resp, &product)
	require.NotEmpty(t, product.ID)
	return product
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	user := map[string]string{
		"username": "operator",
		"email":    "operator@example.com",
		"password": "password123",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", user)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]interface{}
	decodeBody(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])

	// Duplicate registration conflicts.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", user)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password is rejected.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "operator",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "operator",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := setupApp(t)

	for _, target := range []string{
		"/api/v1/clients",
		"/api/v1/products",
		"/api/v1/orders",
		"/api/v1/recommendations/stats",
	} {
		resp := doJSON(t, app, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
		resp.Body.Close()
	}
}

func TestClientCRUD(t *testing.T) {
	app := setupApp(t)
	token := loginOperator(t, app)

	// Create
	resp := doJSON(t, app, http.MethodPost, "/api/v1/clients", token, map[string]interface{}{
		"name":              "Maria Solano",
		"email":             "maria@example.com",
		"gender":            "female",
		"preferred_channel": "web",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Client
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)

	// Invalid gender is rejected by validation.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/clients", token, map[string]interface{}{
		"name":   "Bad Gender",
		"email":  "bad@example.com",
		"gender": "unknown",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Read
	resp = doJSON(t, app, http.MethodGet, "/api/v1/clients/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Client
	decodeBody(t, resp, &fetched)
	assert.Equal(t, "Maria Solano", fetched.Name)

	// Update
	resp = doJSON(t, app, http.MethodPut, "/api/v1/clients/"+created.ID, token, map[string]interface{}{
		"name":              "Maria Solano Vega",
		"email":             "maria@example.com",
		"gender":            "female",
		"preferred_channel": "store",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Client
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Maria Solano Vega", updated.Name)
	assert.Equal(t, "store", updated.PreferredChannel)

	// Delete, then the client is gone.
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/clients/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/clients/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProductCRUD(t *testing.T) {
	app := setupApp(t)
	token := loginOperator(t, app)

	created := createProduct(t, app, token, map[string]interface{}{
		"name":     "Coffee Beans",
		"code":     "PRD-001",
		"category": "groceries",
		"sku":      "SKU-4471",
		"alt_code": "LEGACY-A",
	})
	resp := doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	decodeBody(t, resp, &fetched)
	assert.Equal(t, "PRD-001", fetched.Code)
	// The derived warehouse id rides along on reads.
	if assert.NotNil(t, fetched.WarehouseID) {
		assert.Equal(t, int64(4471), *fetched.WarehouseID)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []models.Product
	decodeBody(t, resp, &all)
	assert.Len(t, all, 1)

	resp = doJSON(t, app, http.MethodPut, "/api/v1/products/"+created.ID, token, map[string]interface{}{
		"name":     "Coffee Beans Dark Roast",
		"code":     "PRD-001",
		"category": "groceries",
		"sku":      "SKU-4471",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Product
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Coffee Beans Dark Roast", updated.Name)

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderLifecycle(t *testing.T) {
	app := setupApp(t)
	token := loginOperator(t, app)

	coffee := createProduct(t, app, token, map[string]interface{}{
		"name": "Coffee Beans", "code": "PRD-001", "category": "groceries", "sku": "SKU-10", "alt_code": "LEGACY-A",
	})
	filters := createProduct(t, app, token, map[string]interface{}{
		"name": "Filter Paper", "code": "PRD-002", "category": "groceries", "sku": "SKU-20",
	})

	resp := doJSON(t, app, http.MethodPost, "/api/v1/clients", token, map[string]interface{}{
		"name": "Maria Solano", "email": "maria@example.com", "gender": "female",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var client models.Client
	decodeBody(t, resp, &client)

	// Create an order mixing every kind of product token.
	orderPayload := map[string]interface{}{
		"client_id": client.ID,
		"channel":   "web",
		"currency":  "CRC",
		"total":     15000,
		"items": []map[string]interface{}{
			{"product": coffee.ID, "quantity": 2, "unit_price": 3500},
			{"product": "PRD-002", "quantity": 1, "unit_price": 1200},
			{"product": "LEGACY-A", "quantity": 1, "unit_price": 3500},
		},
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, orderPayload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Order
	decodeBody(t, resp, &created)
	require.Len(t, created.Items, 3)
	assert.Equal(t, coffee.ID, created.Items[0].ProductID)
	assert.Equal(t, filters.ID, created.Items[1].ProductID)
	assert.Equal(t, coffee.ID, created.Items[2].ProductID)
	assert.Equal(t, int64(15000), created.Total)

	// An unresolvable token rejects the order and names the token.
	badPayload := map[string]interface{}{
		"client_id": client.ID,
		"channel":   "web",
		"currency":  "CRC",
		"total":     100,
		"items": []map[string]interface{}{
			{"product": "NO-SUCH-TOKEN", "quantity": 1, "unit_price": 100},
		},
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, badPayload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp map[string]interface{}
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "NO-SUCH-TOKEN", errResp["token"])

	// CRC has no minor unit, so fractional amounts never parse.
	fractional := map[string]interface{}{
		"client_id": client.ID,
		"channel":   "web",
		"currency":  "CRC",
		"total":     100.5,
		"items": []map[string]interface{}{
			{"product": coffee.ID, "quantity": 1, "unit_price": 100},
		},
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, fractional)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// An unknown channel fails validation.
	invalidChannel := map[string]interface{}{
		"client_id": client.ID,
		"channel":   "phone",
		"currency":  "CRC",
		"total":     100,
		"items": []map[string]interface{}{
			{"product": coffee.ID, "quantity": 1, "unit_price": 100},
		},
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, invalidChannel)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Update replaces the order wholesale.
	replacement := map[string]interface{}{
		"client_id": client.ID,
		"channel":   "store",
		"currency":  "CRC",
		"total":     1200,
		"items": []map[string]interface{}{
			{"product": "SKU-20", "quantity": 1, "unit_price": 1200},
		},
	}
	resp = doJSON(t, app, http.MethodPut, "/api/v1/orders/"+created.ID, token, replacement)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Order
	decodeBody(t, resp, &updated)
	assert.Equal(t, created.ID, updated.ID)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, filters.ID, updated.Items[0].ProductID)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Order
	decodeBody(t, resp, &fetched)
	require.Len(t, fetched.Items, 1, "old items must not survive a replace")
	assert.Equal(t, "store", fetched.Channel)

	// Updating a missing order is a 404, unlike the 400 of a bad token.
	resp = doJSON(t, app, http.MethodPut, "/api/v1/orders/00000000-0000-4000-8000-000000000000", token, replacement)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Delete, then the order is gone.
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/orders/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/orders/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOrderAmbiguousTokenConflicts(t *testing.T) {
	app := setupApp(t)
	token := loginOperator(t, app)

	// Two products share a SKU, making the token ambiguous.
	createProduct(t, app, token, map[string]interface{}{
		"name": "Coffee Beans", "code": "PRD-001", "category": "groceries", "sku": "SHARED",
	})
	createProduct(t, app, token, map[string]interface{}{
		"name": "Decaf Beans", "code": "PRD-099", "category": "groceries", "sku": "SHARED",
	})

	resp := doJSON(t, app, http.MethodPost, "/api/v1/clients", token, map[string]interface{}{
		"name": "Maria Solano", "email": "maria@example.com", "gender": "female",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var client models.Client
	decodeBody(t, resp, &client)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"client_id": client.ID,
		"channel":   "web",
		"currency":  "CRC",
		"total":     3500,
		"items": []map[string]interface{}{
			{"product": "SHARED", "quantity": 1, "unit_price": 3500},
		},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errResp map[string]interface{}
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "SHARED", errResp["token"])
}

func TestRecommendationEndpoints(t *testing.T) {
	app := setupApp(t)
	token := loginOperator(t, app)

	createProduct(t, app, token, map[string]interface{}{
		"name": "Coffee Beans", "code": "PRD-001", "category": "groceries", "sku": "SKU-10",
	})
	// No SKU means no warehouse mapping.
	createProduct(t, app, token, map[string]interface{}{
		"name": "Gift Card", "code": "PRD-GIFT", "category": "misc",
	})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/recommendations/products/PRD-001?top_n=5", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recs services.ProductRecommendations
	decodeBody(t, resp, &recs)
	assert.Equal(t, int64(10), recs.WarehouseID)
	require.Len(t, recs.Rules, 1)
	assert.Equal(t, "Filter Paper", recs.Rules[0].ConsequentNames)

	// A product without a warehouse mapping cannot be recommended for.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/recommendations/products/PRD-GIFT", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// An unknown token is a resolution failure.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/recommendations/products/GHOST", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/recommendations/cart", token, map[string]interface{}{
		"products": []string{"PRD-001"},
		"top_n":    3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cartRecs services.CartRecommendations
	decodeBody(t, resp, &cartRecs)
	assert.Equal(t, []int64{10}, cartRecs.WarehouseIDs)

	// An empty cart is rejected outright.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/recommendations/cart", token, map[string]interface{}{
		"products": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/recommendations/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats warehouse.Stats
	decodeBody(t, resp, &stats)
	assert.Equal(t, int64(42), stats.TotalRules)
}
