package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridge/backend/config"
	"github.com/fridge/backend/internal/domain"
	"github.com/fridge/backend/internal/infrastructure/cache"
	"github.com/fridge/backend/internal/infrastructure/openfoodfacts"
	"github.com/fridge/backend/internal/infrastructure/storage"
	"github.com/fridge/backend/internal/usecase"
)

const (
	validToken = "valid-test-token"
	authUserID = "auth-user-1"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubVerifier accepts exactly one token.
type stubVerifier struct{}

func (stubVerifier) VerifyToken(ctx context.Context, token string) (*domain.AuthUser, error) {
	if token != validToken {
		return nil, domain.ErrUnauthorized
	}
	return &domain.AuthUser{ID: authUserID, Email: "auth@example.com", Name: "Test User"}, nil
}

func (stubVerifier) UpdateEmail(ctx context.Context, token, newEmail string) error {
	if token != validToken {
		return domain.ErrUnauthorized
	}
	return nil
}

type stubRecipeGenerator struct {
	recipe *domain.Recipe
	err    error
}

func (s *stubRecipeGenerator) GenerateRecipe(ctx context.Context, prompt string) (*domain.Recipe, error) {
	return s.recipe, s.err
}

type fixture struct {
	router *gin.Engine
}

// newFixture builds the full router over an in-memory database and a
// stubbed identity provider. offHandler serves as the public food-facts
// API; offTimeout bounds each lookup request.
func newFixture(t *testing.T, offHandler http.HandlerFunc, offTimeout time.Duration, recipes *usecase.RecipeService) *fixture {
	t.Helper()

	db, err := storage.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	offServer := httptest.NewServer(offHandler)
	t.Cleanup(offServer.Close)

	offClient := openfoodfacts.NewClient(offServer.URL, "fridge-backend-test/1.0", offTimeout)

	if recipes == nil {
		recipes = usecase.NewRecipeService(&stubRecipeGenerator{
			recipe: &domain.Recipe{Name: "Jajecznica", Servings: 2},
		})
	}

	productRepo := storage.NewProductRepo(db)
	categoryRepo := storage.NewCategoryRepo(db)
	userRepo := storage.NewUserRepo(db)

	handler := NewHandler(
		usecase.NewLookupService(nil, offClient),
		usecase.NewProductService(productRepo, categoryRepo),
		usecase.NewCategoryService(categoryRepo),
		usecase.NewSettingsService(userRepo, stubVerifier{}),
		recipes,
		true,
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	auth := AuthMiddleware(stubVerifier{}, userRepo, cache.NewMemoryCache(), time.Minute)
	return &fixture{router: SetupRouter(cfg, handler, auth)}
}

func offFound(productJSON string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": 1, "product": ` + productJSON + `}`))
	}
}

func offNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
	}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, authorized bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestLookupBarcode_Success(t *testing.T) {
	f := newFixture(t, offFound(`{"product_name": "Mleko 2%", "brands": "Łaciate", "nutriments": {"energy-kcal_100g": 60}}`), 5*time.Second, nil)

	w := f.do(t, http.MethodGet, "/openfoodfacts/barcode?barcode=5900259128353", nil, true)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	product, ok := body["product"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Mleko 2%", product["name"])
	assert.Equal(t, "5900259128353", product["barcode"])

	nutrition, ok := product["nutrition"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 60.0, nutrition["calories"])
	assert.Equal(t, "100g", nutrition["servingSize"])
}

func TestLookupBarcode_NotFound(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	w := f.do(t, http.MethodGet, "/openfoodfacts/barcode?barcode=0000000000000", nil, true)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decodeBody(t, w)["error"])
}

func TestLookupBarcode_Unauthorized(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	t.Run("missing header", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/openfoodfacts/barcode?barcode=123", nil, false)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeBody(t, w)["error"])
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/openfoodfacts/barcode?barcode=123", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeBody(t, w)["error"])
	})
}

func TestLookupBarcode_MissingParameter(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	w := f.do(t, http.MethodGet, "/openfoodfacts/barcode", nil, true)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Barcode parameter is required", decodeBody(t, w)["error"])
}

func TestLookupBarcode_SlowUpstreamDegradesToNotFound(t *testing.T) {
	slow := func(w http.ResponseWriter, r *http.Request) { <-r.Context().Done() }

	f := newFixture(t, slow, 50*time.Millisecond, nil)

	start := time.Now()
	w := f.do(t, http.MethodGet, "/openfoodfacts/barcode?barcode=123", nil, true)
	elapsed := time.Since(start)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decodeBody(t, w)["error"])
	assert.Less(t, elapsed, 2*time.Second, "slow upstream must not hold the request")
}

func TestHealthCheck_NoAuthRequired(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	w := f.do(t, http.MethodGet, "/health", nil, false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)
	expiry := time.Now().AddDate(0, 0, 7).UTC().Format(time.RFC3339)

	// Create
	w := f.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":       "Mleko 2%",
		"barcode":    "5900259128353",
		"expiryDate": expiry,
		"quantity":   2,
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody(t, w)["product"].(map[string]interface{})
	productID := created["id"].(string)
	require.NotEmpty(t, productID)

	// List
	w = f.do(t, http.MethodGet, "/api/v1/products", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	products := decodeBody(t, w)["products"].([]interface{})
	assert.Len(t, products, 1)

	// Lookup by own barcode
	w = f.do(t, http.MethodGet, "/api/v1/products/barcode/5900259128353", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeBody(t, w)["product"])

	// Update
	w = f.do(t, http.MethodPut, "/api/v1/products/"+productID, map[string]interface{}{
		"quantity": 1,
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody(t, w)["product"].(map[string]interface{})
	assert.Equal(t, 1.0, updated["quantity"])
	assert.Equal(t, "Mleko 2%", updated["name"])

	// Delete
	w = f.do(t, http.MethodDelete, "/api/v1/products/"+productID, nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/products/"+productID, nil, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decodeBody(t, w)["error"])
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	w := f.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name": "Milk",
	}, true)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProduct_BarcodeConflict(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)
	expiry := time.Now().AddDate(0, 0, 7).UTC().Format(time.RFC3339)

	payload := map[string]interface{}{
		"name":       "Milk",
		"barcode":    "123",
		"expiryDate": expiry,
	}

	w := f.do(t, http.MethodPost, "/api/v1/products", payload, true)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/products", payload, true)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCategoriesOverHTTP(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	w := f.do(t, http.MethodPost, "/api/v1/categories", map[string]interface{}{
		"name": "Dairy",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	category := decodeBody(t, w)["category"].(map[string]interface{})
	categoryID := category["id"].(string)

	w = f.do(t, http.MethodPost, "/api/v1/categories", map[string]interface{}{
		"name": "dairy",
	}, true)
	require.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/categories", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["categories"].([]interface{}), 1)

	w = f.do(t, http.MethodDelete, "/api/v1/categories/"+categoryID, nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/categories/"+categoryID, nil, true)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsOverHTTP(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	w := f.do(t, http.MethodGet, "/api/v1/settings", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "en", decodeBody(t, w)["language"])

	w = f.do(t, http.MethodPut, "/api/v1/settings", map[string]interface{}{
		"language": "pl",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pl", decodeBody(t, w)["language"])

	w = f.do(t, http.MethodPut, "/api/v1/settings", map[string]interface{}{
		"language": "fr",
	}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/settings/email", map[string]interface{}{
		"newEmail": "new@example.com",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
}

func TestGenerateRecipeOverHTTP(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	w := f.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"productIds":   []string{"id-1"},
		"productNames": []string{"jajka", "pomidory"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	recipe := decodeBody(t, w)["recipe"].(map[string]interface{})
	assert.Equal(t, "Jajecznica", recipe["name"])

	w = f.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]interface{}{
		"productIds":   []string{},
		"productNames": []string{"jajka"},
	}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product IDs are required", decodeBody(t, w)["error"])
}

func TestExpiringAndStatsOverHTTP(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	expired := time.Now().AddDate(0, 0, -1).UTC().Format(time.RFC3339)
	soon := time.Now().AddDate(0, 0, 2).UTC().Format(time.RFC3339)
	far := time.Now().AddDate(0, 0, 30).UTC().Format(time.RFC3339)

	for i, expiry := range []string{expired, soon, far} {
		w := f.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
			"name":       []string{"Yogurt", "Milk", "Peas"}[i],
			"expiryDate": expiry,
		}, true)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, http.MethodGet, "/api/v1/products/expiring", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	products := decodeBody(t, w)["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, "Milk", products[0].(map[string]interface{})["name"])

	w = f.do(t, http.MethodGet, "/api/v1/products/expiring?days=0", nil, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/products/stats", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody(t, w)
	assert.Equal(t, 1.0, stats["expired"])
	assert.Equal(t, 1.0, stats["expiringSoon"])
	assert.Equal(t, 1.0, stats["wastedLastMonth"])
}

func TestAPIRoutesRequireAuth(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/products"},
		{http.MethodGet, "/api/v1/categories"},
		{http.MethodGet, "/api/v1/settings"},
		{http.MethodPost, "/api/v1/recipes/generate"},
	}

	for _, p := range paths {
		w := f.do(t, p.method, p.path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, offNotFound(), 5*time.Second, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
