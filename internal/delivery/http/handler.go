package http

import (
	"errors"
	"log"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/fridge/backend/internal/domain"
	"github.com/fridge/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookup     *usecase.LookupService
	products   *usecase.ProductService
	categories *usecase.CategoryService
	settings   *usecase.SettingsService
	recipes    *usecase.RecipeService

	// includeStack enables diagnostic stack traces in 500 bodies; never
	// set in production deployments.
	includeStack bool
}

// NewHandler creates a new HTTP handler
func NewHandler(
	lookup *usecase.LookupService,
	products *usecase.ProductService,
	categories *usecase.CategoryService,
	settings *usecase.SettingsService,
	recipes *usecase.RecipeService,
	includeStack bool,
) *Handler {
	return &Handler{
		lookup:       lookup,
		products:     products,
		categories:   categories,
		settings:     settings,
		recipes:      recipes,
		includeStack: includeStack,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fridge-backend",
		"version": "1.0.0",
	})
}

// LookupBarcode handles GET /openfoodfacts/barcode?barcode=...
// Not-found stays a normal answer (404); only transport/configuration
// failures become 500s.
func (h *Handler) LookupBarcode(c *gin.Context) {
	barcode := c.Query("barcode")
	if barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Barcode parameter is required"})
		return
	}

	product, err := h.lookup.LookupBarcode(c.Request.Context(), barcode, domain.LookupOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		log.Printf("[http] barcode lookup failed for %q: %v", barcode, err)
		h.internalError(c, "Failed to fetch product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context(), userID(c), c.Query("sortBy"), c.Query("filter"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GetProductByBarcode handles GET /api/v1/products/barcode/:barcode and
// answers from the user's own inventory. A missing product returns a null
// body member, mirroring "no result" as a normal state.
func (h *Handler) GetProductByBarcode(c *gin.Context) {
	product, err := h.products.GetByBarcode(c.Request.Context(), userID(c), c.Param("barcode"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct handles POST /api/v1/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var input usecase.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	product, err := h.products.Create(c.Request.Context(), userID(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT /api/v1/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	var input usecase.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	product, err := h.products.Update(c.Request.Context(), userID(c), c.Param("id"), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles DELETE /api/v1/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ExpiringSoon handles GET /api/v1/products/expiring?days=3
func (h *Handler) ExpiringSoon(c *gin.Context) {
	days := 3
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	products, err := h.products.ExpiringSoon(c.Request.Context(), userID(c), days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// ProductStats handles GET /api/v1/products/stats
func (h *Handler) ProductStats(c *gin.Context) {
	stats, err := h.products.Stats(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListCategories handles GET /api/v1/categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type createCategoryRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

// CreateCategory handles POST /api/v1/categories
func (h *Handler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	category, err := h.categories.Create(c.Request.Context(), userID(c), req.Name, req.Color, req.Icon)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetSettings handles GET /api/v1/settings
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type updateSettingsRequest struct {
	Language string `json:"language"`
}

// UpdateSettings handles PUT /api/v1/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	settings, err := h.settings.UpdateLanguage(c.Request.Context(), userID(c), req.Language)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type updateEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

// UpdateEmail handles POST /api/v1/settings/email
func (h *Handler) UpdateEmail(c *gin.Context) {
	var req updateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.settings.UpdateEmail(c.Request.Context(), userID(c), bearerToken(c), req.NewEmail); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type generateRecipeRequest struct {
	ProductIDs   []string `json:"productIds"`
	ProductNames []string `json:"productNames"`
}

// GenerateRecipe handles POST /api/v1/recipes/generate
func (h *Handler) GenerateRecipe(c *gin.Context) {
	var req generateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(req.ProductIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product IDs are required"})
		return
	}
	if len(req.ProductNames) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product names are required"})
		return
	}

	recipe, err := h.recipes.Generate(c.Request.Context(), req.ProductIDs, req.ProductNames)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// respondError is the single place mapping the error taxonomy to HTTP
// status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, domain.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("[http] internal error: %v", err)
		h.internalError(c, "Internal server error", err)
	}
}

// internalError writes a 500 body with diagnostic details, attaching a
// stack trace only outside production.
func (h *Handler) internalError(c *gin.Context, message string, err error) {
	body := gin.H{
		"error":   message,
		"details": err.Error(),
	}
	if h.includeStack {
		body["stack"] = string(debug.Stack())
	}
	c.JSON(http.StatusInternalServerError, body)
}

func userID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func bearerToken(c *gin.Context) string {
	return c.GetString(ContextToken)
}
