package http

import (
	"github.com/fridge/backend/config"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, auth gin.HandlerFunc) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Barcode lookup keeps the path the clients already call
	router.GET("/openfoodfacts/barcode", auth, handler.LookupBarcode)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.POST("", handler.CreateProduct)
			products.GET("/expiring", handler.ExpiringSoon)
			products.GET("/stats", handler.ProductStats)
			products.GET("/barcode/:barcode", handler.GetProductByBarcode)
			products.GET("/:id", handler.GetProduct)
			products.PUT("/:id", handler.UpdateProduct)
			products.DELETE("/:id", handler.DeleteProduct)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", handler.ListCategories)
			categories.POST("", handler.CreateCategory)
			categories.DELETE("/:id", handler.DeleteCategory)
		}

		settings := v1.Group("/settings")
		{
			settings.GET("", handler.GetSettings)
			settings.PUT("", handler.UpdateSettings)
			settings.POST("/email", handler.UpdateEmail)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.POST("/generate", handler.GenerateRecipe)
		}
	}

	return router
}
