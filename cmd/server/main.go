package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fridge/backend/config"
	httpDelivery "github.com/fridge/backend/internal/delivery/http"
	"github.com/fridge/backend/internal/infrastructure/cache"
	"github.com/fridge/backend/internal/infrastructure/lookuptool"
	"github.com/fridge/backend/internal/infrastructure/openai"
	"github.com/fridge/backend/internal/infrastructure/openfoodfacts"
	"github.com/fridge/backend/internal/infrastructure/storage"
	"github.com/fridge/backend/internal/infrastructure/supabase"
	"github.com/fridge/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Fridge Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Storage
	db, err := storage.OpenDB(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	log.Printf("Database: %s", cfg.Database.DSN)

	productRepo := storage.NewProductRepo(db)
	categoryRepo := storage.NewCategoryRepo(db)
	userRepo := storage.NewUserRepo(db)

	// External services
	authClient := supabase.NewAuthClient(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	verdictCache := cache.NewMemoryCache()

	offClient := openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, cfg.OpenFoodFacts.UserAgent, cfg.OpenFoodFacts.Timeout)
	if cfg.Server.Environment == "development" {
		offClient.SetDebug(true)
	}

	toolClient := lookuptool.New(cfg.Lookup.ToolPath, cfg.Lookup.ToolCommand)
	if toolClient.Configured() {
		log.Printf("Local lookup tool configured: %s", cfg.Lookup.ToolPath)
	} else {
		log.Printf("Local lookup tool not configured, using REST API only")
	}
	defer toolClient.Close()

	var recipeService *usecase.RecipeService
	if cfg.OpenAI.APIKey != "" {
		recipeService = usecase.NewRecipeService(openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model))
		log.Printf("Recipe generation configured: model %s", cfg.OpenAI.Model)
	} else {
		recipeService = usecase.NewRecipeService(nil)
		log.Printf("WARNING: OpenAI API key not configured - recipe generation will fail")
	}

	// Usecase layer
	lookupService := usecase.NewLookupService(toolClient, offClient)
	productService := usecase.NewProductService(productRepo, categoryRepo)
	categoryService := usecase.NewCategoryService(categoryRepo)
	settingsService := usecase.NewSettingsService(userRepo, authClient)

	// HTTP delivery
	handler := httpDelivery.NewHandler(
		lookupService,
		productService,
		categoryService,
		settingsService,
		recipeService,
		cfg.Server.Environment != "production",
	)

	auth := httpDelivery.AuthMiddleware(authClient, userRepo, verdictCache, cfg.Cache.AuthTTL)
	router := httpDelivery.SetupRouter(cfg, handler, auth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Shut down cleanly so the lookup tool subprocess is not orphaned
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
