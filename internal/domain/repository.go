package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// LookupTool is the optional local barcode-lookup tool reached over a
// subprocess channel. GetProductByBarcode returns the tool's raw payload;
// normalization happens in one place for all sources.
type LookupTool interface {
	Configured() bool
	GetProductByBarcode(ctx context.Context, barcode string) (map[string]interface{}, error)
	Close() error
}

// FoodFactsClient is the public food-facts REST API. FetchProduct returns
// the raw payload on success and ErrProductNotFound when the API has no
// data (including timeouts, which degrade to not-found).
type FoodFactsClient interface {
	FetchProduct(ctx context.Context, barcode string) (map[string]interface{}, error)
}

// TokenVerifier checks a bearer token with the external identity provider.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*AuthUser, error)
}

// EmailUpdater changes the account email at the identity provider, using
// the caller's own bearer token.
type EmailUpdater interface {
	UpdateEmail(ctx context.Context, token, newEmail string) error
}

// RecipeGenerator produces a structured recipe from a prompt via the
// generative-AI completion endpoint.
type RecipeGenerator interface {
	GenerateRecipe(ctx context.Context, prompt string) (*Recipe, error)
}

// ProductRepository persists a user's products.
type ProductRepository interface {
	List(ctx context.Context, userID, sortBy, filter string) ([]Product, error)
	GetByID(ctx context.Context, userID, id string) (*Product, error)
	GetByBarcode(ctx context.Context, userID, barcode, excludeID string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, userID, id string) error
	ExpiringBetween(ctx context.Context, userID string, from, to time.Time) ([]Product, error)
	CountExpiryBetween(ctx context.Context, userID string, from, to time.Time) (int, error)
	CountExpiredBefore(ctx context.Context, userID string, before time.Time) (int, error)
}

// CategoryRepository persists a user's categories.
type CategoryRepository interface {
	List(ctx context.Context, userID string) ([]Category, error)
	GetByID(ctx context.Context, userID, id string) (*Category, error)
	GetByName(ctx context.Context, userID, name string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Delete(ctx context.Context, userID, id string) error
}

// UserRepository mirrors identity-provider accounts locally.
type UserRepository interface {
	Upsert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateLanguage(ctx context.Context, id, language string) error
	UpdateEmail(ctx context.Context, id, email string) error
}
