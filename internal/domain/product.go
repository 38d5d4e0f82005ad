package domain

import "time"

// Product is a perishable item tracked in a user's fridge.
type Product struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId"`
	Name          string                 `json:"name"`
	Barcode       *string                `json:"barcode,omitempty"`
	Brand         *string                `json:"brand,omitempty"`
	Manufacturer  *string                `json:"manufacturer,omitempty"`
	ExpiryDate    time.Time              `json:"expiryDate"`
	Quantity      float64                `json:"quantity"`
	CategoryID    *string                `json:"categoryId,omitempty"`
	Category      *Category              `json:"category,omitempty"`
	Location      *string                `json:"location,omitempty"`
	Notes         *string                `json:"notes,omitempty"`
	Ingredients   *string                `json:"ingredients,omitempty"`
	Allergens     *string                `json:"allergens,omitempty"`
	NutritionData map[string]interface{} `json:"nutritionData,omitempty"`
	Labels        []string               `json:"labels"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Category groups a user's products (e.g. "Dairy", "Frozen").
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Color     *string   `json:"color,omitempty"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// User mirrors the identity-provider account locally so products and
// settings can reference it.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     *string `json:"name,omitempty"`
	Language string  `json:"language"`
}

// AuthUser is the identity provider's view of a verified token.
type AuthUser struct {
	ID    string
	Email string
	Name  string
}

// ProductStats summarizes expiry state across a user's inventory.
type ProductStats struct {
	Expired         int `json:"expired"`
	ExpiringSoon    int `json:"expiringSoon"`
	WastedLastMonth int `json:"wastedLastMonth"`
}

// RecipeIngredient is one ingredient line of a generated recipe.
type RecipeIngredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Recipe is a structured recipe generated from selected products.
type Recipe struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Steps       []string           `json:"steps"`
	CookingTime string             `json:"cookingTime"`
	Servings    int                `json:"servings"`
	Tips        string             `json:"tips,omitempty"`
}
