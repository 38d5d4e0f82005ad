package domain

// NutritionFacts holds per-serving (or per-100g/100ml) nutrition values.
// Every field is optional: nil means the source did not report the value,
// which is distinct from a measured zero.
type NutritionFacts struct {
	Calories        *float64 `json:"calories,omitempty"`
	Protein         *float64 `json:"protein,omitempty"`
	Carbs           *float64 `json:"carbs,omitempty"`
	Fat             *float64 `json:"fat,omitempty"`
	Fiber           *float64 `json:"fiber,omitempty"`
	Sugars          *float64 `json:"sugars,omitempty"`
	Salt            *float64 `json:"salt,omitempty"`
	ServingSize     *string  `json:"servingSize,omitempty"`
	ServingQuantity *string  `json:"servingQuantity,omitempty"`
}

// ProductLookupResult is the canonical product record produced by a barcode
// lookup, regardless of which source (local tool or public REST API)
// supplied the data. Barcode always echoes the requested barcode so callers
// can correlate results without trusting the source.
type ProductLookupResult struct {
	Name         string         `json:"name"`
	Brand        *string        `json:"brand,omitempty"`
	Manufacturer *string        `json:"manufacturer,omitempty"`
	Barcode      string         `json:"barcode"`
	Image        *string        `json:"image,omitempty"`
	Ingredients  *string        `json:"ingredients,omitempty"`
	Allergens    *string        `json:"allergens,omitempty"`
	Nutrition    NutritionFacts `json:"nutrition"`
	Labels       []string       `json:"labels"`
	Categories   []string       `json:"categories"`
}

// LookupOptions controls lookup behavior per call.
type LookupOptions struct {
	// RequireLocalTool makes "local tool not configured" a hard
	// configuration error instead of silently degrading to the public
	// REST API. Used by callers that need the tool's richer context.
	RequireLocalTool bool
}
