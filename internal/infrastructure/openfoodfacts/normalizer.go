package openfoodfacts

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fridge/backend/internal/domain"
)

// The lookup sources disagree on field names: the local tool, the v0 API
// and the v2 API each use slightly different keys. Extraction is therefore
// table-driven: per target field an ordered list of candidate keys, first
// present non-null value wins. Supporting another source shape means
// appending keys, not adding branches.

var (
	nameKeys         = []string{"product_name", "name", "product_name_en"}
	brandKeys        = []string{"brands", "brand"}
	manufacturerKeys = []string{"manufacturers", "manufacturer", "manufacturing_places_tags", "manufacturing_places"}
	imageKeys        = []string{"image_url", "image"}
	ingredientsKeys  = []string{"ingredients_text", "ingredients"}
	labelsKeys       = []string{"labels_tags", "labels"}
	categoriesKeys   = []string{"categories_tags", "categories"}
)

// unitSuffixes is the per-nutrient preference order: per-serving data is
// most actionable for a consumer-facing display, then per-100g, per-100ml,
// and finally the bare unsuffixed field.
var unitSuffixes = []string{"_serving", "_100g", "_100ml", ""}

// nutrientProbes maps Open Food Facts nutriment base keys onto the
// canonical nutrition record.
var nutrientProbes = []struct {
	base   string
	assign func(n *domain.NutritionFacts, v float64)
}{
	{"energy-kcal", func(n *domain.NutritionFacts, v float64) { n.Calories = &v }},
	{"proteins", func(n *domain.NutritionFacts, v float64) { n.Protein = &v }},
	{"carbohydrates", func(n *domain.NutritionFacts, v float64) { n.Carbs = &v }},
	{"fat", func(n *domain.NutritionFacts, v float64) { n.Fat = &v }},
	{"fiber", func(n *domain.NutritionFacts, v float64) { n.Fiber = &v }},
	{"sugars", func(n *domain.NutritionFacts, v float64) { n.Sugars = &v }},
	{"salt", func(n *domain.NutritionFacts, v float64) { n.Salt = &v }},
}

// Normalize maps a raw source payload (local tool or either REST API
// revision) into the canonical lookup result. It is a pure function and
// never fails: missing or malformed fields are omitted from the result.
// The returned Barcode always equals requestedBarcode.
func Normalize(raw map[string]interface{}, requestedBarcode string) *domain.ProductLookupResult {
	product := unwrapProduct(raw)

	result := &domain.ProductLookupResult{
		Name:         firstString(product, nameKeys...),
		Brand:        optString(product, brandKeys...),
		Manufacturer: optString(product, manufacturerKeys...),
		Barcode:      requestedBarcode,
		Image:        optString(product, imageKeys...),
		Ingredients:  optString(product, ingredientsKeys...),
		Allergens:    allergens(product),
		Nutrition:    nutrition(product),
		Labels:       stringSlice(product, labelsKeys...),
		Categories:   stringSlice(product, categoriesKeys...),
	}

	return result
}

// unwrapProduct handles payloads that wrap the product in an envelope
// (the REST API's {"status": 1, "product": {...}} shape).
func unwrapProduct(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return map[string]interface{}{}
	}
	if inner, ok := raw["product"].(map[string]interface{}); ok {
		return inner
	}
	return raw
}

func nutrition(product map[string]interface{}) domain.NutritionFacts {
	facts := domain.NutritionFacts{}

	nutriments, _ := product["nutriments"].(map[string]interface{})

	// caloriesSuffix remembers which unit variant supplied calories so a
	// serving size can be synthesized when the source gives none.
	caloriesSuffix := ""
	for _, probe := range nutrientProbes {
		value, suffix, ok := pickNutrient(nutriments, probe.base)
		if !ok {
			continue
		}
		probe.assign(&facts, value)
		if probe.base == "energy-kcal" {
			caloriesSuffix = suffix
		}
	}

	if size := servingSize(product, caloriesSuffix); size != "" {
		facts.ServingSize = &size
	}
	if qty := servingQuantity(product); qty != "" {
		facts.ServingQuantity = &qty
	}

	return facts
}

// pickNutrient tries the unit suffixes in preference order and returns the
// first present, finite, non-negative value along with the suffix that
// supplied it.
func pickNutrient(nutriments map[string]interface{}, base string) (float64, string, bool) {
	for _, suffix := range unitSuffixes {
		raw, ok := nutriments[base+suffix]
		if !ok || raw == nil {
			continue
		}
		value, ok := toNumber(raw)
		if !ok {
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			continue
		}
		return value, suffix, true
	}
	return 0, "", false
}

// servingSize prefers the source's explicit serving_size string; otherwise
// it synthesizes "100ml"/"100g" when calories came from a per-100ml or
// per-100g field, and stays empty otherwise.
func servingSize(product map[string]interface{}, caloriesSuffix string) string {
	if explicit := firstString(product, "serving_size"); explicit != "" {
		return explicit
	}
	switch caloriesSuffix {
	case "_100ml":
		return "100ml"
	case "_100g":
		return "100g"
	}
	return ""
}

// servingQuantity accepts both the numeric and string encodings the API
// has used over time.
func servingQuantity(product map[string]interface{}) string {
	raw, ok := product["serving_quantity"]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// allergens takes the free-text field when present, else joins the tag list.
func allergens(product map[string]interface{}) *string {
	if s := firstString(product, "allergens"); s != "" {
		return &s
	}
	tags := stringSlice(product, "allergens_tags")
	if len(tags) == 0 {
		return nil
	}
	joined := strings.Join(tags, ", ")
	return &joined
}

// firstString returns the first present non-empty string among the
// candidate keys. A list value contributes its first string element
// (covers manufacturing_places_tags).
func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// optString is firstString for fields that feed persistence: "unset"
// stays nil so the storage layer's own defaulting rules apply.
func optString(m map[string]interface{}, keys ...string) *string {
	s := firstString(m, keys...)
	if s == "" {
		return nil
	}
	return &s
}

// stringSlice always returns a non-nil slice so callers can iterate
// unconditionally. Duplicates from the source are kept as-is.
func stringSlice(m map[string]interface{}, keys ...string) []string {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		list, ok := raw.([]interface{})
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// toNumber accepts the numeric encodings seen across source shapes.
func toNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
