package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fridge/backend/internal/domain"
)

// RecipeService turns a selection of fridge products into a generated
// recipe via the completion endpoint.
type RecipeService struct {
	generator domain.RecipeGenerator
}

// NewRecipeService creates a recipe service. generator may be nil when no
// API key is configured; Generate then fails with a configuration error.
func NewRecipeService(generator domain.RecipeGenerator) *RecipeService {
	return &RecipeService{generator: generator}
}

// Generate builds the culinary prompt from the selected product names and
// asks the model for a structured recipe.
func (s *RecipeService) Generate(ctx context.Context, productIDs, productNames []string) (*domain.Recipe, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("%w: product IDs are required", domain.ErrInvalidRequest)
	}
	if len(productNames) == 0 {
		return nil, fmt.Errorf("%w: product names are required", domain.ErrInvalidRequest)
	}
	if s.generator == nil {
		return nil, fmt.Errorf("recipe generation is not configured")
	}

	recipe, err := s.generator.GenerateRecipe(ctx, buildRecipePrompt(productNames))
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipe: %w", err)
	}
	return recipe, nil
}

// buildRecipePrompt composes the Polish-language culinary prompt used by
// the apps.
func buildRecipePrompt(productNames []string) string {
	productsList := strings.Join(productNames, ", ")
	return `Jesteś asystentem kulinarnym. Tworzysz przepisy z podanych składników. Składniki: ` + productsList + `.
Wymagania:
- użyj wszystkich podanych produktów,
- możesz dodać podstawowe składniki (przyprawy, oleje, jajka, makaron itp.),
- Nie rozbudowuj przepisu bez potrzeby — jeśli z podanych produktów można zrobić proste danie, zaproponuj właśnie taką prostą formę.
- generuj: opis, listę składników z ilościami, kroki przygotowania, typ dania,
- odpowiedzi po polsku.`
}
