package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridge/backend/internal/domain"
)

type fakeRecipeGenerator struct {
	recipe    *domain.Recipe
	err       error
	gotPrompt string
}

func (f *fakeRecipeGenerator) GenerateRecipe(ctx context.Context, prompt string) (*domain.Recipe, error) {
	f.gotPrompt = prompt
	return f.recipe, f.err
}

func TestRecipeService_Generate(t *testing.T) {
	gen := &fakeRecipeGenerator{
		recipe: &domain.Recipe{
			Name:        "Jajecznica z pomidorami",
			Description: "Szybkie śniadanie",
			Ingredients: []domain.RecipeIngredient{{Name: "jajka", Amount: "3 szt"}},
			Steps:       []string{"Roztrzep jajka", "Smaż na maśle"},
			Servings:    2,
		},
	}
	svc := NewRecipeService(gen)

	recipe, err := svc.Generate(context.Background(), []string{"id-1", "id-2"}, []string{"jajka", "pomidory"})

	require.NoError(t, err)
	assert.Equal(t, "Jajecznica z pomidorami", recipe.Name)
	assert.Contains(t, gen.gotPrompt, "jajka, pomidory", "prompt lists the selected products")
}

func TestRecipeService_GenerateValidation(t *testing.T) {
	svc := NewRecipeService(&fakeRecipeGenerator{})
	ctx := context.Background()

	_, err := svc.Generate(ctx, nil, []string{"jajka"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Generate(ctx, []string{"id-1"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRecipeService_GenerateWithoutGenerator(t *testing.T) {
	svc := NewRecipeService(nil)

	_, err := svc.Generate(context.Background(), []string{"id-1"}, []string{"jajka"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRecipeService_GenerateFailurePropagates(t *testing.T) {
	gen := &fakeRecipeGenerator{err: errors.New("model unavailable")}
	svc := NewRecipeService(gen)

	_, err := svc.Generate(context.Background(), []string{"id-1"}, []string{"jajka"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}
