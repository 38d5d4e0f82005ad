package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridge/backend/internal/domain"
)

func TestCategoryService_CreateAndList(t *testing.T) {
	_, svc := newTestServices(t)
	ctx := context.Background()

	color := "#ff0000"
	created, err := svc.Create(ctx, testUserID, "  Dairy  ", &color, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Dairy", created.Name, "name should be trimmed")
	require.NotNil(t, created.Color)
	assert.Equal(t, "#ff0000", *created.Color)
	assert.Nil(t, created.Icon)

	_, err = svc.Create(ctx, testUserID, "Frozen", nil, nil)
	require.NoError(t, err)

	categories, err := svc.List(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Dairy", categories[0].Name, "sorted by name")
	assert.Equal(t, "Frozen", categories[1].Name)
}

func TestCategoryService_CreateValidation(t *testing.T) {
	_, svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testUserID, "   ", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Create(ctx, testUserID, strings.Repeat("x", 51), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Create(ctx, testUserID, strings.Repeat("x", 50), nil, nil)
	assert.NoError(t, err)
}

func TestCategoryService_DuplicateNameIsCaseInsensitive(t *testing.T) {
	_, svc := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testUserID, "Dairy", nil, nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, testUserID, "dairy", nil, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// A different user can reuse the name.
	_, err = svc.Create(ctx, "other-user", "Dairy", nil, nil)
	assert.NoError(t, err)
}

func TestCategoryService_Delete(t *testing.T) {
	_, svc := newTestServices(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testUserID, "Dairy", nil, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "other-user", created.ID), domain.ErrCategoryNotFound)
	require.NoError(t, svc.Delete(ctx, testUserID, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, testUserID, created.ID), domain.ErrCategoryNotFound)
}

func TestCategoryService_DeleteClearsProductCategory(t *testing.T) {
	products, categories := newTestServices(t)
	ctx := context.Background()

	category, err := categories.Create(ctx, testUserID, "Dairy", nil, nil)
	require.NoError(t, err)

	product, err := products.Create(ctx, testUserID, ProductInput{
		Name:       strPtr("Milk"),
		ExpiryDate: futureExpiry(1),
		CategoryID: &category.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, product.CategoryID)

	require.NoError(t, categories.Delete(ctx, testUserID, category.ID))

	after, err := products.Get(ctx, testUserID, product.ID)
	require.NoError(t, err)
	assert.Nil(t, after.CategoryID, "deleting a category detaches it from products")
	assert.Nil(t, after.Category)
}
