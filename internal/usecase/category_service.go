package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fridge/backend/internal/domain"
	"github.com/google/uuid"
)

// CategoryService manages a user's product categories.
type CategoryService struct {
	categories domain.CategoryRepository
}

// NewCategoryService creates a category service.
func NewCategoryService(categories domain.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// List returns the user's categories sorted by name.
func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	return s.categories.List(ctx, userID)
}

// Create stores a category. Names are trimmed, limited to 50 characters
// and unique per user case-insensitively.
func (s *CategoryService) Create(ctx context.Context, userID, name string, color, icon *string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if len(name) > 50 {
		return nil, fmt.Errorf("%w: name must be at most 50 characters", domain.ErrInvalidRequest)
	}

	existing, err := s.categories.GetByName(ctx, userID, name)
	if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: category with this name already exists", domain.ErrConflict)
	}

	category := &domain.Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Color:  color,
		Icon:   icon,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category the user owns. Products referencing it keep
// existing with their category cleared by the storage layer.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	return s.categories.Delete(ctx, userID, id)
}
