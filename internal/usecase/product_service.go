package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fridge/backend/internal/domain"
	"github.com/google/uuid"
)

// ProductInput carries the writable product fields. Nil pointers mean
// "leave unset" on create and "do not change" on update.
type ProductInput struct {
	Name          *string                `json:"name"`
	Barcode       *string                `json:"barcode"`
	Brand         *string                `json:"brand"`
	Manufacturer  *string                `json:"manufacturer"`
	ExpiryDate    *string                `json:"expiryDate"`
	Quantity      *float64               `json:"quantity"`
	CategoryID    *string                `json:"categoryId"`
	Location      *string                `json:"location"`
	Notes         *string                `json:"notes"`
	Ingredients   *string                `json:"ingredients"`
	Allergens     *string                `json:"allergens"`
	NutritionData map[string]interface{} `json:"nutritionData"`
	Labels        []string               `json:"labels"`
}

// ProductService implements the inventory operations over the product and
// category repositories, enforcing per-user ownership throughout.
type ProductService struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

// NewProductService creates a product service.
func NewProductService(products domain.ProductRepository, categories domain.CategoryRepository) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
	}
}

// List returns the user's products. sortBy outside the whitelist falls
// back to expiry date; filter matches name or brand case-insensitively.
func (s *ProductService) List(ctx context.Context, userID, sortBy, filter string) ([]domain.Product, error) {
	return s.products.List(ctx, userID, sortBy, filter)
}

// Get returns one product owned by the user.
func (s *ProductService) Get(ctx context.Context, userID, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, userID, id)
}

// GetByBarcode returns the user's own product with this barcode, nil when
// none exists (absence is a normal answer here, not an error).
func (s *ProductService) GetByBarcode(ctx context.Context, userID, barcode string) (*domain.Product, error) {
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}
	product, err := s.products.GetByBarcode(ctx, userID, barcode, "")
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, nil
	}
	return product, err
}

// Create validates and stores a new product. A barcode already present on
// another of the user's products is a conflict, as is a category that
// does not belong to the user.
func (s *ProductService) Create(ctx context.Context, userID string, input ProductInput) (*domain.Product, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if input.ExpiryDate == nil {
		return nil, fmt.Errorf("%w: expiryDate is required", domain.ErrInvalidRequest)
	}
	expiry, err := time.Parse(time.RFC3339, *input.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: expiryDate must be RFC 3339", domain.ErrInvalidRequest)
	}

	quantity := 1.0
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
		}
		quantity = *input.Quantity
	}

	if input.CategoryID != nil && *input.CategoryID != "" {
		if _, err := s.categories.GetByID(ctx, userID, *input.CategoryID); err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return nil, fmt.Errorf("%w: category not found or does not belong to user", domain.ErrInvalidRequest)
			}
			return nil, err
		}
	}

	if input.Barcode != nil && *input.Barcode != "" {
		existing, err := s.products.GetByBarcode(ctx, userID, *input.Barcode, "")
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: product with this barcode already exists", domain.ErrConflict)
		}
	}

	labels := input.Labels
	if labels == nil {
		labels = []string{}
	}

	product := &domain.Product{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          strings.TrimSpace(*input.Name),
		Barcode:       emptyToNil(input.Barcode),
		Brand:         emptyToNil(input.Brand),
		Manufacturer:  emptyToNil(input.Manufacturer),
		ExpiryDate:    expiry,
		Quantity:      quantity,
		CategoryID:    emptyToNil(input.CategoryID),
		Location:      emptyToNil(input.Location),
		Notes:         emptyToNil(input.Notes),
		Ingredients:   emptyToNil(input.Ingredients),
		Allergens:     emptyToNil(input.Allergens),
		NutritionData: input.NutritionData,
		Labels:        labels,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, userID, product.ID)
}

// Update applies the provided fields to a product the user owns.
func (s *ProductService) Update(ctx context.Context, userID, id string, input ProductInput) (*domain.Product, error) {
	existing, err := s.products.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidRequest)
		}
		existing.Name = strings.TrimSpace(*input.Name)
	}
	if input.ExpiryDate != nil {
		expiry, err := time.Parse(time.RFC3339, *input.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: expiryDate must be RFC 3339", domain.ErrInvalidRequest)
		}
		existing.ExpiryDate = expiry
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
		}
		existing.Quantity = *input.Quantity
	}

	if input.CategoryID != nil {
		if *input.CategoryID != "" {
			if _, err := s.categories.GetByID(ctx, userID, *input.CategoryID); err != nil {
				if errors.Is(err, domain.ErrCategoryNotFound) {
					return nil, fmt.Errorf("%w: category not found or does not belong to user", domain.ErrInvalidRequest)
				}
				return nil, err
			}
		}
		existing.CategoryID = emptyToNil(input.CategoryID)
	}

	if input.Barcode != nil {
		barcode := *input.Barcode
		changed := existing.Barcode == nil || *existing.Barcode != barcode
		if barcode != "" && changed {
			other, err := s.products.GetByBarcode(ctx, userID, barcode, id)
			if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
				return nil, err
			}
			if other != nil {
				return nil, fmt.Errorf("%w: product with this barcode already exists", domain.ErrConflict)
			}
		}
		existing.Barcode = emptyToNil(input.Barcode)
	}

	if input.Brand != nil {
		existing.Brand = emptyToNil(input.Brand)
	}
	if input.Manufacturer != nil {
		existing.Manufacturer = emptyToNil(input.Manufacturer)
	}
	if input.Location != nil {
		existing.Location = emptyToNil(input.Location)
	}
	if input.Notes != nil {
		existing.Notes = emptyToNil(input.Notes)
	}
	if input.Ingredients != nil {
		existing.Ingredients = emptyToNil(input.Ingredients)
	}
	if input.Allergens != nil {
		existing.Allergens = emptyToNil(input.Allergens)
	}
	if input.NutritionData != nil {
		existing.NutritionData = input.NutritionData
	}
	if input.Labels != nil {
		existing.Labels = input.Labels
	}

	if err := s.products.Update(ctx, existing); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, userID, id)
}

// Delete removes a product the user owns.
func (s *ProductService) Delete(ctx context.Context, userID, id string) error {
	return s.products.Delete(ctx, userID, id)
}

// ExpiringSoon returns products expiring within the next days (default 3).
func (s *ProductService) ExpiringSoon(ctx context.Context, userID string, days int) ([]domain.Product, error) {
	if days <= 0 {
		days = 3
	}
	now := time.Now()
	return s.products.ExpiringBetween(ctx, userID, now, now.AddDate(0, 0, days))
}

// Stats summarizes expiry state: total expired, expiring within 3 days,
// and an approximation of waste as products that expired during the last
// month.
func (s *ProductService) Stats(ctx context.Context, userID string) (*domain.ProductStats, error) {
	now := time.Now()

	expired, err := s.products.CountExpiredBefore(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	expiringSoon, err := s.products.CountExpiryBetween(ctx, userID, now, now.AddDate(0, 0, 3))
	if err != nil {
		return nil, err
	}
	wasted, err := s.products.CountExpiryBetween(ctx, userID, now.AddDate(0, -1, 0), now)
	if err != nil {
		return nil, err
	}

	return &domain.ProductStats{
		Expired:         expired,
		ExpiringSoon:    expiringSoon,
		WastedLastMonth: wasted,
	}, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
