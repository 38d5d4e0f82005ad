package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fridge/backend/internal/domain"
	"github.com/jmoiron/sqlx"
)

// ProductRepo persists products in sqlite.
type ProductRepo struct {
	db *sqlx.DB
}

// NewProductRepo creates a product repository.
func NewProductRepo(db *sqlx.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// sortColumns whitelists the sortable fields exposed by the API.
var sortColumns = map[string]string{
	"expiryDate": "expiry_date",
	"createdAt":  "created_at",
	"name":       "name",
	"brand":      "brand",
}

type productRow struct {
	ID            string  `db:"id"`
	UserID        string  `db:"user_id"`
	Name          string  `db:"name"`
	Barcode       *string `db:"barcode"`
	Brand         *string `db:"brand"`
	Manufacturer  *string `db:"manufacturer"`
	ExpiryDate    string  `db:"expiry_date"`
	Quantity      float64 `db:"quantity"`
	CategoryID    *string `db:"category_id"`
	Location      *string `db:"location"`
	Notes         *string `db:"notes"`
	Ingredients   *string `db:"ingredients"`
	Allergens     *string `db:"allergens"`
	NutritionJSON *string `db:"nutrition_json"`
	LabelsJSON    *string `db:"labels_json"`
	CreatedAt     string  `db:"created_at"`
	UpdatedAt     *string `db:"updated_at"`
}

const productColumns = `
  id, user_id, name, barcode, brand, manufacturer, expiry_date, quantity,
  category_id, location, notes, ingredients, allergens,
  nutrition_json, labels_json, created_at, updated_at`

// List returns a user's products with optional name/brand filtering and a
// whitelisted sort column (defaults to expiry date ascending).
func (r *ProductRepo) List(ctx context.Context, userID, sortBy, filter string) ([]domain.Product, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "expiry_date"
	}

	where := `user_id = ?`
	args := []interface{}{userID}
	if filter != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(COALESCE(brand,'')) LIKE ?)`
		pattern := "%" + strings.ToLower(filter) + "%"
		args = append(args, pattern, pattern)
	}

	query := `SELECT` + productColumns + ` FROM products WHERE ` + where + ` ORDER BY ` + column + ` ASC`

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	return r.attachCategories(ctx, userID, rows)
}

// GetByID returns one product owned by the user.
func (r *ProductRepo) GetByID(ctx context.Context, userID, id string) (*domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row,
		`SELECT`+productColumns+` FROM products WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	products, err := r.attachCategories(ctx, userID, []productRow{row})
	if err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetByBarcode returns the user's product carrying the barcode, excluding
// excludeID when non-empty (used by update conflict checks). Returns
// ErrProductNotFound when no such product exists.
func (r *ProductRepo) GetByBarcode(ctx context.Context, userID, barcode, excludeID string) (*domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products WHERE user_id = ? AND barcode = ?`
	args := []interface{}{userID, barcode}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var row productRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	products, err := r.attachCategories(ctx, userID, []productRow{row})
	if err != nil {
		return nil, err
	}
	return &products[0], nil
}

// Create inserts a product and fills its CreatedAt.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	nutritionJSON, labelsJSON, err := encodeJSONFields(p)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
  INSERT INTO products(
    id, user_id, name, barcode, brand, manufacturer, expiry_date, quantity,
    category_id, location, notes, ingredients, allergens,
    nutrition_json, labels_json, created_at, updated_at
  ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.Name, p.Barcode, p.Brand, p.Manufacturer,
		p.ExpiryDate.UTC().Format(time.RFC3339), p.Quantity,
		p.CategoryID, p.Location, p.Notes, p.Ingredients, p.Allergens,
		nutritionJSON, labelsJSON,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	return err
}

// Update rewrites a product owned by the user.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.UpdatedAt = now

	nutritionJSON, labelsJSON, err := encodeJSONFields(p)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
  UPDATE products SET
    name = ?, barcode = ?, brand = ?, manufacturer = ?, expiry_date = ?,
    quantity = ?, category_id = ?, location = ?, notes = ?,
    ingredients = ?, allergens = ?, nutrition_json = ?, labels_json = ?,
    updated_at = ?
  WHERE id = ? AND user_id = ?`,
		p.Name, p.Barcode, p.Brand, p.Manufacturer,
		p.ExpiryDate.UTC().Format(time.RFC3339), p.Quantity,
		p.CategoryID, p.Location, p.Notes, p.Ingredients, p.Allergens,
		nutritionJSON, labelsJSON, now.Format(time.RFC3339),
		p.ID, p.UserID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete removes a product owned by the user.
func (r *ProductRepo) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ExpiringBetween returns products whose expiry date falls in [from, to],
// soonest first.
func (r *ProductRepo) ExpiringBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT`+productColumns+` FROM products
     WHERE user_id = ? AND expiry_date >= ? AND expiry_date <= ?
     ORDER BY expiry_date ASC`,
		userID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return r.attachCategories(ctx, userID, rows)
}

// CountExpiryBetween counts products with expiry date in [from, to].
func (r *ProductRepo) CountExpiryBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM products WHERE user_id = ? AND expiry_date >= ? AND expiry_date <= ?`,
		userID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	return n, err
}

// CountExpiredBefore counts products that expired strictly before the cutoff.
func (r *ProductRepo) CountExpiredBefore(ctx context.Context, userID string, before time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM products WHERE user_id = ? AND expiry_date < ?`,
		userID, before.UTC().Format(time.RFC3339))
	return n, err
}

// attachCategories converts rows and resolves their category relations
// with a single query over the user's categories.
func (r *ProductRepo) attachCategories(ctx context.Context, userID string, rows []productRow) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(rows))
	if len(rows) == 0 {
		return products, nil
	}

	var catRows []categoryRow
	if err := r.db.SelectContext(ctx, &catRows,
		`SELECT id, user_id, name, color, icon, created_at FROM categories WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	categories := make(map[string]domain.Category, len(catRows))
	for _, row := range catRows {
		categories[row.ID] = row.toDomain()
	}

	for _, row := range rows {
		product, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		if product.CategoryID != nil {
			if category, ok := categories[*product.CategoryID]; ok {
				product.Category = &category
			}
		}
		products = append(products, product)
	}
	return products, nil
}

func (row productRow) toDomain() (domain.Product, error) {
	expiry, err := time.Parse(time.RFC3339, row.ExpiryDate)
	if err != nil {
		return domain.Product{}, fmt.Errorf("bad expiry_date for product %s: %w", row.ID, err)
	}

	product := domain.Product{
		ID:           row.ID,
		UserID:       row.UserID,
		Name:         row.Name,
		Barcode:      row.Barcode,
		Brand:        row.Brand,
		Manufacturer: row.Manufacturer,
		ExpiryDate:   expiry,
		Quantity:     row.Quantity,
		CategoryID:   row.CategoryID,
		Location:     row.Location,
		Notes:        row.Notes,
		Ingredients:  row.Ingredients,
		Allergens:    row.Allergens,
		Labels:       []string{},
	}

	if row.NutritionJSON != nil && *row.NutritionJSON != "" {
		if err := json.Unmarshal([]byte(*row.NutritionJSON), &product.NutritionData); err != nil {
			return domain.Product{}, fmt.Errorf("bad nutrition_json for product %s: %w", row.ID, err)
		}
	}
	if row.LabelsJSON != nil && *row.LabelsJSON != "" {
		if err := json.Unmarshal([]byte(*row.LabelsJSON), &product.Labels); err != nil {
			return domain.Product{}, fmt.Errorf("bad labels_json for product %s: %w", row.ID, err)
		}
	}

	if created, err := time.Parse(time.RFC3339, row.CreatedAt); err == nil {
		product.CreatedAt = created
	}
	if row.UpdatedAt != nil {
		if updated, err := time.Parse(time.RFC3339, *row.UpdatedAt); err == nil {
			product.UpdatedAt = updated
		}
	}

	return product, nil
}

func encodeJSONFields(p *domain.Product) (*string, *string, error) {
	var nutritionJSON, labelsJSON *string

	if p.NutritionData != nil {
		data, err := json.Marshal(p.NutritionData)
		if err != nil {
			return nil, nil, err
		}
		s := string(data)
		nutritionJSON = &s
	}

	if p.Labels != nil {
		data, err := json.Marshal(p.Labels)
		if err != nil {
			return nil, nil, err
		}
		s := string(data)
		labelsJSON = &s
	}

	return nutritionJSON, labelsJSON, nil
}
