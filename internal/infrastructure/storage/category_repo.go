package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fridge/backend/internal/domain"
	"github.com/jmoiron/sqlx"
)

// CategoryRepo persists categories in sqlite.
type CategoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo creates a category repository.
func NewCategoryRepo(db *sqlx.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

type categoryRow struct {
	ID        string  `db:"id"`
	UserID    string  `db:"user_id"`
	Name      string  `db:"name"`
	Color     *string `db:"color"`
	Icon      *string `db:"icon"`
	CreatedAt string  `db:"created_at"`
}

func (row categoryRow) toDomain() domain.Category {
	category := domain.Category{
		ID:     row.ID,
		UserID: row.UserID,
		Name:   row.Name,
		Color:  row.Color,
		Icon:   row.Icon,
	}
	if created, err := time.Parse(time.RFC3339, row.CreatedAt); err == nil {
		category.CreatedAt = created
	}
	return category
}

// List returns the user's categories sorted by name.
func (r *CategoryRepo) List(ctx context.Context, userID string) ([]domain.Category, error) {
	var rows []categoryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, name, color, icon, created_at
     FROM categories WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, row.toDomain())
	}
	return categories, nil
}

// GetByID returns one category owned by the user.
func (r *CategoryRepo) GetByID(ctx context.Context, userID, id string) (*domain.Category, error) {
	var row categoryRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, user_id, name, color, icon, created_at
     FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	category := row.toDomain()
	return &category, nil
}

// GetByName returns the user's category matching name case-insensitively.
func (r *CategoryRepo) GetByName(ctx context.Context, userID, name string) (*domain.Category, error) {
	var row categoryRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, user_id, name, color, icon, created_at
     FROM categories WHERE user_id = ? AND LOWER(name) = LOWER(?)`, userID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	category := row.toDomain()
	return &category, nil
}

// Create inserts a category.
func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	now := time.Now().UTC()
	c.CreatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories(id, user_id, name, color, icon, created_at) VALUES (?,?,?,?,?,?)`,
		c.ID, c.UserID, c.Name, c.Color, c.Icon, now.Format(time.RFC3339))
	return err
}

// Delete removes a category owned by the user.
func (r *CategoryRepo) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
