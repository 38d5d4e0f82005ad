package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fridge/backend/internal/domain"
	"github.com/jmoiron/sqlx"
)

// UserRepo mirrors identity-provider accounts in sqlite.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a user repository.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

type userRow struct {
	ID       string  `db:"id"`
	Email    string  `db:"email"`
	Name     *string `db:"name"`
	Language string  `db:"language"`
}

// Upsert creates the local user row on first sight and refreshes email
// and name on subsequent requests. Language is only set on create so a
// user's preference survives token refreshes.
func (r *UserRepo) Upsert(ctx context.Context, u *domain.User) error {
	if u.Language == "" {
		u.Language = "en"
	}
	_, err := r.db.ExecContext(ctx, `
  INSERT INTO users(id, email, name, language, created_at)
  VALUES (?,?,?,?,?)
  ON CONFLICT(id) DO UPDATE SET
    email = excluded.email,
    name = COALESCE(excluded.name, users.name),
    updated_at = excluded.created_at`,
		u.ID, u.Email, u.Name, u.Language, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetByID returns the local user row.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, email, name, language FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: row.ID, Email: row.Email, Name: row.Name, Language: row.Language}, nil
}

// UpdateLanguage stores the user's language preference.
func (r *UserRepo) UpdateLanguage(ctx context.Context, id, language string) error {
	return r.updateColumn(ctx, id, `language`, language)
}

// UpdateEmail stores the user's new email after the identity provider
// accepted the change.
func (r *UserRepo) UpdateEmail(ctx context.Context, id, email string) error {
	return r.updateColumn(ctx, id, `email`, email)
}

func (r *UserRepo) updateColumn(ctx context.Context, id, column, value string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
