package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/thrive/internal/domain"
)

// UsersRepository persists user accounts.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id::text, email, name, password_hash, created_at`

// UserCreateParams bundles the fields required to register a user.
type UserCreateParams struct {
	Email        string
	Name         string
	PasswordHash string
}

// Create inserts a user. Emails are stored lower-cased; a duplicate email yields ErrConflict.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	const query = `
        INSERT INTO users (email, name, password_hash)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, normalizeEmail(params.Email), params.Name, params.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, translateError(err)
	}
	return user, nil
}

// GetByEmail looks a user up by email, case-insensitively.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID fetches a user by identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, translateError(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
