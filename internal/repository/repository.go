package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/thrive/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("repository: already exists")
	// ErrForbidden indicates the caller does not own the entity it tried to change.
	ErrForbidden = errors.New("repository: not owner")
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users     *UsersRepository
	Profiles  *ProfilesRepository
	Locations *LocationsRepository
	Reviews   *ReviewsRepository
	Saved     *SavedRepository
	Rentals   *RentalsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Users:     &UsersRepository{pool: pool},
		Profiles:  &ProfilesRepository{pool: pool},
		Locations: &LocationsRepository{pool: pool},
		Reviews:   &ReviewsRepository{pool: pool},
		Saved:     &SavedRepository{pool: pool},
		Rentals:   &RentalsRepository{pool: pool},
	}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRep      = "22P02"
)

// translateError maps well-known Postgres error codes onto repository sentinels.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrConflict
	case pgForeignKeyViolation, pgInvalidTextRep:
		return ErrNotFound
	}
	return err
}
