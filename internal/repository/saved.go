package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/thrive/internal/domain"
)

// SavedRepository tracks the locations a user bookmarked.
type SavedRepository struct {
	pool *pgxpool.Pool
}

// SavedLocation is a bookmarked location with the time it was saved.
type SavedLocation struct {
	Location domain.Location
	SavedAt  time.Time
}

// Save bookmarks a location. Saving the same location twice yields ErrConflict;
// an unknown location yields ErrNotFound.
func (r *SavedRepository) Save(ctx context.Context, userID, locationID string) error {
	const query = `INSERT INTO saved_locations (user_id, location_id) VALUES ($1, $2)`
	if _, err := r.pool.Exec(ctx, query, userID, locationID); err != nil {
		return translateError(err)
	}
	return nil
}

// List returns the user's saved locations, most recently saved first.
func (r *SavedRepository) List(ctx context.Context, userID string) ([]SavedLocation, error) {
	query := fmt.Sprintf(`
        SELECT %s, s.saved_at
        FROM saved_locations s
        JOIN locations l ON l.id = s.location_id
        WHERE s.user_id = $1
        ORDER BY s.saved_at DESC, l.id ASC
    `, qualifiedLocationColumns("l"))

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	items := make([]SavedLocation, 0)
	for rows.Next() {
		var item SavedLocation
		loc, err := scanLocation(&trailingScanner{row: rows, extra: []any{&item.SavedAt}})
		if err != nil {
			return nil, err
		}
		item.Location = loc
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Remove deletes a bookmark. Removing a location that was not saved yields ErrNotFound.
func (r *SavedRepository) Remove(ctx context.Context, userID, locationID string) error {
	const query = `DELETE FROM saved_locations WHERE user_id = $1 AND location_id = $2`
	tag, err := r.pool.Exec(ctx, query, userID, locationID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
