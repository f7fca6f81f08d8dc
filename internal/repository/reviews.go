package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/rating"
	"github.com/Clark-Hu/thrive/internal/store"
)

// ReviewsRepository persists reviews and keeps each location's rating
// aggregate in step with them.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `
    r.id::text,
    r.user_id::text,
    u.name,
    r.location_id::text,
    r.content,
    r.overall_rating,
    r.affordability_rating,
    r.safety_rating,
    r.transportation_rating,
    r.amenities_rating,
    r.created_at,
    r.updated_at
`

const (
	defaultReviewLimit = 10
	maxReviewLimit     = 100
)

// ReviewParams carries the user-supplied part of a review.
type ReviewParams struct {
	Content string
	Ratings rating.Observation
}

// ReviewListResult is one page of reviews for a location.
type ReviewListResult struct {
	Items     []domain.Review
	Total     int64
	Aggregate rating.Aggregate
	Limit     int
	Offset    int
}

// ReviewMutation is the outcome of a create, update or delete.
type ReviewMutation struct {
	Review    domain.Review
	Aggregate rating.Aggregate
}

// ListByLocation returns the newest reviews of a location with the location's aggregate.
func (r *ReviewsRepository) ListByLocation(ctx context.Context, locationID string, limit, offset int) (ReviewListResult, error) {
	if limit <= 0 {
		limit = defaultReviewLimit
	} else if limit > maxReviewLimit {
		limit = maxReviewLimit
	}
	if offset < 0 {
		offset = 0
	}

	const aggQuery = `
        SELECT review_count, overall_rating, affordability_rating, safety_rating,
               transportation_rating, amenities_rating
        FROM locations WHERE id = $1
    `
	var agg rating.Aggregate
	err := r.pool.QueryRow(ctx, aggQuery, locationID).Scan(
		&agg.Count, &agg.Overall, &agg.Affordability, &agg.Safety, &agg.Transportation, &agg.Amenities,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReviewListResult{}, ErrNotFound
		}
		return ReviewListResult{}, translateError(err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE location_id = $1`, locationID).Scan(&total); err != nil {
		return ReviewListResult{}, fmt.Errorf("count reviews: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM reviews r
        JOIN users u ON u.id = r.user_id
        WHERE r.location_id = $1
        ORDER BY r.created_at DESC, r.id DESC
        LIMIT %d OFFSET %d
    `, reviewColumns, limit, offset)
	rows, err := r.pool.Query(ctx, query, locationID)
	if err != nil {
		return ReviewListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return ReviewListResult{}, err
		}
		items = append(items, review)
	}
	if err := rows.Err(); err != nil {
		return ReviewListResult{}, err
	}

	return ReviewListResult{Items: items, Total: total, Aggregate: agg, Limit: limit, Offset: offset}, nil
}

// Get fetches a single review.
func (r *ReviewsRepository) Get(ctx context.Context, reviewID string) (domain.Review, error) {
	return getReview(ctx, r.pool, reviewID, false)
}

// Create stores a review and folds its ratings into the location aggregate in
// one transaction. A second review by the same user yields ErrConflict.
func (r *ReviewsRepository) Create(ctx context.Context, userID, locationID string, p ReviewParams) (ReviewMutation, error) {
	var out ReviewMutation
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		agg, err := lockAggregate(ctx, tx, locationID)
		if err != nil {
			return err
		}

		const insert = `
            INSERT INTO reviews (
                user_id, location_id, content, overall_rating, affordability_rating,
                safety_rating, transportation_rating, amenities_rating
            )
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            RETURNING id::text
        `
		var id string
		o := p.Ratings
		err = tx.QueryRow(ctx, insert, userID, locationID, p.Content,
			o.Overall, o.Affordability, o.Safety, o.Transportation, o.Amenities).Scan(&id)
		if err != nil {
			return translateError(err)
		}

		next := rating.Add(agg, o)
		if err := storeAggregate(ctx, tx, locationID, next); err != nil {
			return err
		}

		review, err := getReview(ctx, tx, id, false)
		if err != nil {
			return err
		}
		out = ReviewMutation{Review: review, Aggregate: next}
		return nil
	})
	if err != nil {
		return ReviewMutation{}, err
	}
	return out, nil
}

// Update replaces the content and ratings of a review owned by userID and
// adjusts the location aggregate accordingly.
func (r *ReviewsRepository) Update(ctx context.Context, userID, reviewID string, p ReviewParams) (ReviewMutation, error) {
	var out ReviewMutation
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		old, err := r.lockOwnedReview(ctx, tx, userID, reviewID)
		if err != nil {
			return err
		}
		agg, err := lockAggregate(ctx, tx, old.LocationID)
		if err != nil {
			return err
		}
		next, err := rating.Edit(agg, old.Ratings, p.Ratings)
		if err != nil {
			return fmt.Errorf("location %s: %w", old.LocationID, err)
		}

		const update = `
            UPDATE reviews SET
                content = $2,
                overall_rating = $3,
                affordability_rating = $4,
                safety_rating = $5,
                transportation_rating = $6,
                amenities_rating = $7,
                updated_at = now()
            WHERE id = $1
        `
		o := p.Ratings
		if _, err := tx.Exec(ctx, update, reviewID, p.Content,
			o.Overall, o.Affordability, o.Safety, o.Transportation, o.Amenities); err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		if err := storeAggregate(ctx, tx, old.LocationID, next); err != nil {
			return err
		}

		review, err := getReview(ctx, tx, reviewID, false)
		if err != nil {
			return err
		}
		out = ReviewMutation{Review: review, Aggregate: next}
		return nil
	})
	if err != nil {
		return ReviewMutation{}, err
	}
	return out, nil
}

// Delete removes a review owned by userID and takes its ratings out of the
// location aggregate.
func (r *ReviewsRepository) Delete(ctx context.Context, userID, reviewID string) (ReviewMutation, error) {
	var out ReviewMutation
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		old, err := r.lockOwnedReview(ctx, tx, userID, reviewID)
		if err != nil {
			return err
		}
		agg, err := lockAggregate(ctx, tx, old.LocationID)
		if err != nil {
			return err
		}
		next, err := rating.Remove(agg, old.Ratings)
		if err != nil {
			return fmt.Errorf("location %s: %w", old.LocationID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if err := storeAggregate(ctx, tx, old.LocationID, next); err != nil {
			return err
		}
		out = ReviewMutation{Review: old, Aggregate: next}
		return nil
	})
	if err != nil {
		return ReviewMutation{}, err
	}
	return out, nil
}

func (r *ReviewsRepository) lockOwnedReview(ctx context.Context, tx pgx.Tx, userID, reviewID string) (domain.Review, error) {
	review, err := getReview(ctx, tx, reviewID, true)
	if err != nil {
		return domain.Review{}, err
	}
	if review.UserID != userID {
		return domain.Review{}, ErrForbidden
	}
	return review, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getReview(ctx context.Context, q querier, reviewID string, forUpdate bool) (domain.Review, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM reviews r
        JOIN users u ON u.id = r.user_id
        WHERE r.id = $1
    `, reviewColumns)
	if forUpdate {
		query += " FOR UPDATE OF r"
	}
	review, err := scanReview(q.QueryRow(ctx, query, reviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, translateError(err)
	}
	return review, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.UserName,
		&rv.LocationID,
		&rv.Content,
		&rv.Ratings.Overall,
		&rv.Ratings.Affordability,
		&rv.Ratings.Safety,
		&rv.Ratings.Transportation,
		&rv.Ratings.Amenities,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	return rv, err
}
