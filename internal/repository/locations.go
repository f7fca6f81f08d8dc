package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/rating"
)

// LocationsRepository provides persistence helpers for candidate cities.
type LocationsRepository struct {
	pool *pgxpool.Pool
}

const locationColumns = `
    id::text,
    city,
    state,
    country,
    latitude,
    longitude,
    geohash,
    affordability_score,
    cost_housing,
    cost_food,
    cost_transportation,
    cost_healthcare,
    cost_utilities,
    safety_score,
    education_score,
    healthcare_score,
    environment_score,
    walkability_score,
    public_transit_score,
    traffic_score,
    bike_score,
    unemployment_rate,
    median_income,
    job_growth_rate,
    review_count,
    overall_rating,
    affordability_rating,
    safety_rating,
    transportation_rating,
    amenities_rating,
    created_at,
    updated_at
`

const (
	defaultLocationLimit = 10
	maxLocationLimit     = 100
)

// LocationCreateParams bundles the fields required to create a location.
type LocationCreateParams struct {
	City               string
	State              string
	Country            string
	Latitude           *float64
	Longitude          *float64
	Geohash            *string
	AffordabilityScore *float64
	Costs              domain.CostBreakdown
	Scores             domain.QualityScores
	Economics          domain.Economics
}

// LocationListFilters encapsulates search and pagination options.
type LocationListFilters struct {
	Search *string
	Limit  int
	Offset int
}

// LocationListResult returns one page of locations plus the total match count.
type LocationListResult struct {
	Items  []domain.Location
	Total  int64
	Limit  int
	Offset int
}

// Create inserts a new location row and returns the stored entity.
func (r *LocationsRepository) Create(ctx context.Context, p LocationCreateParams) (domain.Location, error) {
	query := fmt.Sprintf(`
        INSERT INTO locations (
            city, state, country, latitude, longitude, geohash, affordability_score,
            cost_housing, cost_food, cost_transportation, cost_healthcare, cost_utilities,
            safety_score, education_score, healthcare_score, environment_score,
            walkability_score, public_transit_score, traffic_score, bike_score,
            unemployment_rate, median_income, job_growth_rate
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
        RETURNING %s
    `, locationColumns)

	row := r.pool.QueryRow(ctx, query,
		p.City, p.State, p.Country, p.Latitude, p.Longitude, p.Geohash, p.AffordabilityScore,
		p.Costs.Housing, p.Costs.Food, p.Costs.Transportation, p.Costs.Healthcare, p.Costs.Utilities,
		p.Scores.Safety, p.Scores.Education, p.Scores.Healthcare, p.Scores.Environment,
		p.Scores.Walkability, p.Scores.PublicTransit, p.Scores.Traffic, p.Scores.Bike,
		p.Economics.UnemploymentRate, p.Economics.MedianIncome, p.Economics.JobGrowthRate,
	)
	loc, err := scanLocation(row)
	if err != nil {
		return domain.Location{}, translateError(err)
	}
	return loc, nil
}

// GetByID fetches a location by its identifier.
func (r *LocationsRepository) GetByID(ctx context.Context, id string) (domain.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations WHERE id = $1`, locationColumns)
	loc, err := scanLocation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Location{}, ErrNotFound
		}
		return domain.Location{}, translateError(err)
	}
	return loc, nil
}

// List returns locations that match the search term, most affordable first.
func (r *LocationsRepository) List(ctx context.Context, filters LocationListFilters) (LocationListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultLocationLimit
	} else if filters.Limit > maxLocationLimit {
		filters.Limit = maxLocationLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	where := ""
	args := make([]interface{}, 0, 3)
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		args = append(args, "%"+escapeLike(strings.TrimSpace(*filters.Search))+"%")
		where = " WHERE city ILIKE $1 OR state ILIKE $1 OR country ILIKE $1"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM locations`+where, args...).Scan(&total); err != nil {
		return LocationListResult{}, fmt.Errorf("count locations: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM locations%s
        ORDER BY affordability_score DESC NULLS LAST, city ASC, id ASC
        LIMIT %d OFFSET %d`, locationColumns, where, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return LocationListResult{}, err
	}
	items, err := collectLocations(rows)
	if err != nil {
		return LocationListResult{}, err
	}

	return LocationListResult{Items: items, Total: total, Limit: filters.Limit, Offset: filters.Offset}, nil
}

// GetMany fetches the given locations, preserving the order of ids. Unknown ids are skipped.
func (r *LocationsRepository) GetMany(ctx context.Context, ids []string) ([]domain.Location, error) {
	if len(ids) == 0 {
		return []domain.Location{}, nil
	}
	query := fmt.Sprintf(`
        SELECT %s FROM locations
        WHERE id = ANY($1::uuid[])
        ORDER BY array_position($1::uuid[], id)
    `, locationColumns)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, translateError(err)
	}
	return collectLocations(rows)
}

// ListAll returns every location in a stable order, used as the recommendation candidate set.
func (r *LocationsRepository) ListAll(ctx context.Context) ([]domain.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations ORDER BY created_at ASC, id ASC`, locationColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// Nearby returns the locations whose geohash starts with any of prefixes.
func (r *LocationsRepository) Nearby(ctx context.Context, prefixes []string, limit int) ([]domain.Location, error) {
	patterns := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			patterns = append(patterns, escapeLike(p)+"%")
		}
	}
	if len(patterns) == 0 {
		return []domain.Location{}, nil
	}
	if limit <= 0 || limit > maxLocationLimit {
		limit = maxLocationLimit
	}
	query := fmt.Sprintf(`
        SELECT %s FROM locations
        WHERE geohash LIKE ANY($1::text[])
        ORDER BY geohash ASC, id ASC
        LIMIT %d
    `, locationColumns, limit)
	rows, err := r.pool.Query(ctx, query, patterns)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// UpdateMetrics fills cost and quality fields that are currently unset, leaving
// existing values untouched.
func (r *LocationsRepository) UpdateMetrics(ctx context.Context, id string, costs domain.CostBreakdown, scores domain.QualityScores, affordability *float64) (domain.Location, error) {
	query := fmt.Sprintf(`
        UPDATE locations SET
            cost_housing = COALESCE(cost_housing, $2),
            cost_food = COALESCE(cost_food, $3),
            cost_transportation = COALESCE(cost_transportation, $4),
            cost_healthcare = COALESCE(cost_healthcare, $5),
            cost_utilities = COALESCE(cost_utilities, $6),
            safety_score = COALESCE(safety_score, $7),
            healthcare_score = COALESCE(healthcare_score, $8),
            walkability_score = COALESCE(walkability_score, $9),
            public_transit_score = COALESCE(public_transit_score, $10),
            traffic_score = COALESCE(traffic_score, $11),
            affordability_score = COALESCE(affordability_score, $12),
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, locationColumns)

	row := r.pool.QueryRow(ctx, query, id,
		costs.Housing, costs.Food, costs.Transportation, costs.Healthcare, costs.Utilities,
		scores.Safety, scores.Healthcare, scores.Walkability, scores.PublicTransit, scores.Traffic,
		affordability,
	)
	loc, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Location{}, ErrNotFound
		}
		return domain.Location{}, translateError(err)
	}
	return loc, nil
}

// lockAggregate reads the rating aggregate of a location and holds a row lock
// on it until tx ends, so concurrent review mutations apply one after another.
func lockAggregate(ctx context.Context, tx pgx.Tx, locationID string) (rating.Aggregate, error) {
	const query = `
        SELECT review_count, overall_rating, affordability_rating, safety_rating,
               transportation_rating, amenities_rating
        FROM locations
        WHERE id = $1
        FOR UPDATE
    `
	var agg rating.Aggregate
	err := tx.QueryRow(ctx, query, locationID).Scan(
		&agg.Count,
		&agg.Overall,
		&agg.Affordability,
		&agg.Safety,
		&agg.Transportation,
		&agg.Amenities,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rating.Aggregate{}, ErrNotFound
		}
		return rating.Aggregate{}, translateError(err)
	}
	return agg, nil
}

func storeAggregate(ctx context.Context, tx pgx.Tx, locationID string, agg rating.Aggregate) error {
	const query = `
        UPDATE locations SET
            review_count = $2,
            overall_rating = $3,
            affordability_rating = $4,
            safety_rating = $5,
            transportation_rating = $6,
            amenities_rating = $7,
            updated_at = now()
        WHERE id = $1
    `
	tag, err := tx.Exec(ctx, query, locationID,
		agg.Count, agg.Overall, agg.Affordability, agg.Safety, agg.Transportation, agg.Amenities)
	if err != nil {
		return fmt.Errorf("store rating aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectLocations(rows pgx.Rows) ([]domain.Location, error) {
	defer rows.Close()
	items := make([]domain.Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err)
	}
	return items, nil
}

func scanLocation(row pgx.Row) (domain.Location, error) {
	var l domain.Location
	err := row.Scan(
		&l.ID,
		&l.City,
		&l.State,
		&l.Country,
		&l.Latitude,
		&l.Longitude,
		&l.Geohash,
		&l.AffordabilityScore,
		&l.Costs.Housing,
		&l.Costs.Food,
		&l.Costs.Transportation,
		&l.Costs.Healthcare,
		&l.Costs.Utilities,
		&l.Scores.Safety,
		&l.Scores.Education,
		&l.Scores.Healthcare,
		&l.Scores.Environment,
		&l.Scores.Walkability,
		&l.Scores.PublicTransit,
		&l.Scores.Traffic,
		&l.Scores.Bike,
		&l.Economics.UnemploymentRate,
		&l.Economics.MedianIncome,
		&l.Economics.JobGrowthRate,
		&l.Ratings.Count,
		&l.Ratings.Overall,
		&l.Ratings.Affordability,
		&l.Ratings.Safety,
		&l.Ratings.Transportation,
		&l.Ratings.Amenities,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return domain.Location{}, err
	}
	return l, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
