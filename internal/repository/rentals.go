package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/thrive/internal/domain"
)

// RentalsRepository persists rental listings.
type RentalsRepository struct {
	pool *pgxpool.Pool
}

const rentalColumns = `
    id::text,
    external_id,
    address,
    street,
    city,
    state,
    zipcode,
    latitude,
    longitude,
    monthly_price,
    beds,
    building_name,
    image_url,
    detail_url,
    created_at
`

// MaxRentalResults caps the number of listings returned by List.
const MaxRentalResults = 40

// RentalCreateParams bundles the fields of a rental listing.
type RentalCreateParams struct {
	ExternalID   *string
	Address      string
	Street       *string
	City         string
	State        string
	Zipcode      *string
	Latitude     *float64
	Longitude    *float64
	MonthlyPrice *float64
	Beds         *int
	BuildingName *string
	ImageURL     *string
	DetailURL    *string
}

// RentalFilters narrows a rental search. City matches as a case-insensitive
// substring; State matches exactly after upper-casing.
type RentalFilters struct {
	City  string
	State string
	Limit int
}

// Create inserts a listing. A listing with an ExternalID already present is updated in place.
func (r *RentalsRepository) Create(ctx context.Context, p RentalCreateParams) (domain.Rental, error) {
	query := fmt.Sprintf(`
        INSERT INTO rentals (
            external_id, address, street, city, state, zipcode, latitude, longitude,
            monthly_price, beds, building_name, image_url, detail_url
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (external_id) DO UPDATE SET
            address = EXCLUDED.address,
            monthly_price = EXCLUDED.monthly_price,
            beds = EXCLUDED.beds
        RETURNING %s
    `, rentalColumns)

	row := r.pool.QueryRow(ctx, query,
		p.ExternalID, p.Address, p.Street, p.City, strings.ToUpper(p.State), p.Zipcode,
		p.Latitude, p.Longitude, p.MonthlyPrice, p.Beds, p.BuildingName, p.ImageURL, p.DetailURL,
	)
	rental, err := scanRental(row)
	if err != nil {
		return domain.Rental{}, translateError(err)
	}
	return rental, nil
}

// List returns listings matching the filters in insertion order.
func (r *RentalsRepository) List(ctx context.Context, f RentalFilters) ([]domain.Rental, error) {
	if f.Limit <= 0 || f.Limit > MaxRentalResults {
		f.Limit = MaxRentalResults
	}

	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if city := strings.TrimSpace(f.City); city != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(city))+"%")
		where = append(where, fmt.Sprintf("lower(city) LIKE $%d", len(args)))
	}
	if state := strings.TrimSpace(f.State); state != "" {
		args = append(args, strings.ToUpper(state))
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}

	query := "SELECT " + rentalColumns + " FROM rentals"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT %d", f.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Rental, 0)
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rental)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanRental(row pgx.Row) (domain.Rental, error) {
	var rt domain.Rental
	err := row.Scan(
		&rt.ID,
		&rt.ExternalID,
		&rt.Address,
		&rt.Street,
		&rt.City,
		&rt.State,
		&rt.Zipcode,
		&rt.Latitude,
		&rt.Longitude,
		&rt.MonthlyPrice,
		&rt.Beds,
		&rt.BuildingName,
		&rt.ImageURL,
		&rt.DetailURL,
		&rt.CreatedAt,
	)
	return rt, err
}
