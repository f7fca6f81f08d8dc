package domain

import (
	"time"

	"github.com/Clark-Hu/thrive/internal/scoring"
)

// Rental is a rental listing in a city.
type Rental struct {
	ID           string
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
	CreatedAt    time.Time
}

// Metrics exposes the fields the preference scorer reads. Listings only carry
// a price, so every other rule scores as a missing value.
func (r Rental) Metrics() scoring.Metrics {
	return scoring.Metrics{HousingCost: r.MonthlyPrice}
}
