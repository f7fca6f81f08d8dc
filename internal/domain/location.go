package domain

import (
	"time"

	"github.com/Clark-Hu/thrive/internal/rating"
	"github.com/Clark-Hu/thrive/internal/scoring"
)

// CostBreakdown is the monthly cost of living for a location, in USD.
type CostBreakdown struct {
	Housing        *float64 `json:"housing,omitempty"`
	Food           *float64 `json:"food,omitempty"`
	Transportation *float64 `json:"transportation,omitempty"`
	Healthcare     *float64 `json:"healthcare,omitempty"`
	Utilities      *float64 `json:"utilities,omitempty"`
}

// QualityScores are 0-100 quality-of-life indicators.
type QualityScores struct {
	Safety        *float64 `json:"safety,omitempty"`
	Education     *float64 `json:"education,omitempty"`
	Healthcare    *float64 `json:"healthcare,omitempty"`
	Environment   *float64 `json:"environment,omitempty"`
	Walkability   *float64 `json:"walkability,omitempty"`
	PublicTransit *float64 `json:"publicTransit,omitempty"`
	Traffic       *float64 `json:"traffic,omitempty"`
	Bike          *float64 `json:"bike,omitempty"`
}

// Economics holds labour-market figures for a location.
type Economics struct {
	UnemploymentRate *float64 `json:"unemploymentRate,omitempty"`
	MedianIncome     *float64 `json:"medianIncome,omitempty"`
	JobGrowthRate    *float64 `json:"jobGrowthRate,omitempty"`
}

// Location is a candidate city.
type Location struct {
	ID                 string
	City               string
	State              string
	Country            string
	Latitude           *float64
	Longitude          *float64
	Geohash            *string
	AffordabilityScore *float64
	Costs              CostBreakdown
	Scores             QualityScores
	Economics          Economics
	Ratings            rating.Aggregate
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Metrics exposes the fields the preference scorer reads.
func (l Location) Metrics() scoring.Metrics {
	return scoring.Metrics{
		HousingCost:        l.Costs.Housing,
		HealthcareScore:    l.Scores.Healthcare,
		PublicTransitScore: l.Scores.PublicTransit,
		WalkabilityScore:   l.Scores.Walkability,
		TrafficScore:       l.Scores.Traffic,
		SafetyScore:        l.Scores.Safety,
	}
}
