// Package scoring computes how well a location or rental matches a user's
// relocation preferences.
//
// The score is the sum of four independent rules:
//
//	budget          30 / 20 / 10 / 0   (cost <= B, <= 1.2B, <= 1.5B, otherwise)
//	healthcare      15 / 10 / 5        (only when required; >= 75, >= 60, otherwise)
//	transportation  15                 (preferred mode's metric >= 70)
//	safety          20 / 10            (very-important >= 80, somewhat-important >= 70)
//
// Scores fall in [0, MaxScore] and only carry meaning relative to each other.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// MaxScore is the highest score any candidate can reach.
const MaxScore = 80

// ErrInvalidInput is returned when a profile cannot be scored against.
var ErrInvalidInput = errors.New("scoring: invalid input")

// BudgetPreference is the share of income a user is willing to spend on housing.
type BudgetPreference string

const (
	BudgetLessThan30 BudgetPreference = "less-than-30"
	Budget30To40     BudgetPreference = "30-40"
	BudgetMoreThan40 BudgetPreference = "more-than-40"
)

// Fraction maps the preference to the fraction of monthly income used as the housing budget.
// Unknown values fall back to the most generous bracket.
func (p BudgetPreference) Fraction() float64 {
	switch p {
	case BudgetLessThan30:
		return 0.25
	case Budget30To40:
		return 0.35
	default:
		return 0.45
	}
}

// TransportationPreference is the user's preferred way of getting around.
type TransportationPreference string

const (
	TransportCar           TransportationPreference = "car"
	TransportPublicTransit TransportationPreference = "public-transit"
	TransportBikeWalking   TransportationPreference = "bike-walking"
)

// SafetyImportance is how much weight the user puts on safety.
type SafetyImportance string

const (
	SafetyVeryImportant     SafetyImportance = "very-important"
	SafetySomewhatImportant SafetyImportance = "somewhat-important"
	SafetyNotImportant      SafetyImportance = "not-important"
)

// Profile is the normalized set of preferences a candidate is scored against.
type Profile struct {
	MonthlyIncome        float64
	MonthlyHousingBudget float64
	HealthcareRequired   bool
	Transportation       TransportationPreference
	Safety               SafetyImportance
}

// NewProfile derives a Profile from an annual income and the raw questionnaire answers.
func NewProfile(annualIncome float64, budget BudgetPreference, healthcare bool, transport TransportationPreference, safety SafetyImportance) Profile {
	monthly := annualIncome / 12
	return Profile{
		MonthlyIncome:        monthly,
		MonthlyHousingBudget: monthly * budget.Fraction(),
		HealthcareRequired:   healthcare,
		Transportation:       transport,
		Safety:               safety,
	}
}

// Validate reports whether the profile can be used for scoring.
func (p Profile) Validate() error {
	b := p.MonthlyHousingBudget
	if math.IsNaN(b) || math.IsInf(b, 0) || b <= 0 {
		return fmt.Errorf("%w: housing budget must be positive, got %v", ErrInvalidInput, b)
	}
	return nil
}

// Metrics are the candidate fields read by the scorer. A nil field is treated
// as missing and fails every threshold that reads it.
type Metrics struct {
	HousingCost        *float64
	HealthcareScore    *float64
	PublicTransitScore *float64
	WalkabilityScore   *float64
	TrafficScore       *float64
	SafetyScore        *float64
}

// Breakdown holds the contribution of each rule.
type Breakdown struct {
	Budget         float64 `json:"budget"`
	Healthcare     float64 `json:"healthcare"`
	Transportation float64 `json:"transportation"`
	Safety         float64 `json:"safety"`
}

// Total sums the rule contributions.
func (b Breakdown) Total() float64 {
	return b.Budget + b.Healthcare + b.Transportation + b.Safety
}

// Score returns the match score for a candidate.
func Score(p Profile, m Metrics) (float64, error) {
	b, err := Explain(p, m)
	if err != nil {
		return 0, err
	}
	return b.Total(), nil
}

// Explain returns the per-rule contributions for a candidate.
func Explain(p Profile, m Metrics) (Breakdown, error) {
	if err := p.Validate(); err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		Budget:         budgetFit(p.MonthlyHousingBudget, m.HousingCost),
		Healthcare:     healthcareFit(p.HealthcareRequired, m.HealthcareScore),
		Transportation: transportationFit(p.Transportation, m),
		Safety:         safetyFit(p.Safety, m.SafetyScore),
	}, nil
}

func budgetFit(budget float64, cost *float64) float64 {
	if cost == nil || math.IsNaN(*cost) {
		return 0
	}
	switch c := *cost; {
	case c <= budget:
		return 30
	case c <= budget*1.2:
		return 20
	case c <= budget*1.5:
		return 10
	default:
		return 0
	}
}

func healthcareFit(required bool, score *float64) float64 {
	if !required {
		return 0
	}
	switch {
	case atLeast(score, 75):
		return 15
	case atLeast(score, 60):
		return 10
	default:
		return 5
	}
}

func transportationFit(pref TransportationPreference, m Metrics) float64 {
	var metric *float64
	switch pref {
	case TransportPublicTransit:
		metric = m.PublicTransitScore
	case TransportBikeWalking:
		metric = m.WalkabilityScore
	case TransportCar:
		metric = m.TrafficScore
	}
	if atLeast(metric, 70) {
		return 15
	}
	return 0
}

func safetyFit(importance SafetyImportance, score *float64) float64 {
	switch {
	case importance == SafetyVeryImportant && atLeast(score, 80):
		return 20
	case importance == SafetySomewhatImportant && atLeast(score, 70):
		return 10
	default:
		return 0
	}
}

func atLeast(v *float64, threshold float64) bool {
	return v != nil && *v >= threshold
}
