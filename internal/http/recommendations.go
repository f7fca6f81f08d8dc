package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/metrics"
	"github.com/Clark-Hu/thrive/internal/recommend"
	"github.com/Clark-Hu/thrive/internal/repository"
	"github.com/Clark-Hu/thrive/internal/scoring"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	defaultRentalIncome = 50000
	// affordabilityBaseline is the annual income that maps to an affordability score of 5.
	affordabilityBaseline = 50000
)

type profileSummary struct {
	MonthlyIncome        float64 `json:"monthlyIncome"`
	MonthlyHousingBudget float64 `json:"monthlyHousingBudget"`
	RequiresHealthcare   bool    `json:"requiresHealthcare"`
	Transportation       string  `json:"transportation"`
	SafetyImportance     string  `json:"safetyImportance"`
}

type locationRecommendation struct {
	Location  locationResponse  `json:"location"`
	Score     float64           `json:"score"`
	Breakdown scoring.Breakdown `json:"breakdown"`
}

type locationRecommendationsResponse struct {
	Profile    profileSummary           `json:"profile"`
	Items      []locationRecommendation `json:"items"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
	Total      int                      `json:"total"`
	TotalPages int                      `json:"totalPages"`
}

type rentalRecommendationRequest struct {
	City               string   `json:"city" validate:"required,max=100"`
	State              string   `json:"state" validate:"required,max=100"`
	Income             *float64 `json:"income" validate:"omitempty,gt=0"`
	HousingBudget      string   `json:"housingBudget" validate:"omitempty,budget_pref"`
	RequiresHealthcare bool     `json:"requiresHealthcare"`
	Transportation     string   `json:"transportation" validate:"omitempty,transport_pref"`
	SafetyImportance   string   `json:"safetyImportance" validate:"omitempty,safety_pref"`
}

type rentalResponse struct {
	ID           string   `json:"id"`
	ExternalID   *string  `json:"externalId,omitempty"`
	Address      string   `json:"address"`
	Street       *string  `json:"street,omitempty"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zipcode      *string  `json:"zipcode,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	MonthlyPrice *float64 `json:"monthlyPrice,omitempty"`
	Beds         *int     `json:"beds,omitempty"`
	BuildingName *string  `json:"buildingName,omitempty"`
	ImageURL     *string  `json:"imageUrl,omitempty"`
	DetailURL    *string  `json:"detailUrl,omitempty"`
}

type rentalRecommendation struct {
	Rental    rentalResponse    `json:"rental"`
	Score     float64           `json:"score"`
	Breakdown scoring.Breakdown `json:"breakdown"`
}

type rentalRecommendationsResponse struct {
	Profile            profileSummary         `json:"profile"`
	AffordabilityScore float64                `json:"affordabilityScore"`
	Items              []rentalRecommendation `json:"items"`
}

func (s *Server) handleRecommendLocations(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r.URL.Query(), "page", 1)
	if err != nil || page < 1 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "page must be a positive integer")
		return
	}
	pageSize, err := queryInt(r.URL.Query(), "pageSize", defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "pageSize must be between 1 and 100")
		return
	}

	stored, err := s.repo.Profiles.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "PROFILE_REQUIRED", "Complete your profile to get recommendations")
			return
		}
		s.respondInternal(w, r, err, "Failed to load profile")
		return
	}
	profile := scoringProfile(stored)

	candidates, err := s.repo.Locations.ListAll(r.Context())
	if err != nil {
		s.respondInternal(w, r, err, "Failed to load locations")
		return
	}
	metrics.RecordRecommendation("location", len(candidates))

	ranked, err := recommend.Rank(profile, candidates)
	if err != nil {
		s.respondScoringError(w, r, err)
		return
	}
	pageItems, err := recommend.Paginate(ranked, pageSize, page-1)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	items := make([]locationRecommendation, len(pageItems))
	for i, it := range pageItems {
		items[i] = locationRecommendation{
			Location:  toLocationResponse(it.Item),
			Score:     it.Score,
			Breakdown: it.Breakdown,
		}
	}
	s.respondJSON(w, http.StatusOK, locationRecommendationsResponse{
		Profile:    toProfileSummary(profile),
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      len(ranked),
		TotalPages: recommend.PageCount(len(ranked), pageSize),
	})
}

func (s *Server) handleRecommendRentals(w http.ResponseWriter, r *http.Request) {
	var req rentalRecommendationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	req.applyDefaults()

	profile := scoring.NewProfile(
		*req.Income,
		scoring.BudgetPreference(req.HousingBudget),
		req.RequiresHealthcare,
		scoring.TransportationPreference(req.Transportation),
		scoring.SafetyImportance(req.SafetyImportance),
	)

	candidates, err := s.repo.Rentals.List(r.Context(), repository.RentalFilters{
		City:  strings.TrimSpace(req.City),
		State: strings.TrimSpace(req.State),
	})
	if err != nil {
		s.respondInternal(w, r, err, "Failed to load rentals")
		return
	}
	metrics.RecordRecommendation("rental", len(candidates))

	ranked, err := recommend.Rank(profile, candidates)
	if err != nil {
		s.respondScoringError(w, r, err)
		return
	}

	items := make([]rentalRecommendation, len(ranked))
	for i, it := range ranked {
		items[i] = rentalRecommendation{
			Rental:    toRentalResponse(it.Item),
			Score:     it.Score,
			Breakdown: it.Breakdown,
		}
	}
	s.respondJSON(w, http.StatusOK, rentalRecommendationsResponse{
		Profile:            toProfileSummary(profile),
		AffordabilityScore: affordabilityScore(*req.Income),
		Items:              items,
	})
}

func (req *rentalRecommendationRequest) applyDefaults() {
	if req.Income == nil {
		income := float64(defaultRentalIncome)
		req.Income = &income
	}
	if req.HousingBudget == "" {
		req.HousingBudget = string(scoring.BudgetLessThan30)
	}
	if req.Transportation == "" {
		req.Transportation = string(scoring.TransportCar)
	}
	if req.SafetyImportance == "" {
		req.SafetyImportance = string(scoring.SafetySomewhatImportant)
	}
}

// affordabilityScore maps an annual income onto a 1-10 scale.
func affordabilityScore(income float64) float64 {
	score := income / affordabilityBaseline * 5
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return roundTo(score, 2)
}

func (s *Server) respondScoringError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, scoring.ErrInvalidInput) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	s.respondInternal(w, r, err, "Failed to rank candidates")
}

func toProfileSummary(p scoring.Profile) profileSummary {
	return profileSummary{
		MonthlyIncome:        roundTo(p.MonthlyIncome, 2),
		MonthlyHousingBudget: roundTo(p.MonthlyHousingBudget, 2),
		RequiresHealthcare:   p.HealthcareRequired,
		Transportation:       string(p.Transportation),
		SafetyImportance:     string(p.Safety),
	}
}

func toRentalResponse(rt domain.Rental) rentalResponse {
	return rentalResponse{
		ID:           rt.ID,
		ExternalID:   rt.ExternalID,
		Address:      rt.Address,
		Street:       rt.Street,
		City:         rt.City,
		State:        rt.State,
		Zipcode:      rt.Zipcode,
		Latitude:     rt.Latitude,
		Longitude:    rt.Longitude,
		MonthlyPrice: rt.MonthlyPrice,
		Beds:         rt.Beds,
		BuildingName: rt.BuildingName,
		ImageURL:     rt.ImageURL,
		DetailURL:    rt.DetailURL,
	}
}
