package httpserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"

	"github.com/Clark-Hu/thrive/internal/costofliving"
	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/rating"
	"github.com/Clark-Hu/thrive/internal/repository"
)

const (
	defaultNearbyPrecision = 4
	defaultNearbyLimit     = 20
)

type costsRequest struct {
	Housing        *float64 `json:"housing" validate:"omitempty,gte=0"`
	Food           *float64 `json:"food" validate:"omitempty,gte=0"`
	Transportation *float64 `json:"transportation" validate:"omitempty,gte=0"`
	Healthcare     *float64 `json:"healthcare" validate:"omitempty,gte=0"`
	Utilities      *float64 `json:"utilities" validate:"omitempty,gte=0"`
}

type scoresRequest struct {
	Safety        *float64 `json:"safety" validate:"omitempty,gte=0,lte=100"`
	Education     *float64 `json:"education" validate:"omitempty,gte=0,lte=100"`
	Healthcare    *float64 `json:"healthcare" validate:"omitempty,gte=0,lte=100"`
	Environment   *float64 `json:"environment" validate:"omitempty,gte=0,lte=100"`
	Walkability   *float64 `json:"walkability" validate:"omitempty,gte=0,lte=100"`
	PublicTransit *float64 `json:"publicTransit" validate:"omitempty,gte=0,lte=100"`
	Traffic       *float64 `json:"traffic" validate:"omitempty,gte=0,lte=100"`
	Bike          *float64 `json:"bike" validate:"omitempty,gte=0,lte=100"`
}

type economicsRequest struct {
	UnemploymentRate *float64 `json:"unemploymentRate" validate:"omitempty,gte=0,lte=100"`
	MedianIncome     *float64 `json:"medianIncome" validate:"omitempty,gte=0"`
	JobGrowthRate    *float64 `json:"jobGrowthRate"`
}

type locationCreateRequest struct {
	City               string           `json:"city" validate:"required,max=100"`
	State              string           `json:"state" validate:"required,max=100"`
	Country            string           `json:"country" validate:"omitempty,max=100"`
	Latitude           *float64         `json:"latitude" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude          *float64         `json:"longitude" validate:"required_with=Latitude,omitempty,longitude"`
	AffordabilityScore *float64         `json:"affordabilityScore" validate:"omitempty,gte=0,lte=100"`
	Costs              costsRequest     `json:"costs"`
	Scores             scoresRequest    `json:"scores"`
	Economics          economicsRequest `json:"economics"`
}

type compareRequest struct {
	LocationIDs []string `json:"locationIds" validate:"required,min=1,max=10,dive,uuid"`
}

type ratingsResponse struct {
	Count          int64   `json:"count"`
	Overall        float64 `json:"overall"`
	Affordability  float64 `json:"affordability"`
	Safety         float64 `json:"safety"`
	Transportation float64 `json:"transportation"`
	Amenities      float64 `json:"amenities"`
}

type locationResponse struct {
	ID                 string               `json:"id"`
	City               string               `json:"city"`
	State              string               `json:"state"`
	Country            string               `json:"country"`
	Latitude           *float64             `json:"latitude,omitempty"`
	Longitude          *float64             `json:"longitude,omitempty"`
	Geohash            *string              `json:"geohash,omitempty"`
	AffordabilityScore *float64             `json:"affordabilityScore,omitempty"`
	Costs              domain.CostBreakdown `json:"costs"`
	Scores             domain.QualityScores `json:"scores"`
	Economics          domain.Economics     `json:"economics"`
	Ratings            ratingsResponse      `json:"ratings"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

type locationListResponse struct {
	Items  []locationResponse `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type nearbyResponse struct {
	Geohash string             `json:"geohash"`
	Items   []locationResponse `json:"items"`
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	filters, err := buildLocationFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.repo.Locations.List(r.Context(), filters)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list locations")
		return
	}

	resp := locationListResponse{
		Items:  toLocationResponses(result.Items),
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func buildLocationFilters(values url.Values) (repository.LocationListFilters, error) {
	var filters repository.LocationListFilters
	if search := strings.TrimSpace(values.Get("search")); search != "" {
		filters.Search = &search
	}

	limit, err := queryInt(values, "limit", 10)
	if err != nil {
		return filters, err
	}
	if limit < 1 || limit > 100 {
		return filters, fmt.Errorf("limit must be between 1 and 100")
	}
	offset, err := queryInt(values, "offset", 0)
	if err != nil {
		return filters, err
	}
	if offset < 0 {
		return filters, fmt.Errorf("offset must be non-negative")
	}
	filters.Limit = limit
	filters.Offset = offset
	return filters, nil
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.uuidParam(w, r, "id")
	if !ok {
		return
	}
	loc, err := s.repo.Locations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.respondInternal(w, r, err, "Failed to fetch location")
		return
	}
	s.respondJSON(w, http.StatusOK, toLocationResponse(loc))
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationCreateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = "USA"
	}
	params := repository.LocationCreateParams{
		City:               strings.TrimSpace(req.City),
		State:              strings.TrimSpace(req.State),
		Country:            country,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		AffordabilityScore: req.AffordabilityScore,
		Costs:              domain.CostBreakdown(req.Costs),
		Scores:             domain.QualityScores(req.Scores),
		Economics:          domain.Economics(req.Economics),
	}
	if req.Latitude != nil && req.Longitude != nil {
		hash := geohash.Encode(*req.Latitude, *req.Longitude)
		params.Geohash = &hash
	}

	loc, err := s.repo.Locations.Create(r.Context(), params)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondError(w, http.StatusConflict, "CONFLICT", "Location already exists")
			return
		}
		s.respondInternal(w, r, err, "Failed to create location")
		return
	}

	loc = s.enrichLocation(r, loc)

	w.Header().Set("Location", "/locations/"+loc.ID)
	s.respondJSON(w, http.StatusCreated, toLocationResponse(loc))
}

// enrichLocation fills metrics the caller left out from the cost-of-living
// service. Failures leave the location as created.
func (s *Server) enrichLocation(r *http.Request, loc domain.Location) domain.Location {
	if s.costOfLiving == nil {
		return loc
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.CostOfLivingTimeoutSecs)*time.Second)
	defer cancel()

	result, err := s.costOfLiving.Fetch(ctx, loc.City, loc.State)
	if err != nil {
		if !errors.Is(err, costofliving.ErrNotFound) {
			s.requestLogger(r).Warn().Err(err).Str("city", loc.City).Msg("cost of living lookup failed")
		}
		return loc
	}

	updated, err := s.repo.Locations.UpdateMetrics(ctx, loc.ID, result.Costs, result.Scores, result.AffordabilityScore)
	if err != nil {
		s.requestLogger(r).Error().Err(err).Str("location_id", loc.ID).Msg("update location metrics failed")
		return loc
	}
	return updated
}

func (s *Server) handleCompareLocations(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	locs, err := s.repo.Locations.GetMany(r.Context(), req.LocationIDs)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to compare locations")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": toLocationResponses(locs)})
}

func (s *Server) handleNearbyLocations(w http.ResponseWriter, r *http.Request) {
	lat, err := parseCoordinate(r, "lat", 90)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	lng, err := parseCoordinate(r, "lng", 180)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	precision, err := queryInt(r.URL.Query(), "precision", defaultNearbyPrecision)
	if err != nil || precision < 1 || precision > 12 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "precision must be an integer between 1 and 12")
		return
	}
	limit, err := queryInt(r.URL.Query(), "limit", defaultNearbyLimit)
	if err != nil || limit < 1 || limit > 100 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be between 1 and 100")
		return
	}

	center := geohash.EncodeWithPrecision(lat, lng, uint(precision))
	prefixes := append([]string{center}, geohash.Neighbors(center)...)

	locs, err := s.repo.Locations.Nearby(r.Context(), prefixes, limit)
	if err != nil {
		s.respondInternal(w, r, err, "Failed to search nearby locations")
		return
	}
	s.respondJSON(w, http.StatusOK, nearbyResponse{Geohash: center, Items: toLocationResponses(locs)})
}

func parseCoordinate(r *http.Request, name string, bound float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < -bound || v > bound {
		return 0, fmt.Errorf("%s must be a number between %v and %v", name, -bound, bound)
	}
	return v, nil
}

// uuidParam reads a UUID path parameter, answering 400 when it is malformed.
func (s *Server) uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("%s must be a valid UUID", name))
		return "", false
	}
	return id.String(), true
}

func toLocationResponse(l domain.Location) locationResponse {
	return locationResponse{
		ID:                 l.ID,
		City:               l.City,
		State:              l.State,
		Country:            l.Country,
		Latitude:           l.Latitude,
		Longitude:          l.Longitude,
		Geohash:            l.Geohash,
		AffordabilityScore: l.AffordabilityScore,
		Costs:              l.Costs,
		Scores:             l.Scores,
		Economics:          l.Economics,
		Ratings:            toRatingsResponse(l.Ratings),
		UpdatedAt:          l.UpdatedAt,
	}
}

func toLocationResponses(locs []domain.Location) []locationResponse {
	out := make([]locationResponse, len(locs))
	for i, l := range locs {
		out[i] = toLocationResponse(l)
	}
	return out
}

func toRatingsResponse(a rating.Aggregate) ratingsResponse {
	return ratingsResponse{
		Count:          a.Count,
		Overall:        roundTo(a.Overall, 1),
		Affordability:  roundTo(a.Affordability, 1),
		Safety:         roundTo(a.Safety, 1),
		Transportation: roundTo(a.Transportation, 1),
		Amenities:      roundTo(a.Amenities, 1),
	}
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}
