package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/metrics"
	"github.com/Clark-Hu/thrive/internal/mlclient"
	"github.com/Clark-Hu/thrive/internal/repository"
)

func (s *Server) handleListRentals(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", repository.MaxRentalResults)
	if err != nil || limit < 1 || limit > repository.MaxRentalResults {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be between 1 and 40")
		return
	}
	q := r.URL.Query()
	rentals, err := s.repo.Rentals.List(r.Context(), repository.RentalFilters{
		City:  strings.TrimSpace(q.Get("city")),
		State: strings.TrimSpace(q.Get("state")),
		Limit: limit,
	})
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list rentals")
		return
	}

	items := make([]rentalResponse, len(rentals))
	for i, rt := range rentals {
		items[i] = toRentalResponse(rt)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleMLAffordability(w http.ResponseWriter, r *http.Request) {
	locationID, ok := s.uuidParam(w, r, "locationId")
	if !ok {
		return
	}

	if s.ml == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Affordability prediction is unavailable")
		return
	}
	prediction, err := s.ml.Affordability(r.Context(), locationID)
	switch {
	case errors.Is(err, mlclient.ErrNotFound):
		s.respondNotFound(w)
	case errors.Is(err, mlclient.ErrUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Affordability prediction is unavailable")
	case err != nil:
		s.respondInternal(w, r, err, "Failed to fetch prediction")
	default:
		s.respondJSON(w, http.StatusOK, prediction)
	}
}

func (s *Server) handleMLRecommendations(w http.ResponseWriter, r *http.Request) {
	if s.ml == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Model recommendations are unavailable")
		return
	}
	items, err := s.ml.Recommendations(r.Context(), auth.UserID(r.Context()))
	switch {
	case errors.Is(err, mlclient.ErrNotFound):
		s.respondNotFound(w)
	case errors.Is(err, mlclient.ErrUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Model recommendations are unavailable")
	case err != nil:
		s.respondInternal(w, r, err, "Failed to fetch recommendations")
	default:
		metrics.RecordRecommendation("ml", len(items))
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
	}
}
