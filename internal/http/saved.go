package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/repository"
)

type saveLocationRequest struct {
	LocationID string `json:"locationId" validate:"required,uuid"`
}

type savedLocationResponse struct {
	Location locationResponse `json:"location"`
	SavedAt  time.Time        `json:"savedAt"`
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := s.repo.Saved.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.respondInternal(w, r, err, "Failed to list saved locations")
		return
	}
	items := make([]savedLocationResponse, len(saved))
	for i, sl := range saved {
		items[i] = savedLocationResponse{Location: toLocationResponse(sl.Location), SavedAt: sl.SavedAt}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleSaveLocation(w http.ResponseWriter, r *http.Request) {
	var req saveLocationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	err := s.repo.Saved.Save(r.Context(), auth.UserID(r.Context()), req.LocationID)
	switch {
	case errors.Is(err, repository.ErrConflict):
		s.respondError(w, http.StatusConflict, "CONFLICT", "Location already saved")
	case errors.Is(err, repository.ErrNotFound):
		s.respondNotFound(w)
	case err != nil:
		s.respondInternal(w, r, err, "Failed to save location")
	default:
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *Server) handleRemoveSaved(w http.ResponseWriter, r *http.Request) {
	locationID, ok := s.uuidParam(w, r, "locationId")
	if !ok {
		return
	}
	err := s.repo.Saved.Remove(r.Context(), auth.UserID(r.Context()), locationID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondNotFound(w)
	case err != nil:
		s.respondInternal(w, r, err, "Failed to remove saved location")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
