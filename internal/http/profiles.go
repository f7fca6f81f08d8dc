package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/repository"
	"github.com/Clark-Hu/thrive/internal/scoring"
)

type profileRequest struct {
	Income                  float64         `json:"income" validate:"gt=0"`
	Savings                 *float64        `json:"savings" validate:"omitempty,gte=0"`
	HouseholdSize           *int            `json:"householdSize" validate:"omitempty,min=1,max=20"`
	HousingPreference       *string         `json:"housingPreference" validate:"omitempty,max=50"`
	HousingBudget           string          `json:"housingBudget" validate:"required,budget_pref"`
	RequiresHealthcare      bool            `json:"requiresHealthcare"`
	Transportation          string          `json:"transportation" validate:"required,transport_pref"`
	EntertainmentImportance *string         `json:"entertainmentImportance" validate:"omitempty,max=50"`
	NeedsBikeLanes          bool            `json:"needsBikeLanes"`
	SafetyImportance        string          `json:"safetyImportance" validate:"required,safety_pref"`
	RelocationTimeframe     *string         `json:"relocationTimeframe" validate:"omitempty,max=50"`
	RemoteWork              bool            `json:"remoteWork"`
	Languages               []string        `json:"languages" validate:"omitempty,max=20,dive,min=1,max=50"`
	Amenities               map[string]bool `json:"amenities" validate:"omitempty,max=50"`
}

type profileResponse struct {
	Income                  float64         `json:"income"`
	Savings                 *float64        `json:"savings,omitempty"`
	HouseholdSize           *int            `json:"householdSize,omitempty"`
	HousingPreference       *string         `json:"housingPreference,omitempty"`
	HousingBudget           string          `json:"housingBudget"`
	RequiresHealthcare      bool            `json:"requiresHealthcare"`
	Transportation          string          `json:"transportation"`
	EntertainmentImportance *string         `json:"entertainmentImportance,omitempty"`
	NeedsBikeLanes          bool            `json:"needsBikeLanes"`
	SafetyImportance        string          `json:"safetyImportance"`
	RelocationTimeframe     *string         `json:"relocationTimeframe,omitempty"`
	RemoteWork              bool            `json:"remoteWork"`
	Languages               []string        `json:"languages"`
	Amenities               map[string]bool `json:"amenities,omitempty"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.repo.Profiles.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.respondInternal(w, r, err, "Failed to load profile")
		return
	}
	s.respondJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	profile, inserted, err := s.repo.Profiles.Upsert(r.Context(), auth.UserID(r.Context()), repository.ProfileParams{
		Income:                   req.Income,
		Savings:                  req.Savings,
		HouseholdSize:            req.HouseholdSize,
		HousingPreference:        normalizeStringPtr(req.HousingPreference),
		HousingBudgetPreference:  req.HousingBudget,
		RequiresHealthcare:       req.RequiresHealthcare,
		TransportationPreference: req.Transportation,
		EntertainmentImportance:  normalizeStringPtr(req.EntertainmentImportance),
		NeedsBikeLanes:           req.NeedsBikeLanes,
		SafetyImportance:         req.SafetyImportance,
		RelocationTimeframe:      normalizeStringPtr(req.RelocationTimeframe),
		RemoteWork:               req.RemoteWork,
		Languages:                req.Languages,
		Amenities:                req.Amenities,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
			return
		}
		s.respondInternal(w, r, err, "Failed to save profile")
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, toProfileResponse(profile))
}

// scoringProfile derives the scorer's view of a stored questionnaire.
func scoringProfile(p domain.Profile) scoring.Profile {
	return scoring.NewProfile(
		p.Income,
		scoring.BudgetPreference(p.HousingBudgetPreference),
		p.RequiresHealthcare,
		scoring.TransportationPreference(p.TransportationPreference),
		scoring.SafetyImportance(p.SafetyImportance),
	)
}

func toProfileResponse(p domain.Profile) profileResponse {
	languages := p.Languages
	if languages == nil {
		languages = []string{}
	}
	return profileResponse{
		Income:                  p.Income,
		Savings:                 p.Savings,
		HouseholdSize:           p.HouseholdSize,
		HousingPreference:       p.HousingPreference,
		HousingBudget:           p.HousingBudgetPreference,
		RequiresHealthcare:      p.RequiresHealthcare,
		Transportation:          p.TransportationPreference,
		EntertainmentImportance: p.EntertainmentImportance,
		NeedsBikeLanes:          p.NeedsBikeLanes,
		SafetyImportance:        p.SafetyImportance,
		RelocationTimeframe:     p.RelocationTimeframe,
		RemoteWork:              p.RemoteWork,
		Languages:               languages,
		Amenities:               p.Amenities,
		UpdatedAt:               p.UpdatedAt,
	}
}

type notificationRequest struct {
	PriceChanges   *bool `json:"priceChanges" validate:"required"`
	NewLocations   *bool `json:"newLocations" validate:"required"`
	ServiceUpdates *bool `json:"serviceUpdates" validate:"required"`
	WeeklyDigest   *bool `json:"weeklyDigest" validate:"required"`
}

type notificationResponse struct {
	PriceChanges   bool       `json:"priceChanges"`
	NewLocations   bool       `json:"newLocations"`
	ServiceUpdates bool       `json:"serviceUpdates"`
	WeeklyDigest   bool       `json:"weeklyDigest"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	prefs, stored, err := s.repo.Profiles.GetNotifications(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.respondInternal(w, r, err, "Failed to load notification preferences")
		return
	}
	s.respondJSON(w, http.StatusOK, toNotificationResponse(prefs, stored))
}

func (s *Server) handleSaveNotifications(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	prefs, inserted, err := s.repo.Profiles.UpsertNotifications(r.Context(), auth.UserID(r.Context()), repository.NotificationParams{
		PriceChanges:   *req.PriceChanges,
		NewLocations:   *req.NewLocations,
		ServiceUpdates: *req.ServiceUpdates,
		WeeklyDigest:   *req.WeeklyDigest,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
			return
		}
		s.respondInternal(w, r, err, "Failed to save notification preferences")
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, toNotificationResponse(prefs, true))
}

func toNotificationResponse(p domain.NotificationPreferences, stored bool) notificationResponse {
	resp := notificationResponse{
		PriceChanges:   p.PriceChanges,
		NewLocations:   p.NewLocations,
		ServiceUpdates: p.ServiceUpdates,
		WeeklyDigest:   p.WeeklyDigest,
	}
	if stored {
		updated := p.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
