package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/metrics"
	"github.com/Clark-Hu/thrive/internal/rating"
	"github.com/Clark-Hu/thrive/internal/repository"
)

type reviewRatingsRequest struct {
	Overall        float64 `json:"overall" validate:"gte=1,lte=5"`
	Affordability  float64 `json:"affordability" validate:"gte=1,lte=5"`
	Safety         float64 `json:"safety" validate:"gte=1,lte=5"`
	Transportation float64 `json:"transportation" validate:"gte=1,lte=5"`
	Amenities      float64 `json:"amenities" validate:"gte=1,lte=5"`
}

type reviewCreateRequest struct {
	LocationID string               `json:"locationId" validate:"required,uuid"`
	Content    string               `json:"content" validate:"required,max=5000"`
	Ratings    reviewRatingsRequest `json:"ratings"`
}

type reviewUpdateRequest struct {
	Content string               `json:"content" validate:"required,max=5000"`
	Ratings reviewRatingsRequest `json:"ratings"`
}

type reviewRatingsResponse struct {
	Overall        float64 `json:"overall"`
	Affordability  float64 `json:"affordability"`
	Safety         float64 `json:"safety"`
	Transportation float64 `json:"transportation"`
	Amenities      float64 `json:"amenities"`
}

type reviewResponse struct {
	ID         string                `json:"id"`
	LocationID string                `json:"locationId"`
	UserID     string                `json:"userId"`
	UserName   string                `json:"userName"`
	Content    string                `json:"content"`
	Ratings    reviewRatingsResponse `json:"ratings"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

type reviewListResponse struct {
	Items   []reviewResponse `json:"items"`
	Total   int64            `json:"total"`
	Ratings ratingsResponse  `json:"ratings"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type reviewMutationResponse struct {
	Review  *reviewResponse `json:"review,omitempty"`
	Ratings ratingsResponse `json:"ratings"`
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	locationID, ok := s.uuidParam(w, r, "id")
	if !ok {
		return
	}
	limit, err := queryInt(r.URL.Query(), "limit", 20)
	if err != nil || limit < 1 || limit > 100 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be between 1 and 100")
		return
	}
	offset, err := queryInt(r.URL.Query(), "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "offset must be a non-negative integer")
		return
	}

	result, err := s.repo.Reviews.ListByLocation(r.Context(), locationID, limit, offset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.respondInternal(w, r, err, "Failed to list reviews")
		return
	}

	items := make([]reviewResponse, len(result.Items))
	for i, rv := range result.Items {
		items[i] = toReviewResponse(rv)
	}
	s.respondJSON(w, http.StatusOK, reviewListResponse{
		Items:   items,
		Total:   result.Total,
		Ratings: toRatingsResponse(result.Aggregate),
		Limit:   result.Limit,
		Offset:  result.Offset,
	})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewCreateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	mut, err := s.repo.Reviews.Create(r.Context(), auth.UserID(r.Context()), req.LocationID, repository.ReviewParams{
		Content: strings.TrimSpace(req.Content),
		Ratings: rating.Observation(req.Ratings),
	})
	if err != nil {
		s.respondReviewError(w, r, err)
		return
	}

	metrics.RecordReviewMutation(metrics.ReviewCreated)
	resp := toReviewResponse(mut.Review)
	w.Header().Set("Location", fmt.Sprintf("/locations/%s/reviews", mut.Review.LocationID))
	s.respondJSON(w, http.StatusCreated, reviewMutationResponse{Review: &resp, Ratings: toRatingsResponse(mut.Aggregate)})
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := s.uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req reviewUpdateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	mut, err := s.repo.Reviews.Update(r.Context(), auth.UserID(r.Context()), reviewID, repository.ReviewParams{
		Content: strings.TrimSpace(req.Content),
		Ratings: rating.Observation(req.Ratings),
	})
	if err != nil {
		s.respondReviewError(w, r, err)
		return
	}

	metrics.RecordReviewMutation(metrics.ReviewUpdated)
	resp := toReviewResponse(mut.Review)
	s.respondJSON(w, http.StatusOK, reviewMutationResponse{Review: &resp, Ratings: toRatingsResponse(mut.Aggregate)})
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := s.uuidParam(w, r, "id")
	if !ok {
		return
	}

	mut, err := s.repo.Reviews.Delete(r.Context(), auth.UserID(r.Context()), reviewID)
	if err != nil {
		s.respondReviewError(w, r, err)
		return
	}

	metrics.RecordReviewMutation(metrics.ReviewDeleted)
	s.respondJSON(w, http.StatusOK, reviewMutationResponse{Ratings: toRatingsResponse(mut.Aggregate)})
}

func (s *Server) respondReviewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondNotFound(w)
	case errors.Is(err, repository.ErrForbidden):
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Review belongs to another user")
	case errors.Is(err, repository.ErrConflict):
		s.respondError(w, http.StatusConflict, "CONFLICT", "You have already reviewed this location")
	case errors.Is(err, rating.ErrInvalidState):
		// The stored aggregate disagrees with the review table; nothing was written.
		s.requestLogger(r).Error().Err(err).Msg("rating aggregate out of sync")
		s.respondError(w, http.StatusConflict, "INVALID_STATE", "Location ratings are inconsistent")
	default:
		s.respondInternal(w, r, err, "Failed to save review")
	}
}

func toReviewResponse(rv domain.Review) reviewResponse {
	return reviewResponse{
		ID:         rv.ID,
		LocationID: rv.LocationID,
		UserID:     rv.UserID,
		UserName:   rv.UserName,
		Content:    rv.Content,
		Ratings:    reviewRatingsResponse(rv.Ratings),
		CreatedAt:  rv.CreatedAt,
		UpdatedAt:  rv.UpdatedAt,
	}
}
