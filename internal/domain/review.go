package domain

import (
	"time"

	"github.com/Clark-Hu/thrive/internal/rating"
)

// Review is one user's written review and ratings of a location.
type Review struct {
	ID         string
	UserID     string
	UserName   string
	LocationID string
	Content    string
	Ratings    rating.Observation
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
