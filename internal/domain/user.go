package domain

import "time"

// User is a registered account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile holds the relocation questionnaire answers of a user.
type Profile struct {
	UserID                   string
	Income                   float64
	Savings                  *float64
	HouseholdSize            *int
	HousingPreference        *string
	HousingBudgetPreference  string
	RequiresHealthcare       bool
	TransportationPreference string
	EntertainmentImportance  *string
	NeedsBikeLanes           bool
	SafetyImportance         string
	RelocationTimeframe      *string
	RemoteWork               bool
	Languages                []string
	Amenities                map[string]bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// NotificationPreferences controls which emails a user receives.
type NotificationPreferences struct {
	UserID         string
	PriceChanges   bool
	NewLocations   bool
	ServiceUpdates bool
	WeeklyDigest   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DefaultNotificationPreferences is what a user gets before saving any choice.
func DefaultNotificationPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:         userID,
		PriceChanges:   true,
		NewLocations:   true,
		ServiceUpdates: true,
	}
}
