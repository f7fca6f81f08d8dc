package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/thrive/internal/domain"
)

// ProfilesRepository persists the relocation questionnaire of each user.
type ProfilesRepository struct {
	pool *pgxpool.Pool
}

const profileColumns = `
    user_id::text,
    income,
    savings,
    household_size,
    housing_preference,
    housing_budget_preference,
    requires_healthcare,
    transportation_preference,
    entertainment_importance,
    needs_bike_lanes,
    safety_importance,
    relocation_timeframe,
    remote_work,
    languages,
    amenities,
    created_at,
    updated_at
`

// ProfileParams captures the questionnaire answers.
type ProfileParams struct {
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
}

// Upsert creates or replaces a user's profile and reports whether it was newly created.
func (r *ProfilesRepository) Upsert(ctx context.Context, userID string, p ProfileParams) (domain.Profile, bool, error) {
	amenities, err := marshalAmenities(p.Amenities)
	if err != nil {
		return domain.Profile{}, false, err
	}
	languages := p.Languages
	if languages == nil {
		languages = []string{}
	}

	query := fmt.Sprintf(`
        INSERT INTO user_profiles (
            user_id, income, savings, household_size, housing_preference,
            housing_budget_preference, requires_healthcare, transportation_preference,
            entertainment_importance, needs_bike_lanes, safety_importance,
            relocation_timeframe, remote_work, languages, amenities
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (user_id) DO UPDATE SET
            income = EXCLUDED.income,
            savings = EXCLUDED.savings,
            household_size = EXCLUDED.household_size,
            housing_preference = EXCLUDED.housing_preference,
            housing_budget_preference = EXCLUDED.housing_budget_preference,
            requires_healthcare = EXCLUDED.requires_healthcare,
            transportation_preference = EXCLUDED.transportation_preference,
            entertainment_importance = EXCLUDED.entertainment_importance,
            needs_bike_lanes = EXCLUDED.needs_bike_lanes,
            safety_importance = EXCLUDED.safety_importance,
            relocation_timeframe = EXCLUDED.relocation_timeframe,
            remote_work = EXCLUDED.remote_work,
            languages = EXCLUDED.languages,
            amenities = EXCLUDED.amenities,
            updated_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, profileColumns)

	row := r.pool.QueryRow(ctx, query,
		userID, p.Income, p.Savings, p.HouseholdSize, p.HousingPreference,
		p.HousingBudgetPreference, p.RequiresHealthcare, p.TransportationPreference,
		p.EntertainmentImportance, p.NeedsBikeLanes, p.SafetyImportance,
		p.RelocationTimeframe, p.RemoteWork, languages, amenities,
	)

	var inserted bool
	profile, err := scanProfile(&trailingScanner{row: row, extra: []any{&inserted}})
	if err != nil {
		return domain.Profile{}, false, translateError(err)
	}
	return profile, inserted, nil
}

// Get returns the profile of a user.
func (r *ProfilesRepository) Get(ctx context.Context, userID string) (domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_profiles WHERE user_id = $1`, profileColumns)
	profile, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, translateError(err)
	}
	return profile, nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var (
		p             domain.Profile
		amenitiesJSON []byte
	)
	err := row.Scan(
		&p.UserID,
		&p.Income,
		&p.Savings,
		&p.HouseholdSize,
		&p.HousingPreference,
		&p.HousingBudgetPreference,
		&p.RequiresHealthcare,
		&p.TransportationPreference,
		&p.EntertainmentImportance,
		&p.NeedsBikeLanes,
		&p.SafetyImportance,
		&p.RelocationTimeframe,
		&p.RemoteWork,
		&p.Languages,
		&amenitiesJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, err
	}
	if len(amenitiesJSON) > 0 {
		if err := json.Unmarshal(amenitiesJSON, &p.Amenities); err != nil {
			return domain.Profile{}, fmt.Errorf("decode amenities: %w", err)
		}
	}
	return p, nil
}

func marshalAmenities(amenities map[string]bool) ([]byte, error) {
	if amenities == nil {
		return nil, nil
	}
	return json.Marshal(amenities)
}

const notificationColumns = `user_id::text, price_changes, new_locations, service_updates, weekly_digest, created_at, updated_at`

// NotificationParams captures a user's notification choices.
type NotificationParams struct {
	PriceChanges   bool
	NewLocations   bool
	ServiceUpdates bool
	WeeklyDigest   bool
}

// GetNotifications returns the stored notification preferences of a user,
// or the defaults when none were saved. The bool reports whether a row exists.
func (r *ProfilesRepository) GetNotifications(ctx context.Context, userID string) (domain.NotificationPreferences, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_preferences WHERE user_id = $1`, notificationColumns)
	prefs, err := scanNotifications(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultNotificationPreferences(userID), false, nil
		}
		return domain.NotificationPreferences{}, false, translateError(err)
	}
	return prefs, true, nil
}

// UpsertNotifications stores notification preferences and reports whether the row was created.
func (r *ProfilesRepository) UpsertNotifications(ctx context.Context, userID string, p NotificationParams) (domain.NotificationPreferences, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO notification_preferences (user_id, price_changes, new_locations, service_updates, weekly_digest)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE SET
            price_changes = EXCLUDED.price_changes,
            new_locations = EXCLUDED.new_locations,
            service_updates = EXCLUDED.service_updates,
            weekly_digest = EXCLUDED.weekly_digest,
            updated_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, notificationColumns)

	row := r.pool.QueryRow(ctx, query, userID, p.PriceChanges, p.NewLocations, p.ServiceUpdates, p.WeeklyDigest)
	var inserted bool
	prefs, err := scanNotifications(&trailingScanner{row: row, extra: []any{&inserted}})
	if err != nil {
		return domain.NotificationPreferences{}, false, translateError(err)
	}
	return prefs, inserted, nil
}

func scanNotifications(row pgx.Row) (domain.NotificationPreferences, error) {
	var n domain.NotificationPreferences
	err := row.Scan(&n.UserID, &n.PriceChanges, &n.NewLocations, &n.ServiceUpdates, &n.WeeklyDigest, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}
