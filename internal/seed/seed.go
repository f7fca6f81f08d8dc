// Package seed loads fixture data (demo users, locations and rental listings)
// into the database. Fixtures are validated against an embedded JSON schema
// before anything is written.
package seed

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/mmcloughlin/geohash"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/repository"
)

//go:embed data/schema.json data/default.json
var dataFS embed.FS

const schemaURL = "thrive://seed/schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := dataFS.ReadFile("data/schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("read seed schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("add seed schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// UserSeed is a demo account. The password is hashed before insert.
type UserSeed struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LocationSeed describes one candidate city.
type LocationSeed struct {
	City               string               `json:"city"`
	State              string               `json:"state"`
	Country            string               `json:"country"`
	Latitude           *float64             `json:"latitude"`
	Longitude          *float64             `json:"longitude"`
	AffordabilityScore *float64             `json:"affordabilityScore"`
	Costs              domain.CostBreakdown `json:"costs"`
	Scores             domain.QualityScores `json:"scores"`
	Economics          domain.Economics     `json:"economics"`
}

// RentalSeed describes one rental listing.
type RentalSeed struct {
	ExternalID   *string  `json:"externalId"`
	Address      string   `json:"address"`
	Street       *string  `json:"street"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zipcode      *string  `json:"zipcode"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	MonthlyPrice *float64 `json:"monthlyPrice"`
	Beds         *int     `json:"beds"`
	BuildingName *string  `json:"buildingName"`
	ImageURL     *string  `json:"imageUrl"`
	DetailURL    *string  `json:"detailUrl"`
}

// Fixture is a full seed document.
type Fixture struct {
	Users     []UserSeed     `json:"users"`
	Locations []LocationSeed `json:"locations"`
	Rentals   []RentalSeed   `json:"rentals"`
}

// Parse validates raw against the seed schema and decodes it.
func Parse(raw []byte) (Fixture, error) {
	sch, err := compiledSchema()
	if err != nil {
		return Fixture{}, err
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Fixture{}, fmt.Errorf("seed fixture is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return Fixture{}, fmt.Errorf("seed fixture failed schema validation: %w", err)
	}

	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode seed fixture: %w", err)
	}
	return f, nil
}

// Default returns the built-in fixture.
func Default() (Fixture, error) {
	raw, err := dataFS.ReadFile("data/default.json")
	if err != nil {
		return Fixture{}, fmt.Errorf("read default fixture: %w", err)
	}
	return Parse(raw)
}

// Summary counts what Apply inserted and skipped.
type Summary struct {
	UsersCreated     int
	UsersSkipped     int
	LocationsCreated int
	LocationsSkipped int
	RentalsUpserted  int
}

// Seeder writes fixtures through the repository layer.
type Seeder struct {
	repo   *repository.Repository
	logger zerolog.Logger
}

// NewSeeder builds a Seeder.
func NewSeeder(repo *repository.Repository, logger zerolog.Logger) *Seeder {
	return &Seeder{repo: repo, logger: logger.With().Str("component", "seed").Logger()}
}

// Apply inserts the fixture. Rows that already exist are skipped, so running
// it twice is harmless; rentals with an external id are updated in place.
func (s *Seeder) Apply(ctx context.Context, f Fixture) (Summary, error) {
	var sum Summary

	for _, u := range f.Users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return sum, err
		}
		_, err = s.repo.Users.Create(ctx, repository.UserCreateParams{
			Email:        u.Email,
			Name:         u.Name,
			PasswordHash: hash,
		})
		switch {
		case errors.Is(err, repository.ErrConflict):
			sum.UsersSkipped++
		case err != nil:
			return sum, fmt.Errorf("seed user %s: %w", u.Email, err)
		default:
			sum.UsersCreated++
		}
	}

	for _, l := range f.Locations {
		params := repository.LocationCreateParams{
			City:               strings.TrimSpace(l.City),
			State:              strings.TrimSpace(l.State),
			Country:            strings.TrimSpace(l.Country),
			Latitude:           l.Latitude,
			Longitude:          l.Longitude,
			AffordabilityScore: l.AffordabilityScore,
			Costs:              l.Costs,
			Scores:             l.Scores,
			Economics:          l.Economics,
		}
		if l.Latitude != nil && l.Longitude != nil {
			hash := geohash.Encode(*l.Latitude, *l.Longitude)
			params.Geohash = &hash
		}
		_, err := s.repo.Locations.Create(ctx, params)
		switch {
		case errors.Is(err, repository.ErrConflict):
			sum.LocationsSkipped++
		case err != nil:
			return sum, fmt.Errorf("seed location %s, %s: %w", l.City, l.State, err)
		default:
			sum.LocationsCreated++
		}
	}

	for _, r := range f.Rentals {
		_, err := s.repo.Rentals.Create(ctx, repository.RentalCreateParams{
			ExternalID:   r.ExternalID,
			Address:      r.Address,
			Street:       r.Street,
			City:         r.City,
			State:        r.State,
			Zipcode:      r.Zipcode,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			MonthlyPrice: r.MonthlyPrice,
			Beds:         r.Beds,
			BuildingName: r.BuildingName,
			ImageURL:     r.ImageURL,
			DetailURL:    r.DetailURL,
		})
		if err != nil {
			return sum, fmt.Errorf("seed rental %s: %w", r.Address, err)
		}
		sum.RentalsUpserted++
	}

	s.logger.Info().
		Int("users_created", sum.UsersCreated).
		Int("users_skipped", sum.UsersSkipped).
		Int("locations_created", sum.LocationsCreated).
		Int("locations_skipped", sum.LocationsSkipped).
		Int("rentals_upserted", sum.RentalsUpserted).
		Msg("seed applied")
	return sum, nil
}
