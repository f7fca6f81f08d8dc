// Package mlclient talks to the external affordability and recommendation model service.
package mlclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Clark-Hu/thrive/internal/metrics"
)

const (
	serviceName      = "ml"
	maxResponseBytes = 1 << 20
)

var (
	// ErrUnavailable is returned when the service is not configured, failing,
	// or short-circuited by the breaker.
	ErrUnavailable = errors.New("mlclient: unavailable")
	// ErrNotFound is returned when the service knows nothing about the location or user.
	ErrNotFound = errors.New("mlclient: not found")
)

// Prediction is the service's affordability estimate for one location.
type Prediction struct {
	LocationID         string   `json:"locationId"`
	AffordabilityScore float64  `json:"affordabilityScore"`
	Confidence         *float64 `json:"confidence,omitempty"`
	Model              string   `json:"model,omitempty"`
}

// Recommendation is one location the model suggests for a user.
type Recommendation struct {
	LocationID string  `json:"locationId"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	MatchScore float64 `json:"matchScore"`
}

// Client predicts affordability and suggests locations.
type Client interface {
	Affordability(ctx context.Context, locationID string) (*Prediction, error)
	Recommendations(ctx context.Context, userID string) ([]Recommendation, error)
}

type disabled struct{}

func (disabled) Affordability(context.Context, string) (*Prediction, error) {
	return nil, fmt.Errorf("%w: not configured", ErrUnavailable)
}

func (disabled) Recommendations(context.Context, string) ([]Recommendation, error) {
	return nil, fmt.Errorf("%w: not configured", ErrUnavailable)
}

// HTTPClient implements Client over HTTP. Both endpoints share one breaker.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// New returns an HTTP client for baseURL, or a client that always reports
// ErrUnavailable when baseURL is empty.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) (Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return disabled{}, nil
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ml service url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("ml service url must be absolute: %q", baseURL)
	}

	logger = logger.With().Str("component", "mlclient").Logger()
	c := &HTTPClient{
		baseURL: parsed,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    serviceName,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c, nil
}

// Affordability fetches the prediction for locationID.
func (c *HTTPClient) Affordability(ctx context.Context, locationID string) (*Prediction, error) {
	body, err := c.call(ctx, "location_id", locationID, "affordability", locationID)
	if err != nil {
		return nil, err
	}
	var p Prediction
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode prediction: %v", ErrUnavailable, err)
	}
	if p.LocationID == "" {
		p.LocationID = locationID
	}
	return &p, nil
}

// Recommendations fetches the model's suggested locations for userID.
func (c *HTTPClient) Recommendations(ctx context.Context, userID string) ([]Recommendation, error) {
	body, err := c.call(ctx, "user_id", userID, "recommendations", userID)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Items []Recommendation `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode recommendations: %v", ErrUnavailable, err)
	}
	if payload.Items == nil {
		payload.Items = []Recommendation{}
	}
	return payload.Items, nil
}

func (c *HTTPClient) call(ctx context.Context, logKey, logValue string, path ...string) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path...)
	})
	switch {
	case err == nil:
		metrics.RecordUpstream(serviceName, metrics.OutcomeOK)
		return body, nil
	case errors.Is(err, ErrNotFound):
		metrics.RecordUpstream(serviceName, metrics.OutcomeNotFound)
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordUpstream(serviceName, metrics.OutcomeCircuitOpen)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.RecordUpstream(serviceName, metrics.OutcomeError)
		c.logger.Warn().Err(err).Str(logKey, logValue).Str("endpoint", path[0]).Msg("ml request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (c *HTTPClient) fetch(ctx context.Context, path ...string) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(path...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("ml service returned %d", resp.StatusCode)
	}
}
