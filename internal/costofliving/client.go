package costofliving

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Clark-Hu/thrive/internal/domain"
	"github.com/Clark-Hu/thrive/internal/metrics"
)

const serviceName = "costofliving"

var (
	// ErrNotFound is returned when upstream has no data for the requested city.
	ErrNotFound = errors.New("costofliving: not found")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("costofliving: unavailable")
)

// Result contains the data used to enrich a location record.
type Result struct {
	Costs              domain.CostBreakdown
	Scores             domain.QualityScores
	AffordabilityScore *float64
	Source             string
	LastUpdated        time.Time
}

// Client defines the contract for querying the upstream cost-of-living API.
type Client interface {
	Fetch(ctx context.Context, city, state string) (*Result, error)
}

// BreakerSettings tunes the circuit breaker around upstream calls.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Result]
	logger  zerolog.Logger
}

// NewHTTPClient constructs a new HTTP-backed cost-of-living client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, bs BreakerSettings, logger zerolog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cost of living url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("cost of living url must be absolute: %q", baseURL)
	}
	if bs.FailureThreshold == 0 {
		bs.FailureThreshold = 5
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}

	logger = logger.With().Str("component", serviceName).Logger()
	c := &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:    serviceName,
		Timeout: bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.FailureThreshold
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

// Fetch retrieves cost-of-living information for a city.
func (c *HTTPClient) Fetch(ctx context.Context, city, state string) (*Result, error) {
	result, err := c.breaker.Execute(func() (*Result, error) {
		return c.fetch(ctx, city, state)
	})
	switch {
	case err == nil:
		metrics.RecordUpstream(serviceName, metrics.OutcomeOK)
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordUpstream(serviceName, metrics.OutcomeCircuitOpen)
		return nil, ErrUnavailable
	case errors.Is(err, ErrNotFound):
		metrics.RecordUpstream(serviceName, metrics.OutcomeNotFound)
		return nil, err
	default:
		metrics.RecordUpstream(serviceName, metrics.OutcomeError)
		return nil, err
	}
}

func (c *HTTPClient) fetch(ctx context.Context, city, state string) (*Result, error) {
	rel := &url.URL{Path: "/costofliving"}
	q := rel.Query()
	q.Set("city", city)
	q.Set("state", state)
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode cost of living response: %w", err)
		}
		return convertToResult(payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn().Int("status", resp.StatusCode).Str("city", city).Str("state", state).Msg("unexpected upstream status")
		return nil, fmt.Errorf("costofliving: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	City               string        `json:"city"`
	State              string        `json:"state"`
	Costs              costsPayload  `json:"costs"`
	Scores             scoresPayload `json:"scores"`
	AffordabilityScore *float64      `json:"affordabilityScore"`
	Source             *string       `json:"source"`
	LastUpdated        *time.Time    `json:"lastUpdated"`
}

type costsPayload struct {
	Housing        *float64 `json:"housing"`
	Food           *float64 `json:"food"`
	Transportation *float64 `json:"transportation"`
	Healthcare     *float64 `json:"healthcare"`
	Utilities      *float64 `json:"utilities"`
}

type scoresPayload struct {
	Safety        *float64 `json:"safety"`
	Healthcare    *float64 `json:"healthcare"`
	Walkability   *float64 `json:"walkability"`
	PublicTransit *float64 `json:"publicTransit"`
	Traffic       *float64 `json:"traffic"`
}

func convertToResult(payload apiResponse) *Result {
	lastUpdated := time.Now().UTC()
	if payload.LastUpdated != nil {
		lastUpdated = payload.LastUpdated.UTC()
	}
	source := "CostOfLivingAPI"
	if payload.Source != nil && *payload.Source != "" {
		source = *payload.Source
	}

	return &Result{
		Costs: domain.CostBreakdown{
			Housing:        nonNegative(payload.Costs.Housing),
			Food:           nonNegative(payload.Costs.Food),
			Transportation: nonNegative(payload.Costs.Transportation),
			Healthcare:     nonNegative(payload.Costs.Healthcare),
			Utilities:      nonNegative(payload.Costs.Utilities),
		},
		Scores: domain.QualityScores{
			Safety:        percent(payload.Scores.Safety),
			Healthcare:    percent(payload.Scores.Healthcare),
			Walkability:   percent(payload.Scores.Walkability),
			PublicTransit: percent(payload.Scores.PublicTransit),
			Traffic:       percent(payload.Scores.Traffic),
		},
		AffordabilityScore: percent(payload.AffordabilityScore),
		Source:             source,
		LastUpdated:        lastUpdated,
	}
}

// nonNegative drops negative or non-finite costs.
func nonNegative(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return nil
	}
	return v
}

// percent drops scores outside [0, 100].
func percent(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 || *v > 100 {
		return nil
	}
	return v
}
