// Package metrics registers the Prometheus collectors exported on /metrics.
//
// Collectors are package-level and registered with the default registry via
// promauto, so any package can record without plumbing a registry around.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Review mutation kinds.
const (
	ReviewCreated = "create"
	ReviewUpdated = "update"
	ReviewDeleted = "delete"
)

// Upstream call outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeCircuitOpen = "circuit_open"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrive_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thrive_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ReviewMutationsTotal counts committed review mutations.
	ReviewMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrive_review_mutations_total",
			Help: "Total number of committed review mutations",
		},
		[]string{"kind"},
	)

	// RecommendationCandidates observes how many candidates each ranking considered.
	RecommendationCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thrive_recommendation_candidates",
			Help:    "Number of candidates ranked per recommendation request",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	// UpstreamCallsTotal counts calls to external services by outcome.
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrive_upstream_calls_total",
			Help: "Total number of calls to upstream services",
		},
		[]string{"service", "outcome"},
	)
)

// RecordReviewMutation counts a committed review mutation.
func RecordReviewMutation(kind string) {
	ReviewMutationsTotal.WithLabelValues(kind).Inc()
}

// RecordRecommendation observes the candidate count of one ranking.
func RecordRecommendation(kind string, candidates int) {
	RecommendationCandidates.WithLabelValues(kind).Observe(float64(candidates))
}

// RecordUpstream counts one upstream call.
func RecordUpstream(service, outcome string) {
	UpstreamCallsTotal.WithLabelValues(service, outcome).Inc()
}

// Middleware records request count and latency labelled by chi route pattern.
// Unmatched requests are labelled "unmatched" to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
