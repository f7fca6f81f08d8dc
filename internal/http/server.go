package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/config"
	"github.com/Clark-Hu/thrive/internal/costofliving"
	"github.com/Clark-Hu/thrive/internal/metrics"
	"github.com/Clark-Hu/thrive/internal/mlclient"
	"github.com/Clark-Hu/thrive/internal/repository"
	"github.com/Clark-Hu/thrive/internal/store"
)

// Dependencies bundles the collaborators the server needs.
type Dependencies struct {
	Store        *store.Store
	Repo         *repository.Repository
	CostOfLiving costofliving.Client
	ML           mlclient.Client
	Tokens       *auth.TokenService
	Logger       zerolog.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg          config.Config
	store        *store.Store
	repo         *repository.Repository
	costOfLiving costofliving.Client
	ml           mlclient.Client
	tokens       *auth.TokenService
	logger       zerolog.Logger
	router       chi.Router
	httpSrv      *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Dependencies) *Server {
	s := &Server{
		cfg:          cfg,
		store:        deps.Store,
		repo:         deps.Repo,
		costOfLiving: deps.CostOfLiving,
		ml:           deps.ML,
		tokens:       deps.Tokens,
		logger:       deps.Logger.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router = r
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.cfg.AuthRateLimitPerMin > 0 {
				r.Use(httprate.LimitByIP(s.cfg.AuthRateLimitPerMin, time.Minute))
			}
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})
		r.With(s.requireAuth).Get("/me", s.handleMe)
	})

	s.router.Route("/profile", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleGetProfile)
		r.Put("/", s.handlePutProfile)
		r.Get("/notifications", s.handleGetNotifications)
		r.Post("/notifications", s.handleSaveNotifications)
	})

	s.router.Route("/locations", func(r chi.Router) {
		r.Get("/", s.handleListLocations)
		r.With(s.requireAuth).Post("/", s.handleCreateLocation)
		r.Post("/compare", s.handleCompareLocations)
		r.Get("/nearby", s.handleNearbyLocations)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLocation)
			r.Get("/reviews", s.handleListReviews)
		})
	})

	s.router.Route("/reviews", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/", s.handleCreateReview)
		r.Put("/{id}", s.handleUpdateReview)
		r.Delete("/{id}", s.handleDeleteReview)
	})

	s.router.Route("/saved", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleListSaved)
		r.Post("/", s.handleSaveLocation)
		r.Delete("/{locationId}", s.handleRemoveSaved)
	})

	s.router.Route("/recommendations", func(r chi.Router) {
		r.With(s.requireAuth).Get("/locations", s.handleRecommendLocations)
		r.Post("/rentals", s.handleRecommendRentals)
	})

	s.router.Get("/rentals", s.handleListRentals)
	s.router.Get("/ml/affordability/{locationId}", s.handleMLAffordability)
	s.router.With(s.requireAuth).Get("/ml/recommendations", s.handleMLRecommendations)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
