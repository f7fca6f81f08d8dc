package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/thrive/internal/auth"
	"github.com/Clark-Hu/thrive/internal/config"
	"github.com/Clark-Hu/thrive/internal/costofliving"
	httpserver "github.com/Clark-Hu/thrive/internal/http"
	"github.com/Clark-Hu/thrive/internal/logging"
	"github.com/Clark-Hu/thrive/internal/mlclient"
	"github.com/Clark-Hu/thrive/internal/repository"
	"github.com/Clark-Hu/thrive/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New(logging.Config{})
		fallback.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "thrive-api"})

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, storeOptions(cfg, logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	var colClient costofliving.Client
	if cfg.CostOfLivingURL != "" {
		c, err := costofliving.NewHTTPClient(
			cfg.CostOfLivingURL,
			cfg.CostOfLivingAPIKey,
			time.Duration(cfg.CostOfLivingTimeoutSecs)*time.Second,
			costofliving.BreakerSettings{},
			logger,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("init cost of living client")
		}
		colClient = c
	} else {
		logger.Warn().Msg("COSTOFLIVING_URL not set, new locations will not be enriched")
	}

	mlClient, err := mlclient.New(cfg.MLServiceURL, time.Duration(cfg.MLTimeoutSecs)*time.Second, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init ml client")
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("init token service")
	}

	server := httpserver.New(cfg, httpserver.Dependencies{
		Store:        st,
		Repo:         repository.New(st),
		CostOfLiving: colClient,
		ML:           mlClient,
		Tokens:       tokens,
		Logger:       logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func storeOptions(cfg config.Config, logger zerolog.Logger) store.Options {
	return store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		SlowQueryThreshold:     time.Duration(cfg.DBSlowQueryMillis) * time.Millisecond,
		Logger:                 logger,
	}
}
