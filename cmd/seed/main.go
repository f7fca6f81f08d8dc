package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/thrive/internal/config"
	"github.com/Clark-Hu/thrive/internal/logging"
	"github.com/Clark-Hu/thrive/internal/repository"
	"github.com/Clark-Hu/thrive/internal/seed"
	"github.com/Clark-Hu/thrive/internal/store"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to a seed fixture (defaults to the built-in fixture)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New(logging.Config{})
		fallback.Fatal().Err(err).Msg("config error")
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "thrive-seed"})

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		logger.Fatal().Err(err).Str("fixture", *fixturePath).Msg("load fixture")
	}

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               2,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	if _, err := seed.NewSeeder(repository.New(st), logger).Apply(dbCtx, fixture); err != nil {
		logger.Error().Err(err).Msg("seed failed")
		st.Close()
		os.Exit(1)
	}
}

// loadFixture reads the fixture at path, or the built-in one when path is empty.
func loadFixture(path string) (seed.Fixture, error) {
	if path == "" {
		return seed.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return seed.Fixture{}, err
	}
	return seed.Parse(raw)
}
