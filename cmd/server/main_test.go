package main

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/thrive/internal/config"
)

func TestStoreOptions(t *testing.T) {
	cfg := config.Config{
		DBMaxConns:        12,
		DBMinConns:        3,
		DBMaxIdleSecs:     60,
		DBMaxLifeSecs:     1800,
		DBConnTimeoutSecs: 5,
		DBStatementCache:  128,
		DBSlowQueryMillis: 250,
	}
	opts := storeOptions(cfg, zerolog.Nop())
	if opts.MaxConns != 12 || opts.MinConns != 3 || opts.StatementCacheCapacity != 128 {
		t.Fatalf("pool sizing = %+v", opts)
	}
	if opts.MaxConnIdleTime != time.Minute || opts.MaxConnLifetime != 30*time.Minute || opts.ConnTimeout != 5*time.Second {
		t.Fatalf("durations = %+v", opts)
	}
	if opts.SlowQueryThreshold != 250*time.Millisecond {
		t.Fatalf("slow query threshold = %v", opts.SlowQueryThreshold)
	}

	cfg.DBSlowQueryMillis = 0
	if got := storeOptions(cfg, zerolog.Nop()).SlowQueryThreshold; got != 0 {
		t.Fatalf("disabled threshold = %v", got)
	}
}
