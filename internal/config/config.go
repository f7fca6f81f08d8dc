package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port                    string
	DBURL                   string
	JWTSecret               string
	JWTTTLHours             int
	CostOfLivingURL         string
	CostOfLivingAPIKey      string
	CostOfLivingTimeoutSecs int
	MLServiceURL            string
	MLTimeoutSecs           int
	ReadTimeoutSecs         int
	WriteTimeoutSecs        int
	IdleTimeoutSecs         int
	DBMaxConns              int
	DBMinConns              int
	DBMaxIdleSecs           int
	DBMaxLifeSecs           int
	DBConnTimeoutSecs       int
	DBStatementCache        int
	DBSlowQueryMillis       int
	CORSAllowedOrigins      []string
	AuthRateLimitPerMin     int
	LogLevel                string
	LogFormat               string
}

// Load reads configuration from environment variables, applying defaults and validation.
// Values from a .env file in the working directory (or ENV_FILE) are loaded first
// without overriding variables that are already set.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:                    getEnv("PORT", "8080"),
		DBURL:                   os.Getenv("DB_URL"),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		JWTTTLHours:             getEnvInt("JWT_TTL_HOURS", 168),
		CostOfLivingURL:         os.Getenv("COSTOFLIVING_URL"),
		CostOfLivingAPIKey:      os.Getenv("COSTOFLIVING_API_KEY"),
		CostOfLivingTimeoutSecs: getEnvInt("COSTOFLIVING_TIMEOUT_SECS", 5),
		MLServiceURL:            os.Getenv("ML_SERVICE_URL"),
		MLTimeoutSecs:           getEnvInt("ML_TIMEOUT_SECS", 10),
		ReadTimeoutSecs:         getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:        getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:         getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:              getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:              getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:           getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:           getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:       getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:        getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
		DBSlowQueryMillis:       getEnvInt("DB_SLOW_QUERY_MS", 500),
		CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		AuthRateLimitPerMin:     getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 20),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "json"),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTLHours <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if cfg.CostOfLivingURL != "" && cfg.CostOfLivingAPIKey == "" {
		return Config{}, fmt.Errorf("COSTOFLIVING_API_KEY is required when COSTOFLIVING_URL is set")
	}
	if cfg.CostOfLivingTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("COSTOFLIVING_TIMEOUT_SECS must be positive")
	}
	if cfg.MLTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("ML_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.DBSlowQueryMillis < 0 {
		return Config{}, fmt.Errorf("DB_SLOW_QUERY_MS must be non-negative")
	}
	if cfg.AuthRateLimitPerMin <= 0 {
		return Config{}, fmt.Errorf("AUTH_RATE_LIMIT_PER_MIN must be positive")
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
