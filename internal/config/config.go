package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	CORSOrigins []string

	DatabaseURL string

	// Ledger API
	LedgerBaseURL      string
	LedgerMinorVersion int
	LedgerHTTPTimeout  time.Duration

	// Accrual detection tunables
	PresentTolerance   float64
	NoiseFloor         float64
	DebugExampleLimit  int
	PostingLockTimeout time.Duration

	// Optional; enables the distributed posting lock
	RedisURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:        getString("ENVIRONMENT", "development"),
		Port:               getString("PORT", "8080"),
		LogLevel:           getString("LOG_LEVEL", "info"),
		CORSOrigins:        getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		LedgerBaseURL:      getString("LEDGER_API_BASE_URL", "https://quickbooks.api.intuit.com"),
		LedgerMinorVersion: getInt("LEDGER_MINOR_VERSION", 65),
		LedgerHTTPTimeout:  time.Duration(getInt("LEDGER_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		PresentTolerance:   getFloat("ACCRUAL_PRESENT_TOLERANCE", 0.10),
		NoiseFloor:         getFloat("ACCRUAL_NOISE_FLOOR", 10),
		DebugExampleLimit:  getInt("ACCRUAL_DEBUG_EXAMPLE_LIMIT", 5),
		PostingLockTimeout: time.Duration(getInt("POSTING_LOCK_TTL_SECONDS", 60)) * time.Second,
		RedisURL:           os.Getenv("REDIS_URL"),
	}

	if cfg.Environment != "test" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.PresentTolerance < 0 {
		return nil, fmt.Errorf("ACCRUAL_PRESENT_TOLERANCE must be >= 0")
	}
	if cfg.DebugExampleLimit < 0 {
		return nil, fmt.Errorf("ACCRUAL_DEBUG_EXAMPLE_LIMIT must be >= 0")
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
