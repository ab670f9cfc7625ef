// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go.ngs.io/forecast-api/internal/domain"
)

// Config holds the server settings.
type Config struct {
	Port        string
	DataDir     string
	CatalogPath string // Defaults to <DataDir>/domains.csv.
	DEMPath     string // Empty disables DEM lookups.

	// AllowedOrigins is empty when every origin is allowed.
	AllowedOrigins []string

	CachePurgeInterval time.Duration

	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration

	DefaultCellSelection domain.GridSelectionMode
}

// Load reads configuration from environment with defaults.
// An optional .env file in the working directory is loaded first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port:    getenvDefault("PORT", "8080"),
		DataDir: getenvDefault("DATA_DIR", "./data"),
		DEMPath: os.Getenv("DEM_PATH"),
	}
	cfg.CatalogPath = getenvDefault("CATALOG_PATH", filepath.Join(cfg.DataDir, "domains.csv"))

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	interval, err := time.ParseDuration(getenvDefault("CACHE_PURGE_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_PURGE_INTERVAL: %w", err)
	}
	if interval < time.Minute {
		return nil, fmt.Errorf("invalid CACHE_PURGE_INTERVAL: must be at least 1m, got %s", interval)
	}
	cfg.CachePurgeInterval = interval

	failures := getenvInt("BREAKER_MAX_FAILURES", 5)
	if failures <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_MAX_FAILURES: must be positive, got %d", failures)
	}
	cfg.BreakerMaxFailures = uint32(failures)

	timeout, err := time.ParseDuration(getenvDefault("BREAKER_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BREAKER_TIMEOUT: %w", err)
	}
	cfg.BreakerTimeout = timeout

	mode, err := domain.ParseGridSelectionMode(os.Getenv("DEFAULT_CELL_SELECTION"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_CELL_SELECTION: %w", err)
	}
	cfg.DefaultCellSelection = mode

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
