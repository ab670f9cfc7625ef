// Package main provides the forecast API HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"

	"go.ngs.io/forecast-api/internal/adapter/store/csv"
	"go.ngs.io/forecast-api/internal/adapter/store/gridded"
	"go.ngs.io/forecast-api/internal/adapter/terrain"
	"go.ngs.io/forecast-api/internal/config"
	httpHandler "go.ngs.io/forecast-api/internal/http"
	"go.ngs.io/forecast-api/internal/scheduler"
	"go.ngs.io/forecast-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	strict := flag.Bool("strict-variables", false, "Fail requests for variables a domain does not carry")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("forecast-api version %s\n", version)
		return
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Forecast API server...")
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Catalog: %s", cfg.CatalogPath)

	// Load domain catalog.
	catalog, err := csv.NewCatalogStore(cfg.CatalogPath).Load()
	if err != nil {
		log.Fatalf("Failed to load domain catalog: %v", err)
	}
	for _, model := range catalog.Models() {
		domains, _ := catalog.DomainsForModel(model)
		log.Printf("  Model %s: %v", model, domains)
	}

	// Initialize gridded stores.
	registry := gridded.NewRegistryFromCatalog(catalog, cfg.DataDir, gridded.Options{
		StrictVariables:    *strict,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerTimeout:     cfg.BreakerTimeout,
	})

	// Initialize DEM store (optional, for target elevations).
	var dem usecase.ElevationProvider
	if demStore := terrain.NewStore(cfg.DEMPath); demStore.Enabled() {
		log.Printf("DEM store initialized")
		log.Printf("  DEM path: %s", cfg.DEMPath)
		dem = demStore
	} else {
		log.Printf("DEM store disabled (no DEM_PATH configured, elevations from model grids)")
	}

	// Initialize use case.
	forecastUC := usecase.NewForecastUseCase(catalog, registry, dem)

	// Start cache purge scheduler.
	purger := scheduler.New(registry, cfg.CachePurgeInterval)
	if err := purger.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer purger.Stop()
	log.Printf("Cache purge every %s", cfg.CachePurgeInterval)

	// Setup router.
	router := httpHandler.SetupRouter(forecastUC, httpHandler.RouterConfig{
		AllowedOrigins:       cfg.AllowedOrigins,
		DefaultCellSelection: cfg.DefaultCellSelection,
	})

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/forecast")
	log.Printf("  - GET /v1/models")
	log.Printf("  - GET /metrics")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Forecast API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  forecast-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help                Show this help message")
	fmt.Println("  -version             Show version information")
	fmt.Println("  -strict-variables    Fail requests for variables a domain does not carry")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (also read from .env):")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATA_DIR                Model data directory (default: ./data)")
	fmt.Println("  CATALOG_PATH            Domain catalog CSV (default: $DATA_DIR/domains.csv)")
	fmt.Println("  DEM_PATH                Path to DEM NetCDF file (optional, for target elevations)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  CACHE_PURGE_INTERVAL    Interval between cache purges (default: 15m)")
	fmt.Println("  BREAKER_MAX_FAILURES    Consecutive read failures before a domain trips (default: 5)")
	fmt.Println("  BREAKER_TIMEOUT         Time a tripped domain stays open (default: 30s)")
	fmt.Println("  DEFAULT_CELL_SELECTION  land, sea, nearest or terrain_optimised (default: land)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Generate sample data and start the server")
	fmt.Println("  grid-generator -out ./data")
	fmt.Println("  forecast-api")
	fmt.Println()
	fmt.Println("  # Start server on custom port")
	fmt.Println("  PORT=3000 forecast-api")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health            Health check")
	fmt.Println("  GET /v1/models         List models and their domains")
	fmt.Println("  GET /v1/forecast       Get a mixed forecast (format=json or mebo)")
	fmt.Println("  GET /metrics           Prometheus metrics")
	fmt.Println()
}
