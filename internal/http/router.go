package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/forecast-api/internal/domain"
	"go.ngs.io/forecast-api/internal/usecase"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RouterConfig holds the router settings.
type RouterConfig struct {
	// AllowedOrigins lists the CORS origins. Empty allows all origins.
	AllowedOrigins []string

	// DefaultCellSelection applies when a request has no cell_selection.
	DefaultCellSelection domain.GridSelectionMode
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(forecastUC *usecase.ForecastUseCase, cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(requestID())

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(forecastUC, cfg.DefaultCellSelection)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/forecast", handler.GetForecast)
	v1.GET("/models", handler.GetModels)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// requestID propagates X-Request-ID, generating one when the client sent none.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
