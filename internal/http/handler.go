package http

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/forecast-api/internal/adapter/encode"
	"go.ngs.io/forecast-api/internal/domain"
	"go.ngs.io/forecast-api/internal/mixer"
	"go.ngs.io/forecast-api/internal/usecase"
)

// Handler handles HTTP requests for forecasts.
type Handler struct {
	forecastUC  *usecase.ForecastUseCase
	defaultMode domain.GridSelectionMode
}

// NewHandler creates a new HTTP handler. defaultMode applies to requests
// without a cell_selection parameter.
func NewHandler(forecastUC *usecase.ForecastUseCase, defaultMode domain.GridSelectionMode) *Handler {
	return &Handler{
		forecastUC:  forecastUC,
		defaultMode: defaultMode,
	}
}

// GetForecast handles GET /v1/forecast.
func (h *Handler) GetForecast(c *gin.Context) {
	// Parse query parameters.
	latStr := c.Query("latitude")
	lonStr := c.Query("longitude")
	elevationStr := c.Query("elevation")
	startStr := c.Query("start")
	endStr := c.Query("end")
	intervalStr := c.Query("interval")
	variablesStr := c.Query("variables")
	cellSelection := c.Query("cell_selection")
	format := c.DefaultQuery("format", "json")

	if format != "json" && format != "mebo" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid format %q (use json or mebo)", format)})
		return
	}

	// Build request.
	req := usecase.ForecastRequest{
		Model: c.Query("model"),
	}

	// Parse lat/lon.
	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude parameters are required"})
		return
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}
	req.Lat = lat
	req.Lon = lon

	// Parse elevation (optional).
	if elevationStr != "" {
		elevation, err := strconv.ParseFloat(elevationStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid elevation: %v", err)})
			return
		}
		req.Elevation = &elevation
	}

	// Parse time range.
	if startStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start parameter is required"})
		return
	}
	if endStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end parameter is required"})
		return
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start time (expected RFC3339): %v", err)})
		return
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end time (expected RFC3339): %v", err)})
		return
	}

	req.Start = start.UTC()
	req.End = end.UTC()

	// Parse interval (default: 1h).
	if intervalStr == "" {
		intervalStr = "1h"
	}

	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid interval: %v", err)})
		return
	}
	req.Interval = interval

	// Parse variables.
	for _, v := range strings.Split(variablesStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			req.Variables = append(req.Variables, v)
		}
	}
	if len(req.Variables) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variables parameter is required"})
		return
	}

	// Parse cell selection.
	req.CellSelection = h.defaultMode
	if cellSelection != "" {
		mode, err := domain.ParseGridSelectionMode(cellSelection)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.CellSelection = mode
	}

	// Execute use case.
	response, err := h.forecastUC.Execute(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if format == "mebo" {
		payload, err := encode.Encode(response)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.Data(http.StatusOK, encode.ContentType, payload)
		return
	}

	c.JSON(http.StatusOK, newForecastJSON(response))
}

// GetModels handles GET /v1/models.
func (h *Handler) GetModels(c *gin.Context) {
	models := h.forecastUC.ListModels()

	// Convert to response format.
	type ModelInfo struct {
		Name    string   `json:"name"`
		Domains []string `json:"domains"`
	}

	response := make([]ModelInfo, len(models))
	for i, m := range models {
		domains := make([]string, len(m.Domains))
		for j, d := range m.Domains {
			domains[j] = d.String()
		}
		response[i] = ModelInfo{
			Name:    m.Name,
			Domains: domains,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"models": response,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps use case errors to status codes. Server errors are logged
// with the request ID.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest), errors.Is(err, usecase.ErrUnknownVariable):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrUnknownModel), errors.Is(err, mixer.ErrNoReaderAvailable):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Printf("request %s: %s %s failed: %v", requestIDFrom(c), c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error", "request_id": requestIDFrom(c)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ForecastJSON is the JSON form of a forecast. Series are keyed by variable
// name next to the shared "time" axis.
type ForecastJSON struct {
	Latitude         float32           `json:"latitude"`
	Longitude        float32           `json:"longitude"`
	Elevation        NullableFloat     `json:"elevation"`
	GenerationTimeMs float64           `json:"generationtime_ms"`
	Timezone         string            `json:"timezone"`
	Model            string            `json:"model"`
	Domain           string            `json:"domain"`
	IntervalSeconds  int64             `json:"interval_seconds"`
	Units            map[string]string `json:"forecast_units"`
	Forecast         map[string]any    `json:"forecast"`
}

func newForecastJSON(resp *usecase.ForecastResponse) ForecastJSON {
	units := make(map[string]string, len(resp.Series)+1)
	forecast := make(map[string]any, len(resp.Series)+1)

	units["time"] = "iso8601"
	forecast["time"] = resp.Times
	for _, s := range resp.Series {
		units[s.Variable] = s.Unit.String()
		forecast[s.Variable] = NullableSeries(s.Values)
	}

	return ForecastJSON{
		Latitude:         resp.Latitude,
		Longitude:        resp.Longitude,
		Elevation:        NullableFloat(resp.Elevation),
		GenerationTimeMs: resp.GenerationTimeMs,
		Timezone:         resp.Timezone,
		Model:            resp.Model,
		Domain:           resp.Domain.String(),
		IntervalSeconds:  int64(resp.Interval / time.Second),
		Units:            units,
		Forecast:         forecast,
	}
}

// NullableFloat marshals non-finite values as null.
type NullableFloat float32

// MarshalJSON implements json.Marshaler.
func (f NullableFloat) MarshalJSON() ([]byte, error) {
	return appendNullable(nil, float32(f)), nil
}

// NullableSeries marshals non-finite samples as null.
type NullableSeries []float32

// MarshalJSON implements json.Marshaler.
func (s NullableSeries) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	b := make([]byte, 0, 2+8*len(s))
	b = append(b, '[')
	for i, v := range s {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendNullable(b, v)
	}
	return append(b, ']'), nil
}

func appendNullable(b []byte, v float32) []byte {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(b, "null"...)
	}
	return strconv.AppendFloat(b, f, 'f', -1, 32)
}
