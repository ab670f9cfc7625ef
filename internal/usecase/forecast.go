// Package usecase orchestrates forecast requests across the domains of a model.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"go.ngs.io/forecast-api/internal/adapter/store"
	"go.ngs.io/forecast-api/internal/domain"
	"go.ngs.io/forecast-api/internal/metrics"
	"go.ngs.io/forecast-api/internal/mixer"
)

const (
	maxSteps = 10000
	maxRange = 366 * 24 * time.Hour
)

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownModel is returned for models missing from the catalog.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownVariable is returned for variables missing from the catalog.
	ErrUnknownVariable = errors.New("unknown variable")
)

var validate = validator.New()

// ForecastRequest encapsulates a forecast request.
type ForecastRequest struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`

	// Elevation is the target elevation in metres. When nil it is taken from the
	// DEM, or from the finest model grid cell without a DEM.
	Elevation *float64 `validate:"omitempty,gte=-500,lte=9000"`

	// Time range, half-open.
	Start    time.Time     `validate:"required"`
	End      time.Time     `validate:"required,gtfield=Start"`
	Interval time.Duration `validate:"gte=15m,lte=24h"`

	Variables     []string `validate:"required,min=1,max=32,dive,required"`
	Model         string   `validate:"required"`
	CellSelection domain.GridSelectionMode
}

// Validate checks if the request is valid.
func (r *ForecastRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}

	duration := r.End.Sub(r.Start)
	if duration > maxRange {
		return fmt.Errorf("time range must be at most 366 days")
	}

	numPoints := domain.NewTimeRange(r.Start, r.End, r.Interval).Count()
	if numPoints > maxSteps {
		return fmt.Errorf("too many forecast steps (%d) - reduce time range or increase interval", numPoints)
	}
	return nil
}

// VariableSeries is the mixed series of one variable.
type VariableSeries struct {
	Variable string
	Unit     domain.SiUnit
	Values   []float32
}

// ForecastResponse contains the mixed forecast of one location.
type ForecastResponse struct {
	Latitude         float32 // Grid cell of the finest domain.
	Longitude        float32
	Elevation        float32 // Target elevation, NaN if unknown.
	GenerationTimeMs float64
	Timezone         string
	Model            string
	Domain           domain.Domain // Finest domain.
	Interval         time.Duration
	Times            []time.Time
	Series           []VariableSeries
}

// ModelInfo lists the domains of a model.
type ModelInfo struct {
	Name    string
	Domains []domain.Domain // Coarse to fine.
}

// ElevationProvider looks up terrain elevations.
type ElevationProvider interface {
	Elevation(lat, lon float64) (float32, error)
}

// ForecastUseCase orchestrates forecast mixing.
type ForecastUseCase struct {
	catalog store.DomainCatalog
	readers mixer.ReaderFactory
	dem     ElevationProvider
}

// NewForecastUseCase creates a new forecast use case. dem may be nil.
func NewForecastUseCase(catalog store.DomainCatalog, readers mixer.ReaderFactory, dem ElevationProvider) *ForecastUseCase {
	return &ForecastUseCase{
		catalog: catalog,
		readers: readers,
		dem:     dem,
	}
}

// Execute mixes every requested variable for the location.
func (uc *ForecastUseCase) Execute(ctx context.Context, req ForecastRequest) (*ForecastResponse, error) {
	started := time.Now()
	resp, err := uc.execute(ctx, req)

	metrics.ForecastRequests.WithLabelValues(req.Model, resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)
	metrics.ForecastDuration.WithLabelValues(req.Model).Observe(elapsed.Seconds())
	resp.GenerationTimeMs = float64(elapsed.Microseconds()) / 1000
	return resp, nil
}

func (uc *ForecastUseCase) execute(ctx context.Context, req ForecastRequest) (*ForecastResponse, error) {
	// Validate request.
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	domains, ok := uc.catalog.DomainsForModel(req.Model)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, req.Model)
	}

	variables := make([]domain.MixableVariable, 0, len(req.Variables))
	seen := make(map[string]bool, len(req.Variables))
	for _, name := range req.Variables {
		v, ok := domain.LookupVariable(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
		if seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		variables = append(variables, v)
	}

	elevation := uc.targetElevation(req)

	m, err := mixer.New(uc.readers, domains, float32(req.Lat), float32(req.Lon), elevation, req.CellSelection)
	if err != nil {
		return nil, fmt.Errorf("failed to create readers for model %s at (%.4f, %.4f): %w", req.Model, req.Lat, req.Lon, err)
	}
	metrics.MixedReaders.Observe(float64(len(m.Readers())))

	tr := domain.NewTimeRange(req.Start, req.End, req.Interval)
	if err := m.PrefetchAll(variables, tr); err != nil {
		return nil, err
	}

	series := make([]VariableSeries, 0, len(variables))
	for _, v := range variables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := m.Get(v, tr)
		if err != nil {
			return nil, fmt.Errorf("failed to mix %s: %w", v, err)
		}
		series = append(series, VariableSeries{
			Variable: v.String(),
			Unit:     data.Unit,
			Values:   data.Data,
		})
	}

	// The mixer anchors a missing elevation on the finest cell.
	if domain.IsNaN(elevation) {
		elevation = m.ModelElevation().Numeric()
	}

	return &ForecastResponse{
		Latitude:  m.ModelLat(),
		Longitude: m.ModelLon(),
		Elevation: elevation,
		Timezone:  "GMT",
		Model:     req.Model,
		Domain:    m.Domain(),
		Interval:  tr.Dt,
		Times:     tr.Times(),
		Series:    series,
	}, nil
}

// targetElevation resolves the elevation from the request, then the DEM.
func (uc *ForecastUseCase) targetElevation(req ForecastRequest) float32 {
	if req.Elevation != nil {
		return float32(*req.Elevation)
	}
	if uc.dem == nil {
		return float32(math.NaN())
	}
	h, err := uc.dem.Elevation(req.Lat, req.Lon)
	if err != nil {
		log.Printf("Warning: DEM lookup failed at (%.4f, %.4f): %v", req.Lat, req.Lon, err)
		return float32(math.NaN())
	}
	return h
}

// ListModels returns the catalog models with their domains.
func (uc *ForecastUseCase) ListModels() []ModelInfo {
	models := uc.catalog.Models()
	out := make([]ModelInfo, 0, len(models))
	for _, name := range models {
		domains, _ := uc.catalog.DomainsForModel(name)
		out = append(out, ModelInfo{Name: name, Domains: domains})
	}
	return out
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrUnknownModel), errors.Is(err, ErrUnknownVariable):
		return metrics.ResultInvalid
	case errors.Is(err, mixer.ErrNoReaderAvailable):
		return metrics.ResultNotAvailable
	default:
		return metrics.ResultError
	}
}
