// Package terrain provides target elevations from a digital elevation model.
package terrain

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/forecast-api/internal/adapter/interp"
)

// margin is the half size in degrees of the subset loaded around a point.
const margin = 1.0

// ErrNoDEM is returned when the store has no DEM file configured.
var ErrNoDEM = errors.New("no DEM configured")

// Store looks up terrain elevations from a NetCDF DEM (e.g. GEBCO, Copernicus).
// Only a subset around the last requested point is kept in memory.
type Store struct {
	path   string
	grid   *interp.Grid2D
	bounds *gridBounds
	mu     sync.Mutex
}

type gridBounds struct {
	minLat, maxLat float64
	minLon, maxLon float64
	lonWrap360     bool
}

func (b *gridBounds) contains(lat, lon float64) bool {
	if b == nil {
		return false
	}
	if b.lonWrap360 {
		lon = interp.NormalizeLon360(lon)
	}
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}

func boundsFromGrid(grid *interp.Grid2D) *gridBounds {
	return &gridBounds{
		minLat:     grid.Y[0],
		maxLat:     grid.Y[len(grid.Y)-1],
		minLon:     grid.X[0],
		maxLon:     grid.X[len(grid.X)-1],
		lonWrap360: interp.LonAxisRequiresWrap(grid.X),
	}
}

// NewStore creates a DEM store. An empty path disables lookups.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Enabled reports whether a DEM file is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.path != ""
}

// Elevation returns the terrain elevation in metres at (lat, lon).
func (s *Store) Elevation(lat, lon float64) (float32, error) {
	if !s.Enabled() {
		return float32(math.NaN()), ErrNoDEM
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reload when the point leaves the loaded subset.
	if s.grid == nil || !s.bounds.contains(lat, lon) {
		grid, err := loadSubset(s.path, lat, lon)
		if err != nil {
			return float32(math.NaN()), fmt.Errorf("failed to load DEM around (%.4f, %.4f): %w", lat, lon, err)
		}
		s.grid = grid
		s.bounds = boundsFromGrid(grid)
	}

	h, err := s.grid.InterpolateAt(interp.NormalizeLonForAxis(s.grid.X, lon), lat)
	if err != nil {
		return float32(math.NaN()), fmt.Errorf("failed to interpolate DEM: %w", err)
	}
	return float32(h), nil
}

// loadSubset reads the DEM within ±margin degrees of the target.
//
//nolint:gosec // G115: NetCDF indices are non-negative.
func loadSubset(path string, targetLat, targetLon float64) (*interp.Grid2D, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	latData, err := readAxis(nc, []string{"lat", "latitude", "y"})
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lonData, err := readAxis(nc, []string{"lon", "longitude", "x"})
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	if len(latData) < 2 || len(lonData) < 2 {
		return nil, fmt.Errorf("DEM needs at least 2x2 points")
	}

	lon := interp.NormalizeLonForAxis(lonData, targetLon)
	latStart := clamp(findNearestIndex(latData, targetLat-margin), 0, len(latData)-2)
	latEnd := clamp(findNearestIndex(latData, targetLat+margin)+1, latStart+2, len(latData))
	lonStart := clamp(findNearestIndex(lonData, lon-margin), 0, len(lonData)-2)
	lonEnd := clamp(findNearestIndex(lonData, lon+margin)+1, lonStart+2, len(lonData))
	nSubLat := latEnd - latStart
	nSubLon := lonEnd - lonStart

	var dataVar netcdf.Var
	found := false
	for _, name := range []string{"elevation", "z", "height", "Band1"} {
		if v, err := nc.Var(name); err == nil {
			dataVar, found = v, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("elevation variable not found")
	}

	dims, err := dataVar.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected 2D data, got %dD", len(dims))
	}
	dim0Len, err := dims[0].Len()
	if err != nil {
		return nil, fmt.Errorf("failed to get dim0 length: %w", err)
	}

	fill, hasFill := fillValue(dataVar)
	values := make([][]float64, nSubLat)
	switch dim0Len {
	case uint64(len(latData)):
		// Data is [lat, lon].
		flat, err := readFloat32Subset(dataVar, []uint64{uint64(latStart), uint64(lonStart)}, []uint64{uint64(nSubLat), uint64(nSubLon)})
		if err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = make([]float64, nSubLon)
			for j := range values[i] {
				values[i][j] = toValue(flat[i*nSubLon+j], fill, hasFill)
			}
		}
	case uint64(len(lonData)):
		// Data is [lon, lat].
		flat, err := readFloat32Subset(dataVar, []uint64{uint64(lonStart), uint64(latStart)}, []uint64{uint64(nSubLon), uint64(nSubLat)})
		if err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = make([]float64, nSubLon)
			for j := range values[i] {
				values[i][j] = toValue(flat[j*nSubLat+i], fill, hasFill)
			}
		}
	default:
		return nil, fmt.Errorf("dimension mismatch: data dim0 is %d, expected %d or %d", dim0Len, len(latData), len(lonData))
	}

	grid := &interp.Grid2D{
		X:      lonData[lonStart:lonEnd],
		Y:      latData[latStart:latEnd],
		Values: values,
	}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return grid, nil
}

func toValue(v float32, fill float64, hasFill bool) float64 {
	if hasFill && float64(v) == fill {
		return math.NaN()
	}
	return float64(v)
}

// findNearestIndex finds the index of the value closest to target in a sorted array.
func findNearestIndex(arr []float64, target float64) int {
	if len(arr) == 0 {
		return 0
	}

	left, right := 0, len(arr)-1
	for left < right {
		mid := (left + right) / 2
		if arr[mid] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}

	if left > 0 && math.Abs(arr[left-1]-target) < math.Abs(arr[left]-target) {
		return left - 1
	}
	return left
}

// clamp ensures value is within [minVal, maxVal] range.
func clamp(value, minVal, maxVal int) int {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
