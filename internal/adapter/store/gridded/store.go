// Package gridded reads forecast domains stored as NetCDF files.
//
// Each domain lives in its own directory:
//
//	<dir>/elevation.nc    lat, lon, elevation[lat,lon]        (fill value = sea)
//	<dir>/<variable>.nc   time, lat, lon, <variable>[time,lat,lon]
//
// Time is given in seconds since 1970-01-01 UTC. Fill values become NaN.
package gridded

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/sony/gobreaker"

	"go.ngs.io/forecast-api/internal/adapter/interp"
	"go.ngs.io/forecast-api/internal/domain"
)

const elevationFile = "elevation.nc"

var (
	// ErrUnknownDomain is returned for domains without a store.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrVariableNotAvailable is returned in strict mode when a domain has no file for a variable.
	ErrVariableNotAvailable = errors.New("variable not available in domain")

	// ErrStoreUnavailable is returned while the circuit breaker of a store is open.
	ErrStoreUnavailable = errors.New("domain store temporarily unavailable")
)

// Config configures the store of one domain.
type Config struct {
	Domain    domain.Domain
	Dir       string
	DtSeconds int

	// StrictVariables turns missing variable files into ErrVariableNotAvailable
	// instead of an all-missing series.
	StrictVariables bool

	// BreakerMaxFailures consecutive read failures open the circuit breaker
	// for BreakerTimeout.
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Geometry is the grid of a domain with the terrain of every cell.
type Geometry struct {
	Grid      interp.PointGrid
	elevation []float32 // [lat*nLon+lon], NaN for sea.
}

// ElevationAt returns the terrain of a cell.
func (g *Geometry) ElevationAt(p interp.GridPoint) domain.ElevationOrSea {
	v := g.elevation[p.Y*len(g.Grid.Lon)+p.X]
	if domain.IsNaN(v) {
		return domain.Sea()
	}
	return domain.Elevation(v)
}

// variableFile is the time axis of one variable file.
type variableFile struct {
	path    string
	times   []int64 // Unix seconds, ascending.
	missing bool
}

type seriesKey struct {
	variable string
	point    interp.GridPoint
}

// Store provides cached access to the files of one domain.
// It is safe for concurrent use.
type Store struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker

	geometry *Geometry
	files    map[string]*variableFile
	series   map[seriesKey][]float32 // Point values over the whole file time axis.
	mu       sync.RWMutex
}

// NewStore creates a new store for one domain.
func NewStore(cfg Config) *Store {
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	maxFailures := cfg.BreakerMaxFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gridded/" + cfg.Domain.String(),
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Warning: circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return &Store{
		cfg:     cfg,
		breaker: cb,
		files:   make(map[string]*variableFile),
		series:  make(map[seriesKey][]float32),
	}
}

// Domain returns the domain served by the store.
func (s *Store) Domain() domain.Domain {
	return s.cfg.Domain
}

// DtSeconds returns the native time step of the domain.
func (s *Store) DtSeconds() int {
	return s.cfg.DtSeconds
}

// Purge drops every cached grid, axis and series so new files are read on next access.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.geometry = nil
	s.files = make(map[string]*variableFile)
	s.series = make(map[seriesKey][]float32)
}

// CachedSeries returns the number of cached point series.
func (s *Store) CachedSeries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}

// Geometry returns the grid of the domain, loading it on first access.
func (s *Store) Geometry() (*Geometry, error) {
	s.mu.RLock()
	if g := s.geometry; g != nil {
		s.mu.RUnlock()
		return g, nil
	}
	s.mu.RUnlock()

	path := filepath.Join(s.cfg.Dir, elevationFile)
	g, err := execute(s, func() (*Geometry, error) { return loadGeometry(path) })
	if err != nil {
		return nil, fmt.Errorf("failed to load geometry of %s: %w", s.cfg.Domain, err)
	}

	s.mu.Lock()
	s.geometry = g
	s.mu.Unlock()
	return g, nil
}

// variable returns the time axis of a variable file. A missing file is cached
// as such.
func (s *Store) variable(name string) (*variableFile, error) {
	s.mu.RLock()
	if f, ok := s.files[name]; ok {
		s.mu.RUnlock()
		return f, nil
	}
	s.mu.RUnlock()

	path := filepath.Join(s.cfg.Dir, name+".nc")
	var f *variableFile
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f = &variableFile{path: path, missing: true}
	} else {
		loaded, err := execute(s, func() (*variableFile, error) { return loadTimeAxis(path) })
		if err != nil {
			return nil, fmt.Errorf("failed to load time axis of %s/%s: %w", s.cfg.Domain, name, err)
		}
		f = loaded
	}

	s.mu.Lock()
	s.files[name] = f
	s.mu.Unlock()
	return f, nil
}

// pointSeries returns every value of a variable at a cell.
func (s *Store) pointSeries(name string, f *variableFile, p interp.GridPoint) ([]float32, error) {
	key := seriesKey{variable: name, point: p}

	s.mu.RLock()
	if data, ok := s.series[key]; ok {
		s.mu.RUnlock()
		return data, nil
	}
	s.mu.RUnlock()

	data, err := execute(s, func() ([]float32, error) { return loadPointSeries(f.path, name, p, len(f.times)) })
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s at cell (%d, %d): %w", s.cfg.Domain, name, p.Y, p.X, err)
	}

	s.mu.Lock()
	s.series[key] = data
	s.mu.Unlock()
	return data, nil
}

// execute runs a file read through the circuit breaker of the store.
func execute[T any](s *Store, read func() (T, error)) (T, error) {
	var zero T
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return read()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return v, nil
}

func loadGeometry(path string) (*Geometry, error) {
	//nolint:gosec // G304: Path built from configured data directory.
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	lat, err := readAxis(nc, latNames)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := readAxis(nc, lonNames)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	if !sort.Float64sAreSorted(lat) || !sort.Float64sAreSorted(lon) {
		return nil, fmt.Errorf("coordinate axes must be ascending")
	}

	v, err := findVar(nc, []string{"elevation", "orography", "z"})
	if err != nil {
		return nil, err
	}
	lens, err := dimLens(v)
	if err != nil {
		return nil, err
	}
	if len(lens) != 2 || lens[0] != uint64(len(lat)) || lens[1] != uint64(len(lon)) {
		return nil, fmt.Errorf("elevation must be [lat, lon] = [%d, %d], got %v", len(lat), len(lon), lens)
	}
	elevation, err := readHyperslab(v, []uint64{0, 0}, lens)
	if err != nil {
		return nil, err
	}

	return &Geometry{
		Grid:      interp.PointGrid{Lat: lat, Lon: lon},
		elevation: elevation,
	}, nil
}

func loadTimeAxis(path string) (*variableFile, error) {
	//nolint:gosec // G304: Path built from configured data directory.
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	axis, err := readAxis(nc, timeNames)
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}
	times := make([]int64, len(axis))
	for i, t := range axis {
		times[i] = int64(t)
		if i > 0 && times[i] <= times[i-1] {
			return nil, fmt.Errorf("time axis must be strictly increasing")
		}
	}
	return &variableFile{path: path, times: times}, nil
}

//nolint:gosec // G115: Grid indices are non-negative.
func loadPointSeries(path, name string, p interp.GridPoint, nTime int) ([]float32, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	v, err := findVar(nc, []string{name, "data"})
	if err != nil {
		return nil, err
	}
	lens, err := dimLens(v)
	if err != nil {
		return nil, err
	}
	if len(lens) != 3 || lens[0] != uint64(nTime) {
		return nil, fmt.Errorf("data must be [time, lat, lon] with %d steps, got %v", nTime, lens)
	}
	if uint64(p.Y) >= lens[1] || uint64(p.X) >= lens[2] {
		return nil, fmt.Errorf("cell (%d, %d) outside data grid %v", p.Y, p.X, lens[1:])
	}

	return readHyperslab(v, []uint64{0, uint64(p.Y), uint64(p.X)}, []uint64{uint64(nTime), 1, 1})
}
