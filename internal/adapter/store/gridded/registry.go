package gridded

import (
	"fmt"
	"path/filepath"
	"time"

	"go.ngs.io/forecast-api/internal/adapter/interp"
	"go.ngs.io/forecast-api/internal/adapter/store"
	"go.ngs.io/forecast-api/internal/domain"
	"go.ngs.io/forecast-api/internal/mixer"
)

// Options are shared by every store of a registry.
type Options struct {
	StrictVariables    bool
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Registry holds the stores of all domains and builds readers for the mixer.
type Registry struct {
	stores map[domain.Domain]*Store
}

// NewRegistry creates a registry from explicit store configurations.
func NewRegistry(configs ...Config) *Registry {
	r := &Registry{stores: make(map[domain.Domain]*Store, len(configs))}
	for _, cfg := range configs {
		r.stores[cfg.Domain] = NewStore(cfg)
	}
	return r
}

// NewRegistryFromCatalog creates one store per catalog domain. Domain
// directories are resolved relative to dataDir.
func NewRegistryFromCatalog(cat *store.Catalog, dataDir string, opts Options) *Registry {
	domains := cat.Domains()
	configs := make([]Config, 0, len(domains))
	for _, d := range domains {
		configs = append(configs, Config{
			Domain:             d.Domain,
			Dir:                filepath.Join(dataDir, d.Directory),
			DtSeconds:          d.DtSeconds,
			StrictVariables:    opts.StrictVariables,
			BreakerMaxFailures: opts.BreakerMaxFailures,
			BreakerTimeout:     opts.BreakerTimeout,
		})
	}
	return NewRegistry(configs...)
}

// Store returns the store of a domain.
func (r *Registry) Store(d domain.Domain) (*Store, bool) {
	s, ok := r.stores[d]
	return s, ok
}

// Purge clears the caches of every store.
func (r *Registry) Purge() {
	for _, s := range r.stores {
		s.Purge()
	}
}

// MakeReader implements mixer.ReaderFactory. It returns a nil reader when the
// location is outside the grid of the domain.
func (r *Registry) MakeReader(d domain.Domain, lat, lon, elevation float32, mode domain.GridSelectionMode) (mixer.Reader, error) {
	s, ok := r.stores[d]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, d)
	}
	g, err := s.Geometry()
	if err != nil {
		return nil, err
	}

	p, ok := interp.SelectGridPoint(g.Grid, g.ElevationAt, float64(lat), float64(lon), elevation, mode)
	if !ok {
		return nil, nil
	}
	cellLat, cellLon := g.Grid.Coordinates(p)

	return &Reader{
		store:     s,
		point:     p,
		lat:       float32(cellLat),
		lon:       float32(cellLon),
		elevation: g.ElevationAt(p),
		target:    elevation,
	}, nil
}
