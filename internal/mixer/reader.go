// Package mixer combines the readers of several forecast domains into one
// virtual reader that prefers the highest resolution data at every time step.
package mixer

import "go.ngs.io/forecast-api/internal/domain"

// Reader exposes the data of one domain at one location.
type Reader interface {
	// ModelLat and ModelLon are the coordinates of the selected grid cell.
	ModelLat() float32
	ModelLon() float32

	// ModelElevation is the terrain elevation of the selected grid cell.
	ModelElevation() domain.ElevationOrSea

	// TargetElevation is the elevation values are corrected to. Fixed at construction.
	TargetElevation() float32

	// ModelDtSeconds is the native time step of the domain.
	ModelDtSeconds() int

	Domain() domain.Domain

	// Prefetch asks the reader to make data for the range ready. It returns no data.
	Prefetch(v domain.MixableVariable, t domain.TimeRange) error

	// Get returns one sample per step of t. Steps without coverage are NaN.
	Get(v domain.MixableVariable, t domain.TimeRange) (domain.DataAndUnit, error)
}

// ReaderFactory builds the reader of a domain for a location.
//
// A nil Reader with a nil error means the domain does not apply here, e.g. the
// location is outside its grid. Errors are reserved for real failures.
type ReaderFactory interface {
	MakeReader(d domain.Domain, lat, lon, elevation float32, mode domain.GridSelectionMode) (Reader, error)
}

// ReaderFactoryFunc adapts a function to ReaderFactory.
type ReaderFactoryFunc func(d domain.Domain, lat, lon, elevation float32, mode domain.GridSelectionMode) (Reader, error)

// MakeReader calls f.
func (f ReaderFactoryFunc) MakeReader(d domain.Domain, lat, lon, elevation float32, mode domain.GridSelectionMode) (Reader, error) {
	return f(d, lat, lon, elevation, mode)
}
