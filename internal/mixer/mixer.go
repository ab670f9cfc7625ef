package mixer

import (
	"fmt"
	"slices"

	"go.ngs.io/forecast-api/internal/domain"
)

// Mixer fuses readers ordered from the coarsest to the finest domain.
//
// A Mixer is not safe for concurrent use. It holds no state besides its readers,
// so independent requests should each build their own.
type Mixer struct {
	readers []Reader
}

var _ Reader = (*Mixer)(nil)

// New builds one reader per domain. Domains are ordered coarse to fine; the last
// one has the highest resolution and takes priority.
//
// Readers are created finest first. If elevation is NaN it is set to the model
// elevation of the first reader that reports one, so every coarser reader
// corrects to the same target elevation. Domains whose factory returns a nil
// reader are skipped. ErrNoReaderAvailable is returned if none is left.
func New(factory ReaderFactory, domains []domain.Domain, lat, lon, elevation float32, mode domain.GridSelectionMode) (*Mixer, error) {
	readers := make([]Reader, 0, len(domains))
	for i := len(domains) - 1; i >= 0; i-- {
		r, err := factory.MakeReader(domains[i], lat, lon, elevation, mode)
		if err != nil {
			return nil, fmt.Errorf("failed to create reader for domain %s: %w", domains[i], err)
		}
		if r == nil {
			continue
		}
		if domain.IsNaN(elevation) {
			elevation = r.ModelElevation().Numeric()
		}
		readers = append(readers, r)
	}
	slices.Reverse(readers)
	return NewFromReaders(readers)
}

// NewFromReaders wraps readers that are already ordered coarse to fine.
func NewFromReaders(readers []Reader) (*Mixer, error) {
	if len(readers) == 0 {
		return nil, ErrNoReaderAvailable
	}
	return &Mixer{readers: readers}, nil
}

// Readers returns the member readers, coarsest first.
func (m *Mixer) Readers() []Reader {
	return slices.Clone(m.readers)
}

func (m *Mixer) finest() Reader {
	return m.readers[len(m.readers)-1]
}

// ModelLat returns the grid latitude of the finest reader.
func (m *Mixer) ModelLat() float32 {
	return m.finest().ModelLat()
}

// ModelLon returns the grid longitude of the finest reader.
func (m *Mixer) ModelLon() float32 {
	return m.finest().ModelLon()
}

// ModelElevation returns the cell elevation of the finest reader.
func (m *Mixer) ModelElevation() domain.ElevationOrSea {
	return m.finest().ModelElevation()
}

// TargetElevation returns the target elevation of the finest reader.
func (m *Mixer) TargetElevation() float32 {
	return m.finest().TargetElevation()
}

// ModelDtSeconds returns the time step of the coarsest reader.
func (m *Mixer) ModelDtSeconds() int {
	return m.readers[0].ModelDtSeconds()
}

// Domain returns the domain of the finest reader.
func (m *Mixer) Domain() domain.Domain {
	return m.finest().Domain()
}

// Prefetch forwards to every reader in order and stops at the first error.
func (m *Mixer) Prefetch(v domain.MixableVariable, t domain.TimeRange) error {
	for _, r := range m.readers {
		if err := r.Prefetch(v, t); err != nil {
			return fmt.Errorf("failed to prefetch %s from domain %s: %w", v, r.Domain(), err)
		}
	}
	return nil
}

// PrefetchAll prefetches several variables.
func (m *Mixer) PrefetchAll(vs []domain.MixableVariable, t domain.TimeRange) error {
	for _, v := range vs {
		if err := m.Prefetch(v, t); err != nil {
			return err
		}
	}
	return nil
}

// Get reads v from the finest reader and fills its missing steps from coarser
// readers. Coarser readers are only consulted while missing steps remain.
//
// Cumulative variables are merged on first differences so that domains with
// different baselines do not introduce jumps.
func (m *Mixer) Get(v domain.MixableVariable, t domain.TimeRange) (domain.DataAndUnit, error) {
	deltaCoded := v.RequiresOffsetCorrectionForMixing()

	var (
		data  []float32
		unit  domain.SiUnit
		found bool
	)
	for i := len(m.readers) - 1; i >= 0; i-- {
		r := m.readers[i]
		d, err := r.Get(v, t)
		if err != nil {
			return domain.DataAndUnit{}, fmt.Errorf("failed to read %s from domain %s: %w", v, r.Domain(), err)
		}
		switch {
		case !found:
			// Readers may cache their series, so the merge works on a copy.
			data = slices.Clone(d.Data)
			unit = d.Unit
			found = true
			if deltaCoded {
				deltaEncode(data)
			}
		case deltaCoded:
			integrateIfNaNDeltaCoded(data, d.Data)
		default:
			integrateIfNaN(data, d.Data)
		}
		if !domain.ContainsNaN(data) {
			break
		}
	}
	if !found {
		return domain.DataAndUnit{}, fmt.Errorf("%w: no data for variable %s", ErrInvariantViolation, v)
	}
	if deltaCoded {
		deltaDecode(data)
	}
	return domain.NewDataAndUnit(data, unit), nil
}
