package gridded

import (
	"fmt"
	"math"
	"sort"

	"go.ngs.io/forecast-api/internal/adapter/interp"
	"go.ngs.io/forecast-api/internal/domain"
)

// Reader reads one grid cell of a domain. It implements mixer.Reader.
type Reader struct {
	store     *Store
	point     interp.GridPoint
	lat, lon  float32
	elevation domain.ElevationOrSea
	target    float32
}

// Point returns the selected grid cell.
func (r *Reader) Point() interp.GridPoint { return r.point }

// ModelLat returns the latitude of the selected grid cell.
func (r *Reader) ModelLat() float32 { return r.lat }

// ModelLon returns the longitude of the selected grid cell.
func (r *Reader) ModelLon() float32 { return r.lon }

// ModelElevation returns the terrain of the selected grid cell.
func (r *Reader) ModelElevation() domain.ElevationOrSea { return r.elevation }

// TargetElevation returns the elevation values are corrected to.
func (r *Reader) TargetElevation() float32 { return r.target }

// ModelDtSeconds returns the native time step of the domain.
func (r *Reader) ModelDtSeconds() int { return r.store.DtSeconds() }

// Domain returns the domain of the reader.
func (r *Reader) Domain() domain.Domain { return r.store.Domain() }

// Prefetch loads the time axis and point series of v.
func (r *Reader) Prefetch(v domain.MixableVariable, _ domain.TimeRange) error {
	variable, err := resolve(v)
	if err != nil {
		return err
	}
	f, err := r.store.variable(variable.Name)
	if err != nil {
		return err
	}
	if f.missing {
		if r.store.cfg.StrictVariables {
			return fmt.Errorf("%w: %s in %s", ErrVariableNotAvailable, variable.Name, r.store.Domain())
		}
		return nil
	}
	_, err = r.store.pointSeries(variable.Name, f, r.point)
	return err
}

// Get samples v at every step of t.
func (r *Reader) Get(v domain.MixableVariable, t domain.TimeRange) (domain.DataAndUnit, error) {
	variable, err := resolve(v)
	if err != nil {
		return domain.DataAndUnit{}, err
	}
	f, err := r.store.variable(variable.Name)
	if err != nil {
		return domain.DataAndUnit{}, err
	}
	if f.missing {
		if r.store.cfg.StrictVariables {
			return domain.DataAndUnit{}, fmt.Errorf("%w: %s in %s", ErrVariableNotAvailable, variable.Name, r.store.Domain())
		}
		return domain.NaNSeries(t.Count(), variable.Unit), nil
	}

	series, err := r.store.pointSeries(variable.Name, f, r.point)
	if err != nil {
		return domain.DataAndUnit{}, err
	}

	nearest := variable.Unit == domain.UnitDegreeDirection
	times := t.Times()
	out := make([]float32, len(times))
	for i, ts := range times {
		out[i] = sampleAt(f.times, series, ts.Unix(), nearest)
	}
	r.correctElevation(variable, out)

	return domain.NewDataAndUnit(out, variable.Unit), nil
}

// correctElevation shifts values from the cell elevation to the target elevation.
func (r *Reader) correctElevation(v domain.Variable, data []float32) {
	if !v.HasElevationCorrection() || !r.elevation.IsLand() || domain.IsNaN(r.target) {
		return
	}
	delta := v.LapseRate * (r.target - r.elevation.Numeric())
	for i := range data {
		data[i] += delta
	}
}

// resolve maps a mixable variable to its catalog entry.
func resolve(v domain.MixableVariable) (domain.Variable, error) {
	if variable, ok := v.(domain.Variable); ok {
		return variable, nil
	}
	variable, ok := domain.LookupVariable(v.String())
	if !ok {
		return domain.Variable{}, fmt.Errorf("unknown variable %q", v.String())
	}
	return variable, nil
}

// sampleAt maps ts onto the file axis: exact steps are returned as is, values
// between two steps are interpolated linearly or, for directions, taken from the
// closer step. Outside the axis the result is NaN.
func sampleAt(times []int64, values []float32, ts int64, nearest bool) float32 {
	n := len(times)
	if n == 0 || ts < times[0] || ts > times[n-1] {
		return float32(math.NaN())
	}
	i := sort.Search(n, func(i int) bool { return times[i] >= ts })
	if times[i] == ts {
		return values[i]
	}

	t0, t1 := times[i-1], times[i]
	v0, v1 := values[i-1], values[i]
	frac := float32(ts-t0) / float32(t1-t0)
	if nearest {
		if frac < 0.5 {
			return v0
		}
		return v1
	}
	return v0 + (v1-v0)*frac
}
