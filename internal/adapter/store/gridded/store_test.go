package gridded

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/forecast-api/internal/adapter/interp"
	"go.ngs.io/forecast-api/internal/domain"
)

const fill = float32(-9999)

var (
	testLat = []float64{45, 46}
	testLon = []float64{7, 8}
	t0      = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

// writeElevation creates elevation.nc; fill marks sea cells.
func writeElevation(t *testing.T, dir string, values [][]float32) {
	t.Helper()
	f, err := netcdf.CreateFile(filepath.Join(dir, elevationFile), netcdf.CLOBBER)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	latDim, _ := f.AddDim("lat", uint64(len(testLat)))
	lonDim, _ := f.AddDim("lon", uint64(len(testLon)))
	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	velev, _ := f.AddVar("elevation", netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	require.NoError(t, velev.Attr("_FillValue").WriteFloat32s([]float32{fill}))
	require.NoError(t, f.EndDef())

	require.NoError(t, vlat.WriteFloat64s(testLat))
	require.NoError(t, vlon.WriteFloat64s(testLon))
	flat := make([]float32, 0, len(testLat)*len(testLon))
	for _, row := range values {
		flat = append(flat, row...)
	}
	require.NoError(t, velev.WriteFloat32s(flat))
}

// writeVariable creates <name>.nc with data[time][lat][lon].
func writeVariable(t *testing.T, dir, name string, steps int, value func(step, y, x int) float32) {
	t.Helper()
	f, err := netcdf.CreateFile(filepath.Join(dir, name+".nc"), netcdf.CLOBBER)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	timeDim, _ := f.AddDim("time", uint64(steps))
	latDim, _ := f.AddDim("lat", uint64(len(testLat)))
	lonDim, _ := f.AddDim("lon", uint64(len(testLon)))
	vtime, _ := f.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	vdata, _ := f.AddVar(name, netcdf.FLOAT, []netcdf.Dim{timeDim, latDim, lonDim})
	require.NoError(t, vdata.Attr("_FillValue").WriteFloat32s([]float32{fill}))
	require.NoError(t, f.EndDef())

	times := make([]float64, steps)
	for i := range times {
		times[i] = float64(t0.Add(time.Duration(i) * time.Hour).Unix())
	}
	require.NoError(t, vtime.WriteFloat64s(times))
	require.NoError(t, vlat.WriteFloat64s(testLat))
	require.NoError(t, vlon.WriteFloat64s(testLon))

	flat := make([]float32, 0, steps*len(testLat)*len(testLon))
	for i := 0; i < steps; i++ {
		for y := range testLat {
			for x := range testLon {
				flat = append(flat, value(i, y, x))
			}
		}
	}
	require.NoError(t, vdata.WriteFloat32s(flat))
}

// cellValue encodes step and cell so samples are easy to predict.
func cellValue(step, y, x int) float32 {
	if step == 2 && y == 1 && x == 1 {
		return fill
	}
	return float32(10*step + 2*y + x)
}

func newTestRegistry(t *testing.T, strict bool) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	writeElevation(t, dir, [][]float32{
		{100, fill},
		{500, 1000},
	})
	writeVariable(t, dir, "wave_height", 3, cellValue)
	writeVariable(t, dir, "temperature_2m", 3, cellValue)

	return NewRegistry(Config{
		Domain:          "test_domain",
		Dir:             dir,
		DtSeconds:       3600,
		StrictVariables: strict,
	}), dir
}

func makeReader(t *testing.T, r *Registry, lat, lon, elevation float32, mode domain.GridSelectionMode) *Reader {
	t.Helper()
	reader, err := r.MakeReader("test_domain", lat, lon, elevation, mode)
	require.NoError(t, err)
	require.NotNil(t, reader)
	return reader.(*Reader)
}

func nan() float32 { return float32(math.NaN()) }

func assertSamples(t *testing.T, want, got []float32) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if domain.IsNaN(want[i]) {
			assert.True(t, domain.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-4, "index %d", i)
	}
}

func TestRegistry_MakeReader(t *testing.T) {
	r, _ := newTestRegistry(t, false)

	reader := makeReader(t, r, 46, 8, nan(), domain.GridSelectionNearest)
	assert.Equal(t, interp.GridPoint{Y: 1, X: 1}, reader.Point())
	assert.Equal(t, float32(46), reader.ModelLat())
	assert.Equal(t, float32(8), reader.ModelLon())
	assert.Equal(t, domain.Elevation(1000), reader.ModelElevation())
	assert.True(t, domain.IsNaN(reader.TargetElevation()))
	assert.Equal(t, 3600, reader.ModelDtSeconds())
	assert.Equal(t, domain.Domain("test_domain"), reader.Domain())
}

func TestRegistry_MakeReaderOutsideGrid(t *testing.T) {
	r, _ := newTestRegistry(t, false)

	reader, err := r.MakeReader("test_domain", 10, 100, nan(), domain.GridSelectionLand)
	require.NoError(t, err)
	assert.Nil(t, reader)
}

func TestRegistry_MakeReaderUnknownDomain(t *testing.T) {
	r, _ := newTestRegistry(t, false)

	_, err := r.MakeReader("other", 46, 8, nan(), domain.GridSelectionLand)
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestRegistry_MakeReaderSelectsLandOrSea(t *testing.T) {
	r, _ := newTestRegistry(t, false)

	land := makeReader(t, r, 45.1, 7.9, nan(), domain.GridSelectionLand)
	assert.Equal(t, interp.GridPoint{Y: 0, X: 0}, land.Point())
	assert.Equal(t, domain.Elevation(100), land.ModelElevation())

	sea := makeReader(t, r, 45.1, 7.9, nan(), domain.GridSelectionSea)
	assert.Equal(t, interp.GridPoint{Y: 0, X: 1}, sea.Point())
	assert.True(t, sea.ModelElevation().IsSea())
}

func TestReader_GetInterpolatesBetweenSteps(t *testing.T) {
	r, _ := newTestRegistry(t, false)
	reader := makeReader(t, r, 46, 7, nan(), domain.GridSelectionNearest)

	v, _ := domain.LookupVariable("wave_height")
	got, err := reader.Get(v, domain.NewTimeRange(t0, t0.Add(2*time.Hour), 30*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, domain.UnitMetre, got.Unit)
	assertSamples(t, []float32{2, 7, 12, 17}, got.Data)
}

func TestReader_GetOutsideCoverageAndFillValues(t *testing.T) {
	r, _ := newTestRegistry(t, false)
	reader := makeReader(t, r, 46, 8, nan(), domain.GridSelectionNearest)
	v, _ := domain.LookupVariable("wave_height")

	got, err := reader.Get(v, domain.NewTimeRange(t0.Add(-time.Hour), t0.Add(time.Hour), time.Hour))
	require.NoError(t, err)
	assertSamples(t, []float32{nan(), 3}, got.Data)

	got, err = reader.Get(v, domain.NewTimeRange(t0.Add(time.Hour), t0.Add(4*time.Hour), 30*time.Minute))
	require.NoError(t, err)
	assertSamples(t, []float32{13, nan(), nan(), nan(), nan(), nan()}, got.Data)
}

func TestReader_GetMissingVariable(t *testing.T) {
	v, _ := domain.LookupVariable("snow_depth")
	tr := domain.NewTimeRange(t0, t0.Add(3*time.Hour), time.Hour)

	r, _ := newTestRegistry(t, false)
	reader := makeReader(t, r, 46, 8, nan(), domain.GridSelectionNearest)
	got, err := reader.Get(v, tr)
	require.NoError(t, err)
	assert.Equal(t, domain.UnitMetre, got.Unit)
	assertSamples(t, []float32{nan(), nan(), nan()}, got.Data)
	require.NoError(t, reader.Prefetch(v, tr))

	strict, _ := newTestRegistry(t, true)
	reader = makeReader(t, strict, 46, 8, nan(), domain.GridSelectionNearest)
	_, err = reader.Get(v, tr)
	assert.ErrorIs(t, err, ErrVariableNotAvailable)
	assert.ErrorIs(t, reader.Prefetch(v, tr), ErrVariableNotAvailable)
}

func TestReader_GetAppliesLapseRate(t *testing.T) {
	r, _ := newTestRegistry(t, false)
	v, _ := domain.LookupVariable("temperature_2m")
	tr := domain.NewTimeRange(t0, t0.Add(2*time.Hour), time.Hour)

	// Cell (1,1) sits at 1000 m; a target at sea level is 6.5 degrees warmer.
	reader := makeReader(t, r, 46, 8, 0, domain.GridSelectionNearest)
	got, err := reader.Get(v, tr)
	require.NoError(t, err)
	assertSamples(t, []float32{9.5, 19.5}, got.Data)

	// Without a target elevation values stay at cell elevation.
	reader = makeReader(t, r, 46, 8, nan(), domain.GridSelectionNearest)
	got, err = reader.Get(v, tr)
	require.NoError(t, err)
	assertSamples(t, []float32{3, 13}, got.Data)

	// Sea cells are never corrected.
	reader = makeReader(t, r, 45, 8, 0, domain.GridSelectionNearest)
	got, err = reader.Get(v, tr)
	require.NoError(t, err)
	assertSamples(t, []float32{1, 11}, got.Data)
}

func TestReader_PrefetchWarmsCacheAndPurgeDropsIt(t *testing.T) {
	r, dir := newTestRegistry(t, false)
	reader := makeReader(t, r, 46, 7, nan(), domain.GridSelectionNearest)
	s, ok := r.Store("test_domain")
	require.True(t, ok)

	v, _ := domain.LookupVariable("wave_height")
	tr := domain.NewTimeRange(t0, t0.Add(time.Hour), time.Hour)

	assert.Equal(t, 0, s.CachedSeries())
	require.NoError(t, reader.Prefetch(v, tr))
	assert.Equal(t, 1, s.CachedSeries())

	// Served from cache once the file is gone.
	require.NoError(t, os.Remove(filepath.Join(dir, "wave_height.nc")))
	got, err := reader.Get(v, tr)
	require.NoError(t, err)
	assertSamples(t, []float32{2}, got.Data)

	r.Purge()
	assert.Equal(t, 0, s.CachedSeries())
	got, err = reader.Get(v, tr)
	require.NoError(t, err)
	assertSamples(t, []float32{nan()}, got.Data)
}

func TestStore_BreakerOpensAfterFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, elevationFile), []byte("not netcdf"), 0o600))

	s := NewStore(Config{Domain: "broken", Dir: dir, DtSeconds: 3600, BreakerMaxFailures: 1, BreakerTimeout: time.Minute})

	_, err := s.Geometry()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)

	_, err = s.Geometry()
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSampleAt(t *testing.T) {
	times := []int64{0, 100, 200}
	values := []float32{0, 10, 350}

	tests := []struct {
		name    string
		ts      int64
		nearest bool
		want    float32
	}{
		{"exact", 100, false, 10},
		{"linear", 50, false, 5},
		{"nearest before midpoint", 120, true, 10},
		{"nearest after midpoint", 160, true, 350},
		{"last step", 200, false, 350},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, sampleAt(times, values, tt.ts, tt.nearest), 1e-5)
		})
	}

	assert.True(t, domain.IsNaN(sampleAt(times, values, -1, false)))
	assert.True(t, domain.IsNaN(sampleAt(times, values, 201, false)))
	assert.True(t, domain.IsNaN(sampleAt(nil, nil, 0, false)))
}
