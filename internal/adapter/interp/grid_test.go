package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/forecast-api/internal/domain"
)

func testGrid() PointGrid {
	return PointGrid{
		Lat: []float64{45, 46, 47},
		Lon: []float64{7, 8, 9},
	}
}

// terrain maps [y][x] to an elevation; NaN marks sea.
func terrain(rows [][]float32) ElevationAt {
	return func(p GridPoint) domain.ElevationOrSea {
		v := rows[p.Y][p.X]
		if domain.IsNaN(v) {
			return domain.Sea()
		}
		return domain.Elevation(v)
	}
}

func TestPointGrid_Nearest(t *testing.T) {
	g := testGrid()

	tests := []struct {
		name     string
		lat, lon float64
		want     GridPoint
		ok       bool
	}{
		{"on centre", 46, 8, GridPoint{Y: 1, X: 1}, true},
		{"rounds to closest", 46.4, 8.6, GridPoint{Y: 1, X: 2}, true},
		{"half cell beyond edge", 47.4, 9.4, GridPoint{Y: 2, X: 2}, true},
		{"outside latitude", 48, 8, GridPoint{}, false},
		{"outside longitude", 46, 5, GridPoint{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.Nearest(tt.lat, tt.lon)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPointGrid_NearestWrapsLongitude(t *testing.T) {
	g := PointGrid{Lat: []float64{0, 1}, Lon: []float64{0, 90, 180, 270}}

	got, ok := g.Nearest(0, -90)
	require.True(t, ok)
	assert.Equal(t, 3, got.X)

	lat, lon := g.Coordinates(got)
	assert.Equal(t, 0.0, lat)
	assert.Equal(t, -90.0, lon)
}

func TestSelectGridPoint_Modes(t *testing.T) {
	nan := float32(math.NaN())
	g := testGrid()
	elev := terrain([][]float32{
		{nan, 300, 900},
		{nan, nan, 1500},
		{nan, 200, 2500},
	})

	tests := []struct {
		name   string
		mode   domain.GridSelectionMode
		lat    float64
		lon    float64
		target float32
		want   GridPoint
	}{
		{"nearest ignores terrain", domain.GridSelectionNearest, 46, 8, nan, GridPoint{Y: 1, X: 1}},
		{"land picks closest land cell", domain.GridSelectionLand, 46.1, 8, nan, GridPoint{Y: 1, X: 2}},
		{"sea keeps sea centre", domain.GridSelectionSea, 46, 8, nan, GridPoint{Y: 1, X: 1}},
		{"sea searches neighbours", domain.GridSelectionSea, 46, 9, nan, GridPoint{Y: 1, X: 1}},
		{"terrain matches target", domain.GridSelectionTerrainOptimised, 46, 8, 1400, GridPoint{Y: 1, X: 2}},
		{"terrain without target acts as land", domain.GridSelectionTerrainOptimised, 45.6, 8, nan, GridPoint{Y: 0, X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectGridPoint(g, elev, tt.lat, tt.lon, tt.target, tt.mode)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectGridPoint_FallsBackToNearest(t *testing.T) {
	nan := float32(math.NaN())
	g := testGrid()
	allSea := terrain([][]float32{
		{nan, nan, nan},
		{nan, nan, nan},
		{nan, nan, nan},
	})

	got, ok := SelectGridPoint(g, allSea, 46, 8, nan, domain.GridSelectionLand)
	require.True(t, ok)
	assert.Equal(t, GridPoint{Y: 1, X: 1}, got)
}

func TestSelectGridPoint_OutsideGrid(t *testing.T) {
	_, ok := SelectGridPoint(testGrid(), nil, 10, 10, 0, domain.GridSelectionLand)
	assert.False(t, ok)
}
