package interp

import (
	"math"
	"sort"

	"go.ngs.io/forecast-api/internal/domain"
)

// PointGrid holds the cell centre axes of a model grid. Both axes must be
// strictly increasing.
type PointGrid struct {
	Lat []float64
	Lon []float64
}

// GridPoint addresses one cell of a PointGrid.
type GridPoint struct {
	Y int // Latitude index.
	X int // Longitude index.
}

// ElevationAt returns the terrain of a grid cell.
type ElevationAt func(p GridPoint) domain.ElevationOrSea

// Coordinates returns the cell centre of p with longitude in [-180, 180).
func (g PointGrid) Coordinates(p GridPoint) (lat, lon float64) {
	return g.Lat[p.Y], NormalizeLon180(g.Lon[p.X])
}

// Nearest returns the cell containing (lat, lon). The grid extends half a cell
// beyond its outermost centres; points further out are not covered.
func (g PointGrid) Nearest(lat, lon float64) (GridPoint, bool) {
	y, ok := nearestIndex(g.Lat, lat)
	if !ok {
		return GridPoint{}, false
	}
	x, ok := nearestIndex(g.Lon, NormalizeLonForAxis(g.Lon, lon))
	if !ok {
		return GridPoint{}, false
	}
	return GridPoint{Y: y, X: x}, true
}

// SelectGridPoint picks the cell a reader should use for (lat, lon).
//
// Besides the nearest cell, the 3x3 neighbourhood around it is searched:
// land prefers the closest land cell, sea the closest sea cell and
// terrain_optimised the land cell whose elevation is closest to target. When no
// neighbour qualifies, the nearest cell is used.
func SelectGridPoint(g PointGrid, elevation ElevationAt, lat, lon float64, target float32, mode domain.GridSelectionMode) (GridPoint, bool) {
	center, ok := g.Nearest(lat, lon)
	if !ok {
		return GridPoint{}, false
	}
	if mode == domain.GridSelectionNearest || elevation == nil {
		return center, true
	}

	candidates := g.neighbourhood(center, lat, lon)
	switch mode {
	case domain.GridSelectionSea:
		for _, p := range candidates {
			if elevation(p).IsSea() {
				return p, true
			}
		}
	case domain.GridSelectionTerrainOptimised:
		if !domain.IsNaN(target) {
			best, bestDiff := center, float32(math.Inf(1))
			for _, p := range candidates {
				e := elevation(p)
				if !e.IsLand() {
					continue
				}
				diff := float32(math.Abs(float64(e.Numeric() - target)))
				if diff < bestDiff {
					best, bestDiff = p, diff
				}
			}
			return best, true
		}
		fallthrough
	default:
		for _, p := range candidates {
			if elevation(p).IsLand() {
				return p, true
			}
		}
	}
	return center, true
}

// neighbourhood returns the cells around center ordered by distance to (lat, lon).
func (g PointGrid) neighbourhood(center GridPoint, lat, lon float64) []GridPoint {
	lon = NormalizeLonForAxis(g.Lon, lon)
	cosLat := math.Cos(lat * math.Pi / 180)

	type candidate struct {
		p    GridPoint
		dist float64
	}
	out := make([]candidate, 0, 9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			y, x := center.Y+dy, center.X+dx
			if y < 0 || y >= len(g.Lat) || x < 0 || x >= len(g.Lon) {
				continue
			}
			dLat := g.Lat[y] - lat
			dLon := (g.Lon[x] - lon) * cosLat
			out = append(out, candidate{GridPoint{Y: y, X: x}, dLat*dLat + dLon*dLon})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].dist < out[j].dist })

	points := make([]GridPoint, len(out))
	for i, c := range out {
		points[i] = c.p
	}
	return points
}

// nearestIndex finds the index of the value closest to target in a sorted axis.
func nearestIndex(axis []float64, target float64) (int, bool) {
	n := len(axis)
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return 0, target == axis[0]
	}
	lowHalf := (axis[1] - axis[0]) / 2
	highHalf := (axis[n-1] - axis[n-2]) / 2
	if target < axis[0]-lowHalf || target > axis[n-1]+highHalf {
		return 0, false
	}

	i := sort.SearchFloat64s(axis, target)
	if i >= n {
		return n - 1, true
	}
	if i > 0 && math.Abs(axis[i-1]-target) <= math.Abs(axis[i]-target) {
		return i - 1, true
	}
	return i, true
}
