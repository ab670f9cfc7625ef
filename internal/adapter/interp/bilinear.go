// Package interp provides grid geometry helpers: bilinear interpolation of
// terrain grids and grid cell selection for model readers.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoData is returned when every corner of a cell is missing.
var ErrNoData = errors.New("no valid grid values around point")

// GridCell represents a cell in a regular grid with four corner values.
// Corner values may be NaN, e.g. sea cells of a terrain model.
type GridCell struct {
	X0, X1 float64 // X boundaries (longitude).
	Y0, Y1 float64 // Y boundaries (latitude).

	// V00 is the value at (X0, Y0), V10 at (X1, Y0), V01 at (X0, Y1), V11 at (X1, Y1).
	V00, V10, V01, V11 float64
}

// BilinearInterpolate performs bilinear interpolation within a grid cell:
//
//	f(x,y) ≈ (1-t)(1-u)f(x0,y0) + t(1-u)f(x1,y0) + (1-t)u*f(x0,y1) + tu*f(x1,y1)
//
// with t = (x-x0)/(x1-x0) and u = (y-y0)/(y1-y0). NaN corners are left out and
// the remaining weights renormalised.
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	if cell.X1 <= cell.X0 {
		return 0, fmt.Errorf("invalid grid cell: X1 must be > X0")
	}
	if cell.Y1 <= cell.Y0 {
		return 0, fmt.Errorf("invalid grid cell: Y1 must be > Y0")
	}

	const epsilon = 1e-9
	if x < cell.X0-epsilon || x > cell.X1+epsilon {
		return 0, fmt.Errorf("x coordinate %.6f is outside grid cell [%.6f, %.6f]", x, cell.X0, cell.X1)
	}
	if y < cell.Y0-epsilon || y > cell.Y1+epsilon {
		return 0, fmt.Errorf("y coordinate %.6f is outside grid cell [%.6f, %.6f]", y, cell.Y0, cell.Y1)
	}

	t := math.Max(0, math.Min(1, (x-cell.X0)/(cell.X1-cell.X0)))
	u := math.Max(0, math.Min(1, (y-cell.Y0)/(cell.Y1-cell.Y0)))

	corners := [4]struct{ w, v float64 }{
		{(1 - t) * (1 - u), cell.V00},
		{t * (1 - u), cell.V10},
		{(1 - t) * u, cell.V01},
		{t * u, cell.V11},
	}
	var sum, weight float64
	for _, c := range corners {
		if math.IsNaN(c.v) || c.w == 0 {
			continue
		}
		sum += c.w * c.v
		weight += c.w
	}
	if weight == 0 {
		return math.NaN(), ErrNoData
	}
	return sum / weight, nil
}

// Grid2D represents a regular 2D grid with strictly increasing axes.
type Grid2D struct {
	X      []float64   // Longitudes.
	Y      []float64   // Latitudes.
	Values [][]float64 // Values[i][j] corresponds to (X[j], Y[i]).
}

// Validate checks if the grid is valid.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 {
		return fmt.Errorf("grid must have at least 2 X coordinates")
	}
	if len(g.Y) < 2 {
		return fmt.Errorf("grid must have at least 2 Y coordinates")
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("number of value rows (%d) must match Y coordinates (%d)", len(g.Values), len(g.Y))
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(g.X))
		}
	}
	if !strictlyIncreasing(g.X) {
		return fmt.Errorf("X coordinates must be strictly increasing")
	}
	if !strictlyIncreasing(g.Y) {
		return fmt.Errorf("Y coordinates must be strictly increasing")
	}
	return nil
}

// InterpolateAt performs bilinear interpolation at a given point.
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("invalid grid: %w", err)
	}

	xIdx, ok := cellIndex(g.X, x)
	if !ok {
		return 0, fmt.Errorf("x coordinate %.6f is outside grid range [%.6f, %.6f]", x, g.X[0], g.X[len(g.X)-1])
	}
	yIdx, ok := cellIndex(g.Y, y)
	if !ok {
		return 0, fmt.Errorf("y coordinate %.6f is outside grid range [%.6f, %.6f]", y, g.Y[0], g.Y[len(g.Y)-1])
	}

	cell := GridCell{
		X0:  g.X[xIdx],
		X1:  g.X[xIdx+1],
		Y0:  g.Y[yIdx],
		Y1:  g.Y[yIdx+1],
		V00: g.Values[yIdx][xIdx],
		V10: g.Values[yIdx][xIdx+1],
		V01: g.Values[yIdx+1][xIdx],
		V11: g.Values[yIdx+1][xIdx+1],
	}
	return BilinearInterpolate(cell, x, y)
}

// cellIndex returns i such that axis[i] <= v <= axis[i+1].
func cellIndex(axis []float64, v float64) (int, bool) {
	n := len(axis)
	if n < 2 || v < axis[0] || v > axis[n-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(axis, v)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i, true
}

func strictlyIncreasing(axis []float64) bool {
	for i := 1; i < len(axis); i++ {
		if axis[i] <= axis[i-1] {
			return false
		}
	}
	return true
}
