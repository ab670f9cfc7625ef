package interp

import (
	"errors"
	"math"
	"testing"
)

// TestBilinearInterpolate_CenterPoint tests interpolation at the center of a grid cell
func TestBilinearInterpolate_CenterPoint(t *testing.T) {
	cell := GridCell{
		X0: 0.0, X1: 2.0,
		Y0: 0.0, Y1: 2.0,
		V00: 1.0, V10: 3.0,
		V01: 5.0, V11: 7.0,
	}

	// At the center every corner weighs 0.25: 0.25 * (1 + 3 + 5 + 7) = 4.
	result, err := BilinearInterpolate(cell, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(result-4.0) > 1e-9 {
		t.Errorf("Center point: expected 4.0, got %.10f", result)
	}
}

// TestBilinearInterpolate_MissingCorners checks that NaN corners are ignored
func TestBilinearInterpolate_MissingCorners(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		cell     GridCell
		expected float64
	}{
		{
			name:     "one sea corner",
			cell:     GridCell{X0: 0, X1: 2, Y0: 0, Y1: 2, V00: nan, V10: 3, V01: 5, V11: 7},
			expected: 5.0,
		},
		{
			name:     "only one land corner",
			cell:     GridCell{X0: 0, X1: 2, Y0: 0, Y1: 2, V00: nan, V10: nan, V01: nan, V11: 100},
			expected: 100.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := BilinearInterpolate(tt.cell, 1.0, 1.0)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("expected %.10f, got %.10f", tt.expected, result)
			}
		})
	}
}

// TestBilinearInterpolate_AllCornersMissing tests the no data error
func TestBilinearInterpolate_AllCornersMissing(t *testing.T) {
	nan := math.NaN()
	cell := GridCell{X0: 0, X1: 1, Y0: 0, Y1: 1, V00: nan, V10: nan, V01: nan, V11: nan}

	result, err := BilinearInterpolate(cell, 0.5, 0.5)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if !math.IsNaN(result) {
		t.Errorf("expected NaN, got %v", result)
	}
}

// TestBilinearInterpolate_OutOfBounds tests error handling for out-of-bounds points
func TestBilinearInterpolate_OutOfBounds(t *testing.T) {
	cell := GridCell{
		X0: 0.0, X1: 10.0,
		Y0: 0.0, Y1: 10.0,
		V00: 1.0, V10: 2.0,
		V01: 3.0, V11: 4.0,
	}

	tests := []struct {
		x, y float64
		name string
	}{
		{-1.0, 5.0, "x too small"},
		{11.0, 5.0, "x too large"},
		{5.0, -1.0, "y too small"},
		{5.0, 11.0, "y too large"},
	}

	for _, tt := range tests {
		if _, err := BilinearInterpolate(cell, tt.x, tt.y); err == nil {
			t.Errorf("%s: expected error for point (%.1f, %.1f), got nil", tt.name, tt.x, tt.y)
		}
	}
}

// TestGrid2D_InterpolateAt tests 2D grid interpolation
func TestGrid2D_InterpolateAt(t *testing.T) {
	grid := &Grid2D{
		X: []float64{0.0, 1.0, 2.0, 3.0},
		Y: []float64{0.0, 1.0, 2.0},
		Values: [][]float64{
			{1.0, 2.0, 3.0, 4.0},  // y=0
			{4.0, 5.0, 6.0, 7.0},  // y=1
			{7.0, 8.0, 9.0, 10.0}, // y=2
		},
	}

	tests := []struct {
		x, y     float64
		expected float64
	}{
		{0.0, 0.0, 1.0},
		{1.0, 0.0, 2.0},
		{3.0, 0.0, 4.0},
		{1.0, 1.0, 5.0},
		{3.0, 2.0, 10.0},
		{0.5, 0.5, 3.0},
		{2.5, 1.5, 8.0},
	}

	for _, tt := range tests {
		result, err := grid.InterpolateAt(tt.x, tt.y)
		if err != nil {
			t.Fatalf("Unexpected error at (%.1f, %.1f): %v", tt.x, tt.y, err)
		}
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("At (%.1f, %.1f): expected %.10f, got %.10f", tt.x, tt.y, tt.expected, result)
		}
	}

	if _, err := grid.InterpolateAt(3.5, 1.0); err == nil {
		t.Errorf("expected error outside grid")
	}
}

// TestGrid2D_Validate tests grid validation
func TestGrid2D_Validate(t *testing.T) {
	tests := []struct {
		name    string
		grid    *Grid2D
		wantErr bool
	}{
		{
			name: "valid grid",
			grid: &Grid2D{
				X:      []float64{0.0, 1.0, 2.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1, 2, 3}, {4, 5, 6}},
			},
		},
		{
			name: "too few X coords",
			grid: &Grid2D{
				X:      []float64{0.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1}, {2}},
			},
			wantErr: true,
		},
		{
			name: "mismatched column count",
			grid: &Grid2D{
				X:      []float64{0.0, 1.0, 2.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1, 2}, {3, 4}},
			},
			wantErr: true,
		},
		{
			name: "descending Y",
			grid: &Grid2D{
				X:      []float64{0.0, 1.0},
				Y:      []float64{1.0, 0.0},
				Values: [][]float64{{1, 2}, {3, 4}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grid.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
