package domain

import (
	"fmt"
	"math"
)

type elevationKind uint8

const (
	elevationNoData elevationKind = iota
	elevationSea
	elevationLand
)

// ElevationOrSea is the terrain elevation of a model grid cell. A cell may be
// land with an elevation in metres, sea, or carry no elevation information at all.
// The zero value is "no data".
type ElevationOrSea struct {
	kind  elevationKind
	value float32
}

// Elevation returns a land elevation in metres.
func Elevation(metres float32) ElevationOrSea {
	if IsNaN(metres) {
		return NoElevationData()
	}
	return ElevationOrSea{kind: elevationLand, value: metres}
}

// Sea returns the elevation of a sea cell.
func Sea() ElevationOrSea {
	return ElevationOrSea{kind: elevationSea}
}

// NoElevationData returns an elevation without information.
func NoElevationData() ElevationOrSea {
	return ElevationOrSea{kind: elevationNoData}
}

// IsSea reports whether the cell is sea.
func (e ElevationOrSea) IsSea() bool {
	return e.kind == elevationSea
}

// IsLand reports whether the cell carries a land elevation.
func (e ElevationOrSea) IsLand() bool {
	return e.kind == elevationLand
}

// HasData reports whether any elevation information is present.
func (e ElevationOrSea) HasData() bool {
	return e.kind != elevationNoData
}

// Numeric maps the elevation to metres: sea is 0 and missing data is NaN.
func (e ElevationOrSea) Numeric() float32 {
	switch e.kind {
	case elevationLand:
		return e.value
	case elevationSea:
		return 0
	default:
		return float32(math.NaN())
	}
}

func (e ElevationOrSea) String() string {
	switch e.kind {
	case elevationLand:
		return fmt.Sprintf("%.1fm", e.value)
	case elevationSea:
		return "sea"
	default:
		return "no data"
	}
}
