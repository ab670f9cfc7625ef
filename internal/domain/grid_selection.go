package domain

import (
	"fmt"
	"strings"
)

// GridSelectionMode controls which grid cell a reader picks for a location.
type GridSelectionMode int

const (
	// GridSelectionNearest picks the nearest cell regardless of land or sea.
	GridSelectionNearest GridSelectionMode = iota
	// GridSelectionLand prefers the nearest land cell.
	GridSelectionLand
	// GridSelectionSea prefers the nearest sea cell.
	GridSelectionSea
	// GridSelectionTerrainOptimised prefers the land cell whose elevation best
	// matches the target elevation.
	GridSelectionTerrainOptimised
)

// ParseGridSelectionMode parses the API spelling of a grid selection mode.
// An empty string selects the land mode.
func ParseGridSelectionMode(s string) (GridSelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "land":
		return GridSelectionLand, nil
	case "nearest":
		return GridSelectionNearest, nil
	case "sea":
		return GridSelectionSea, nil
	case "terrain_optimised", "terrain_optimized":
		return GridSelectionTerrainOptimised, nil
	default:
		return 0, fmt.Errorf("unknown cell selection %q (use land, sea, nearest or terrain_optimised)", s)
	}
}

func (m GridSelectionMode) String() string {
	switch m {
	case GridSelectionNearest:
		return "nearest"
	case GridSelectionLand:
		return "land"
	case GridSelectionSea:
		return "sea"
	case GridSelectionTerrainOptimised:
		return "terrain_optimised"
	default:
		return fmt.Sprintf("GridSelectionMode(%d)", int(m))
	}
}
