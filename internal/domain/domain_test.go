package domain

import (
	"math"
	"testing"
	"time"
)

// TestElevationOrSea tests the numeric mapping of cell elevations.
func TestElevationOrSea(t *testing.T) {
	tests := []struct {
		name    string
		e       ElevationOrSea
		land    bool
		sea     bool
		hasData bool
		numeric float32
	}{
		{"land", Elevation(812.5), true, false, true, 812.5},
		{"land below sea level", Elevation(-20), true, false, true, -20},
		{"sea", Sea(), false, true, true, 0},
		{"no data", NoElevationData(), false, false, false, float32(math.NaN())},
		{"NaN elevation is no data", Elevation(float32(math.NaN())), false, false, false, float32(math.NaN())},
		{"zero value is no data", ElevationOrSea{}, false, false, false, float32(math.NaN())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsLand(); got != tt.land {
				t.Errorf("IsLand() = %v, want %v", got, tt.land)
			}
			if got := tt.e.IsSea(); got != tt.sea {
				t.Errorf("IsSea() = %v, want %v", got, tt.sea)
			}
			if got := tt.e.HasData(); got != tt.hasData {
				t.Errorf("HasData() = %v, want %v", got, tt.hasData)
			}
			got := tt.e.Numeric()
			if IsNaN(tt.numeric) {
				if !IsNaN(got) {
					t.Errorf("Numeric() = %v, want NaN", got)
				}
			} else if got != tt.numeric {
				t.Errorf("Numeric() = %v, want %v", got, tt.numeric)
			}
		})
	}
}

// TestTimeRange_Count tests step counting of half-open ranges.
func TestTimeRange_Count(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tr   TimeRange
		want int
	}{
		{"exact multiple", NewTimeRange(t0, t0.Add(24*time.Hour), time.Hour), 24},
		{"partial last step", NewTimeRange(t0, t0.Add(90*time.Minute), time.Hour), 2},
		{"single step", NewTimeRange(t0, t0.Add(time.Minute), time.Hour), 1},
		{"empty", NewTimeRange(t0, t0, time.Hour), 0},
		{"reversed", NewTimeRange(t0.Add(time.Hour), t0, time.Hour), 0},
		{"zero step", NewTimeRange(t0, t0.Add(time.Hour), 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Count(); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
			if got := len(tt.tr.Times()); got != tt.want {
				t.Errorf("len(Times()) = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestTimeRange_Times tests that timestamps are converted to UTC.
func TestTimeRange_Times(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, jst)
	tr := NewTimeRange(start, start.Add(3*time.Hour), time.Hour)

	times := tr.Times()
	want := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	if !times[2].Equal(want) || times[2].Location() != time.UTC {
		t.Errorf("Times()[2] = %v, want %v", times[2], want)
	}
	if tr.DtSeconds() != 3600 {
		t.Errorf("DtSeconds() = %d, want 3600", tr.DtSeconds())
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := NewTimeRange(start, start, time.Hour).Validate(); err == nil {
		t.Error("Validate() accepted an empty range")
	}
}

// TestLookupVariable tests case-insensitive catalog lookups.
func TestLookupVariable(t *testing.T) {
	v, ok := LookupVariable("  Snow_Depth ")
	if !ok {
		t.Fatal("snow_depth not found")
	}
	if v.Unit != UnitMetre || !v.RequiresOffsetCorrectionForMixing() {
		t.Errorf("snow_depth = %+v, want cumulative metre", v)
	}

	temp, ok := LookupVariable("temperature_2m")
	if !ok {
		t.Fatal("temperature_2m not found")
	}
	if !temp.HasElevationCorrection() || temp.RequiresOffsetCorrectionForMixing() {
		t.Errorf("temperature_2m = %+v, want lapse-corrected instantaneous", temp)
	}

	if _, ok := LookupVariable("sunshine"); ok {
		t.Error("unknown variable found")
	}

	all := AllVariables()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Fatalf("AllVariables() not sorted at %d: %s >= %s", i, all[i-1].Name, all[i].Name)
		}
	}
}

// TestParseGridSelectionMode tests the API spellings of cell selection modes.
func TestParseGridSelectionMode(t *testing.T) {
	tests := []struct {
		in      string
		want    GridSelectionMode
		wantErr bool
	}{
		{"", GridSelectionLand, false},
		{"land", GridSelectionLand, false},
		{"SEA", GridSelectionSea, false},
		{" nearest ", GridSelectionNearest, false},
		{"terrain_optimised", GridSelectionTerrainOptimised, false},
		{"terrain_optimized", GridSelectionTerrainOptimised, false},
		{"lake", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseGridSelectionMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGridSelectionMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseGridSelectionMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestNaNSeries tests series helpers.
func TestNaNSeries(t *testing.T) {
	s := NaNSeries(3, UnitCelsius)
	if s.Len() != 3 || s.Unit != UnitCelsius {
		t.Fatalf("NaNSeries = %+v", s)
	}
	if !s.ContainsNaN() {
		t.Error("ContainsNaN() = false for NaN series")
	}
	if ContainsNaN([]float32{1, 2, 3}) {
		t.Error("ContainsNaN() = true for finite data")
	}
}
