package domain

import (
	"sort"
	"strings"
)

// MixableVariable identifies a physical quantity that several domains can provide.
type MixableVariable interface {
	String() string

	// RequiresOffsetCorrectionForMixing reports whether the quantity is cumulative
	// (snow depth, soil moisture) and therefore carries a model specific baseline.
	RequiresOffsetCorrectionForMixing() bool
}

// Variable is a forecast variable from the catalog.
type Variable struct {
	Name string
	Unit SiUnit

	// OffsetCorrection marks cumulative quantities.
	OffsetCorrection bool

	// LapseRate is the change per metre of elevation gain, applied when the model
	// cell elevation differs from the target elevation. Zero disables the correction.
	LapseRate float32
}

// String returns the variable name.
func (v Variable) String() string {
	return v.Name
}

// RequiresOffsetCorrectionForMixing implements MixableVariable.
func (v Variable) RequiresOffsetCorrectionForMixing() bool {
	return v.OffsetCorrection
}

// HasElevationCorrection reports whether values depend on the target elevation.
func (v Variable) HasElevationCorrection() bool {
	return v.LapseRate != 0
}

// Standard atmosphere temperature lapse rate in degree per metre.
const temperatureLapseRate = -0.0065

var variables = map[string]Variable{
	// Marine.
	"wave_height":            {Name: "wave_height", Unit: UnitMetre},
	"wave_period":            {Name: "wave_period", Unit: UnitSecond},
	"wave_direction":         {Name: "wave_direction", Unit: UnitDegreeDirection},
	"wind_wave_height":       {Name: "wind_wave_height", Unit: UnitMetre},
	"wind_wave_period":       {Name: "wind_wave_period", Unit: UnitSecond},
	"wind_wave_peak_period":  {Name: "wind_wave_peak_period", Unit: UnitSecond},
	"wind_wave_direction":    {Name: "wind_wave_direction", Unit: UnitDegreeDirection},
	"swell_wave_height":      {Name: "swell_wave_height", Unit: UnitMetre},
	"swell_wave_period":      {Name: "swell_wave_period", Unit: UnitSecond},
	"swell_wave_peak_period": {Name: "swell_wave_peak_period", Unit: UnitSecond},
	"swell_wave_direction":   {Name: "swell_wave_direction", Unit: UnitDegreeDirection},

	// Land.
	"temperature_2m":          {Name: "temperature_2m", Unit: UnitCelsius, LapseRate: temperatureLapseRate},
	"relative_humidity_2m":    {Name: "relative_humidity_2m", Unit: UnitPercentage},
	"pressure_msl":            {Name: "pressure_msl", Unit: UnitHectopascal},
	"wind_speed_10m":          {Name: "wind_speed_10m", Unit: UnitMetrePerSecond},
	"precipitation":           {Name: "precipitation", Unit: UnitMillimetre},
	"snow_depth":              {Name: "snow_depth", Unit: UnitMetre, OffsetCorrection: true},
	"soil_moisture_0_to_7cm":  {Name: "soil_moisture_0_to_7cm", Unit: UnitCubicMetrePerCubicMetre, OffsetCorrection: true},
	"soil_moisture_7_to_28cm": {Name: "soil_moisture_7_to_28cm", Unit: UnitCubicMetrePerCubicMetre, OffsetCorrection: true},
}

// LookupVariable finds a variable by its API name.
func LookupVariable(name string) (Variable, bool) {
	v, ok := variables[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// AllVariables returns every catalog variable sorted by name.
func AllVariables() []Variable {
	out := make([]Variable, 0, len(variables))
	for _, v := range variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
