package domain

// SiUnit tags a value sequence with its physical unit.
type SiUnit string

// Units produced by the readers.
const (
	UnitMetre                   SiUnit = "metre"
	UnitCentimetre              SiUnit = "centimetre"
	UnitMillimetre              SiUnit = "millimetre"
	UnitCelsius                 SiUnit = "celsius"
	UnitPercentage              SiUnit = "percentage"
	UnitCubicMetrePerCubicMetre SiUnit = "cubic_metre_per_cubic_metre"
	UnitSecond                  SiUnit = "second"
	UnitDegreeDirection         SiUnit = "degree_direction"
	UnitHectopascal             SiUnit = "hectopascal"
	UnitMetrePerSecond          SiUnit = "metre_per_second"
	UnitDimensionless           SiUnit = "dimensionless"
)

// String returns the unit name as used in API responses.
func (u SiUnit) String() string {
	return string(u)
}
