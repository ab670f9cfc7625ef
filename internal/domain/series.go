// Package domain holds the value types shared by readers, the mixer and the API.
package domain

import "math"

// DataAndUnit is an ordered sequence of samples plus the unit they are expressed in.
// Missing samples are NaN.
type DataAndUnit struct {
	Data []float32
	Unit SiUnit
}

// NewDataAndUnit creates a value sequence.
func NewDataAndUnit(data []float32, unit SiUnit) DataAndUnit {
	return DataAndUnit{Data: data, Unit: unit}
}

// NaNSeries returns a sequence of n NaN samples.
func NaNSeries(n int, unit SiUnit) DataAndUnit {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(math.NaN())
	}
	return DataAndUnit{Data: data, Unit: unit}
}

// Len returns the number of samples.
func (d DataAndUnit) Len() int {
	return len(d.Data)
}

// ContainsNaN reports whether any sample is missing.
func (d DataAndUnit) ContainsNaN() bool {
	return ContainsNaN(d.Data)
}

// ContainsNaN reports whether any element of data is NaN.
func ContainsNaN(data []float32) bool {
	for _, v := range data {
		if IsNaN(v) {
			return true
		}
	}
	return false
}

// IsNaN reports whether v is a float32 NaN.
func IsNaN(v float32) bool {
	return v != v
}
