package interp

import "math"

// NormalizeLon360 maps arbitrary degree longitudes into the [0, 360) range.
func NormalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// NormalizeLon180 maps arbitrary degree longitudes into the [-180, 180) range.
func NormalizeLon180(lon float64) float64 {
	lon = NormalizeLon360(lon)
	if lon >= 180 {
		lon -= 360
	}
	return lon
}

// LonAxisRequiresWrap reports whether a longitude axis is defined on 0–360°.
func LonAxisRequiresWrap(lons []float64) bool {
	if len(lons) == 0 {
		return false
	}
	minVal := lons[0]
	maxVal := lons[len(lons)-1]
	if minVal > maxVal {
		minVal, maxVal = maxVal, minVal
	}
	return minVal >= 0 && maxVal > 180
}

// NormalizeLonForAxis brings lon into the convention of the axis.
func NormalizeLonForAxis(lons []float64, lon float64) float64 {
	if LonAxisRequiresWrap(lons) {
		return NormalizeLon360(lon)
	}
	return NormalizeLon180(lon)
}
