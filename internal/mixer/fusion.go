package mixer

import "go.ngs.io/forecast-api/internal/domain"

// integrateIfNaN copies samples of other into the NaN slots of data.
func integrateIfNaN(data, other []float32) {
	n := min(len(data), len(other))
	for i := 0; i < n; i++ {
		if domain.IsNaN(other[i]) || !domain.IsNaN(data[i]) {
			continue
		}
		data[i] = other[i]
	}
}

// deltaEncode rewrites data in place as increments. Every valid sample becomes
// its difference to the previous valid sample; the first valid sample keeps its
// absolute value and anchors the series. NaN stays NaN.
func deltaEncode(data []float32) {
	var prev float32
	havePrev := false
	for i, v := range data {
		if domain.IsNaN(v) {
			continue
		}
		if havePrev {
			data[i] = v - prev
		}
		prev = v
		havePrev = true
	}
}

// deltaDecode is the inverse of deltaEncode: a running sum over the valid
// increments, starting at the anchor.
func deltaDecode(data []float32) {
	var level float32
	haveLevel := false
	for i, d := range data {
		if domain.IsNaN(d) {
			continue
		}
		if haveLevel {
			level += d
		} else {
			level = d
			haveLevel = true
		}
		data[i] = level
	}
}

// integrateIfNaNDeltaCoded fills the NaN slots of the delta coded series data
// from the raw series other.
//
// A slot after the anchor receives the increment other[i]-other[i-1], so the
// coarser domain contributes its change over the step but never its baseline.
// A slot before any valid sample receives the absolute value other[i] and
// becomes the new anchor. The previous anchor is then turned into an increment
// from other, or NaN if other cannot provide one.
func integrateIfNaNDeltaCoded(data, other []float32) {
	n := min(len(data), len(other))
	anchor := firstValid(data)
	hasBase := false
	for i := 0; i < n; i++ {
		if !domain.IsNaN(data[i]) {
			if i == anchor && hasBase {
				data[i] = increment(other, i)
			}
			hasBase = true
			continue
		}
		if domain.IsNaN(other[i]) {
			continue
		}
		if !hasBase {
			data[i] = other[i]
			hasBase = true
			continue
		}
		data[i] = increment(other, i)
	}
}

// increment returns other[i]-other[i-1], NaN if either is missing.
func increment(other []float32, i int) float32 {
	if i == 0 {
		return other[0]
	}
	// NaN operands propagate.
	return other[i] - other[i-1]
}

func firstValid(data []float32) int {
	for i, v := range data {
		if !domain.IsNaN(v) {
			return i
		}
	}
	return -1
}
