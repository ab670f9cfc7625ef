package domain

import (
	"fmt"
	"time"
)

// Domain identifies one forecast model or dataset, e.g. "ecmwf_wam025".
type Domain string

func (d Domain) String() string {
	return string(d)
}

// TimeRange is the half-open interval [Start, End) sampled every Dt.
type TimeRange struct {
	Start time.Time
	End   time.Time
	Dt    time.Duration
}

// NewTimeRange creates a time range in UTC.
func NewTimeRange(start, end time.Time, dt time.Duration) TimeRange {
	return TimeRange{Start: start.UTC(), End: end.UTC(), Dt: dt}
}

// Validate checks that the range is non-empty and has a positive step.
func (t TimeRange) Validate() error {
	if t.Dt <= 0 {
		return fmt.Errorf("time step must be positive, got %s", t.Dt)
	}
	if !t.Start.Before(t.End) {
		return fmt.Errorf("start time must be before end time")
	}
	return nil
}

// Count returns the number of steps in the range.
func (t TimeRange) Count() int {
	if t.Dt <= 0 || !t.Start.Before(t.End) {
		return 0
	}
	span := t.End.Sub(t.Start)
	n := int(span / t.Dt)
	if span%t.Dt != 0 {
		n++
	}
	return n
}

// Times returns the timestamp of every step.
func (t TimeRange) Times() []time.Time {
	n := t.Count()
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = t.Start.Add(time.Duration(i) * t.Dt)
	}
	return out
}

// DtSeconds returns the step length in seconds.
func (t TimeRange) DtSeconds() int {
	return int(t.Dt / time.Second)
}

func (t TimeRange) String() string {
	return fmt.Sprintf("%s..%s/%s", t.Start.Format(time.RFC3339), t.End.Format(time.RFC3339), t.Dt)
}
