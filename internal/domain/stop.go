package domain

import (
	"fmt"
	"strings"
)

// Advisory visiting window. It is reported against, never enforced.
type TimeWindow struct {
	Start string
	End   string
}

// Contains reports whether t falls inside the window. Windows that cross
// midnight (start after end) are handled.
func (w TimeWindow) Contains(t ClockTime) (bool, error) {
	start, err := ParseClock(w.Start)
	if err != nil {
		return false, err
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return false, err
	}
	if start <= end {
		return t >= start && t <= end, nil
	}
	return t >= start || t <= end, nil
}

// Represents a geographic point to be visited.
// Stops are caller-supplied and are never mutated by the engine.
type Stop struct {
	ID             string
	Name           string
	Lat            float64
	Lng            float64
	Address        string
	Priority       *int
	TimeWindow     *TimeWindow
	ServiceMinutes *int
}

func (s Stop) Coordinates() Coordinates { return Coordinates{Lon: s.Lng, Lat: s.Lat} }

// ServiceDuration returns the stop's service time in minutes, or def when absent.
func (s Stop) ServiceDuration(def int) int {
	if s.ServiceMinutes == nil {
		return def
	}
	return *s.ServiceMinutes
}

// ValidateStops checks caller input before any distance work is done.
func ValidateStops(stops []Stop) error {
	if len(stops) == 0 {
		return ErrNoStops
	}

	for i, s := range stops {
		field := fmt.Sprintf("stops[%d]", i)
		if strings.TrimSpace(s.ID) == "" {
			return &InputError{Field: field + ".id", Reason: "must be non-empty"}
		}
		if !s.Coordinates().Valid() {
			return &InputError{Field: field, Reason: fmt.Sprintf("coordinates out of range (lat=%v, lng=%v)", s.Lat, s.Lng)}
		}
		if s.ServiceMinutes != nil && *s.ServiceMinutes < 0 {
			return &InputError{Field: field + ".service_duration", Reason: "must be >= 0"}
		}
		if s.TimeWindow != nil {
			if _, err := s.TimeWindow.Contains(0); err != nil {
				return &InputError{Field: field + ".time_window", Reason: err.Error()}
			}
		}
	}

	return nil
}
