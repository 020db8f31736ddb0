package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day expressed as minutes since midnight.  Slot
// boundaries, opening hours and requested reservation times are all
// plain wall-clock values with no date or zone attached, so a compact
// integer representation keeps comparisons and wrap-around interval
// checks trivial.  Valid values are 0..1439.
type Clock int

// ParseClock parses "HH:MM" or "HH:MM:SS" (the MySQL TIME text form)
// into a Clock.  Seconds are discarded.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return Clock(h*60 + m), nil
}

// String renders the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// SQL renders the clock as "HH:MM:SS" for TIME columns.
func (c Clock) SQL() string {
	return fmt.Sprintf("%02d:%02d:00", int(c)/60, int(c)%60)
}
