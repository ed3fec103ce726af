// Package timegrid converts clock strings to minutes of day and describes the
// fixed slot lattice of a business day.
package timegrid

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	OpenHour  = 11 // first hour a booking may start
	CloseHour = 21 // the fine grid stops one step before this hour
	Step      = 15 // minutes between fine slots
)

// ToMinutes parses "HH:MM" into minutes since midnight. Unparsable parts
// count as zero, so malformed input never fails; use ParseClock to validate.
func ToMinutes(clock string) int {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m := 0
	if len(parts) == 2 {
		m, _ = strconv.Atoi(parts[1])
	}
	return h*60 + m
}

// ParseClock is the strict form of ToMinutes.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return h*60 + m, nil
}

// FromMinutes formats minutes since midnight as "HH:MM".
func FromMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// EnumerateFineSlots returns every fine slot of the business day in order,
// from OpenHour:00 up to and including the last step before CloseHour.
func EnumerateFineSlots() []string {
	slots := make([]string, 0, (CloseHour-OpenHour)*60/Step)
	for m := OpenHour * 60; m < CloseHour*60; m += Step {
		slots = append(slots, FromMinutes(m))
	}
	return slots
}

// HourBucket floors a clock time to its hour label, "14:45" -> "14:00".
func HourBucket(clock string) string {
	return FromMinutes(ToMinutes(clock) / 60 * 60)
}

// IsQuarter reports whether the minute part is 0, 15, 30 or 45.
func IsQuarter(clock string) bool {
	return ToMinutes(clock)%Step == 0
}

// OnGrid reports whether clock is a start time the fine grid publishes.
func OnGrid(clock string) bool {
	m := ToMinutes(clock)
	return m >= OpenHour*60 && m <= CloseHour*60-Step && m%Step == 0
}

// IsHourLabel reports whether clock is a valid coarse window label ("HH:00").
func IsHourLabel(clock string) bool {
	m, err := ParseClock(clock)
	return err == nil && m%60 == 0
}

// FormatClock12 renders "13:30" as "1:30 PM".
func FormatClock12(clock string) string {
	if clock == "" {
		return ""
	}
	m := ToMinutes(clock)
	hour, min := m/60, m%60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour
	switch {
	case hour == 0:
		hour12 = 12
	case hour > 12:
		hour12 = hour - 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, min, period)
}
