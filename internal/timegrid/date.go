package timegrid

import (
	"fmt"
	"time"
)

// ReferenceHour is the UTC time of day every calendar date is pinned to, so
// that dates compare equal regardless of the caller's timezone.
const ReferenceHour = 12

const dateLayout = "2006-01-02"

// ParseDate parses "2006-01-02" into the normalized calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return NormalizeDate(t), nil
}

// NormalizeDate keeps the calendar day of t and pins it to ReferenceHour UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, ReferenceHour, 0, 0, 0, time.UTC)
}

// DateKey formats the calendar day of t.
func DateKey(t time.Time) string {
	return NormalizeDate(t).Format(dateLayout)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// StartOfDay and EndOfDay bound a date for inclusive range filters.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Millisecond)
}

// FormatShort renders a date the way notification texts show it, "1/2/2006".
func FormatShort(t time.Time) string {
	return NormalizeDate(t).Format("1/2/2006")
}
