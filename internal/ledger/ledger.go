// Package ledger derives occupied intervals from active bookings and answers
// overlap questions for one staff member on one day.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

// Interval is a half-open [Start, End) range in minutes of day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewInterval builds the interval occupied by a booking starting at slotStart.
// A non-positive duration counts as model.DefaultDuration.
func NewInterval(slotStart string, duration int) Interval {
	if duration <= 0 {
		duration = model.DefaultDuration
	}
	start := timegrid.ToMinutes(slotStart)
	return Interval{Start: start, End: start + duration}
}

func FromBooking(b *model.Booking) Interval {
	return NewInterval(b.SlotStart, b.Duration)
}

func (i Interval) String() string {
	return timegrid.FromMinutes(i.Start) + "-" + timegrid.FromMinutes(i.End)
}

// Overlaps is the single overlap predicate. Touching endpoints do not overlap.
func Overlaps(candidate, existing Interval) bool {
	return candidate.Start < existing.End && candidate.End > existing.Start
}

func OverlapsAny(candidate Interval, set []Interval) bool {
	for _, existing := range set {
		if Overlaps(candidate, existing) {
			return true
		}
	}
	return false
}

// Intervals returns the intervals of the active bookings, skipping excludeID.
func Intervals(bookings []*model.Booking, excludeID string) []Interval {
	out := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsActive() || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		out = append(out, FromBooking(b))
	}
	return out
}

// Key identifies the serialization unit of the ledger.
func Key(staffID string, date time.Time) string {
	return staffID + "|" + timegrid.DateKey(date)
}

// BookingSource lists PENDING and APPROVED bookings of a staff member on a day.
type BookingSource interface {
	ListActive(ctx context.Context, staffID string, date time.Time) ([]*model.Booking, error)
}

type Ledger struct {
	src BookingSource
}

func New(src BookingSource) *Ledger {
	return &Ledger{src: src}
}

// ActiveIntervalsFor returns the occupied intervals of staffID on date.
func (l *Ledger) ActiveIntervalsFor(ctx context.Context, staffID string, date time.Time) ([]Interval, error) {
	bookings, err := l.src.ListActive(ctx, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	return Intervals(bookings, ""), nil
}

// WouldConflict reports whether candidate overlaps an active booking other
// than excludeID. It is only authoritative while the caller holds the lock
// for Key(staffID, date).
func (l *Ledger) WouldConflict(ctx context.Context, staffID string, date time.Time, candidate Interval, excludeID string) (bool, error) {
	bookings, err := l.src.ListActive(ctx, staffID, date)
	if err != nil {
		return false, fmt.Errorf("list active bookings: %w", err)
	}
	return OverlapsAny(candidate, Intervals(bookings, excludeID)), nil
}
