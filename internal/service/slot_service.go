package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/ledger"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

// probeDuration is the occupancy assumed when judging whether a start time
// is still free in the advisory views.
const probeDuration = 60

type FineSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Busy      bool   `json:"busy"`
}

// StaffSlots is one staff member's view of a day.
type StaffSlots struct {
	Staff           *model.User       `json:"staff"`
	AvailableSlots  []string          `json:"availableSlots"`
	AllSlots        []string          `json:"allSlots"`
	FineGrid        []FineSlot        `json:"timeSlots"`
	ActiveIntervals []ledger.Interval `json:"bookedRanges"`
}

// SlotService answers "who is free when" for a date. The result is a
// snapshot; Submit re-checks under lock.
type SlotService struct {
	availability repository.AvailabilityStore
	bookings     repository.BookingStore
	users        repository.UserStore
}

func NewSlotService(
	availability repository.AvailabilityStore,
	bookings repository.BookingStore,
	users repository.UserStore,
) *SlotService {
	return &SlotService{
		availability: availability,
		bookings:     bookings,
		users:        users,
	}
}

func (s *SlotService) Query(ctx context.Context, date time.Time) ([]StaffSlots, error) {
	if date.IsZero() {
		return nil, apperr.Validation("date is required")
	}
	date = timegrid.NormalizeDate(date)

	avs, err := s.availability.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	active, err := s.bookings.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}

	byStaff := make(map[string][]*model.Booking)
	for _, b := range active {
		byStaff[b.StaffID] = append(byStaff[b.StaffID], b)
	}

	result := make([]StaffSlots, 0, len(avs))
	for _, av := range avs {
		if len(av.Windows) == 0 {
			continue
		}
		staff, err := s.users.GetByID(ctx, av.StaffID)
		if err != nil {
			return nil, fmt.Errorf("get staff: %w", err)
		}
		if staff == nil {
			continue
		}
		result = append(result, BuildStaffSlots(staff, av, ledger.Intervals(byStaff[av.StaffID], "")))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Staff.Name != result[j].Staff.Name {
			return result[i].Staff.Name < result[j].Staff.Name
		}
		return result[i].Staff.ID < result[j].Staff.ID
	})
	return result, nil
}

// BuildStaffSlots derives the coarse and fine views from one availability
// record and the staff member's active intervals.
func BuildStaffSlots(staff *model.User, av *model.Availability, ranges []ledger.Interval) StaffSlots {
	if ranges == nil {
		ranges = []ledger.Interval{}
	}

	available := make([]string, 0, len(av.Windows))
	for _, w := range av.Windows {
		if !ledger.OverlapsAny(ledger.NewInterval(w, probeDuration), ranges) {
			available = append(available, w)
		}
	}

	fine := timegrid.EnumerateFineSlots()
	grid := make([]FineSlot, len(fine))
	for i, t := range fine {
		open := av.HasWindow(timegrid.HourBucket(t))
		busy := open && ledger.OverlapsAny(ledger.NewInterval(t, probeDuration), ranges)
		grid[i] = FineSlot{Time: t, Available: open && !busy, Busy: busy}
	}

	return StaffSlots{
		Staff:           staff,
		AvailableSlots:  available,
		AllSlots:        append([]string(nil), av.Windows...),
		FineGrid:        grid,
		ActiveIntervals: ranges,
	}
}
