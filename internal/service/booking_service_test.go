package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/ledger"
	"github.com/Freeeeeet/booking_desk/internal/lock"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
)

func TestSubmitOverlapAndTouchingBoundary(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "11:00", "12:00")

	first, err := f.submit("c1", "s1", "11:00", 60)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, first.Status)
	assert.NotEmpty(t, first.ID)

	_, err = f.submit("c2", "s1", "11:30", 60)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.True(t, apperr.IsRetryable(err))

	touching, err := f.submit("c2", "s1", "12:00", 60)
	require.NoError(t, err)
	assert.Equal(t, 720, ledger.FromBooking(touching).Start)
	assert.Equal(t, 720, ledger.FromBooking(first).End)
}

func TestSubmitNotifiesAdmins(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "13:00")

	b, err := f.submit("c1", "s1", "13:30", 90)
	require.NoError(t, err)

	got := f.notes.forUser("admin")
	require.Len(t, got, 1)
	assert.Equal(t, "New booking request from Casey for 6/1/2026 at 1:30 PM", got[0].Message)
	assert.Equal(t, model.NotificationInfo, got[0].Kind)
	assert.Equal(t, b.ID, got[0].BookingID)
	assert.Empty(t, f.notes.forUser("c1"))
}

func TestApproveThenCancelFreesInterval(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "11:00", "12:00")

	first, err := f.submit("c1", "s1", "11:00", 60)
	require.NoError(t, err)

	approved, err := f.bookings.Approve(context.Background(), first.ID, ApproveRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusApproved, approved.Status)

	toClient := f.notes.forUser("c1")
	require.Len(t, toClient, 1)
	assert.Equal(t, "Your booking with Sam on 6/1/2026 has been approved!", toClient[0].Message)

	// reject is for pending requests only; an approved booking is cancelled
	_, err = f.bookings.Reject(context.Background(), first.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindState))

	cancelled, err := f.bookings.Cancel(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusRejected, cancelled.Status)
	assert.Equal(t, model.RejectReasonCancelled, cancelled.RejectReason)
	assert.Len(t, f.notes.forUser("c1"), 2)

	again, err := f.submit("c2", "s1", "11:00", 60)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, again.Status)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "11:00", "20:00")

	tests := []struct {
		name string
		slot string
	}{
		{"off quarter", "11:10"},
		{"malformed", "eleven"},
		{"before opening", "10:45"},
		{"after last grid point", "21:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.submit("c1", "s1", tt.slot, 60)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), err)
		})
	}

	_, err := f.bookings.Submit(context.Background(), SubmitRequest{ClientID: "c1", Date: day, SlotStart: "11:00"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSubmitWithoutAvailability(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit("c1", "s2", "11:00", 60)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "not available")

	f.open(t, "s2", "15:00")
	_, err = f.submit("c1", "s2", "16:15", 60)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// the start's hour bucket decides, the end may run past the window
	b, err := f.submit("c1", "s2", "15:45", 120)
	require.NoError(t, err)
	assert.Equal(t, 120, b.Duration)
}

func TestSubmitDefaultsUnsupportedDuration(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "14:00")

	b, err := f.submit("c1", "s1", "14:00", 45)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDuration, b.Duration)
}

func TestRejectFreesCapacity(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "16:00")

	b, err := f.submit("c1", "s1", "16:00", 120)
	require.NoError(t, err)

	rejected, err := f.bookings.Reject(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusRejected, rejected.Status)
	assert.Equal(t, model.RejectReasonDeclined, rejected.RejectReason)
	assert.Equal(t, "Your booking request for 6/1/2026 has been rejected.", f.notes.forUser("c1")[0].Message)

	_, err = f.submit("c2", "s1", "16:00", 120)
	require.NoError(t, err)
}

func TestRejectedIsTerminal(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "11:00")
	ctx := context.Background()

	b, err := f.submit("c1", "s1", "11:00", 60)
	require.NoError(t, err)
	_, err = f.bookings.Cancel(ctx, b.ID)
	require.NoError(t, err)

	_, err = f.bookings.Approve(ctx, b.ID, ApproveRequest{})
	assert.True(t, apperr.IsKind(err, apperr.KindState))

	_, err = f.bookings.Reject(ctx, b.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindState))

	_, err = f.bookings.Cancel(ctx, b.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "already cancelled")

	_, err = f.bookings.Amend(ctx, b.ID, AmendRequest{SlotStart: "11:15"})
	assert.True(t, apperr.IsKind(err, apperr.KindState))

	stored, err := f.bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusRejected, stored.Status)
}

func TestUnknownBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.bookings.Approve(ctx, "nope", ApproveRequest{})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = f.bookings.Cancel(ctx, "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = f.bookings.Get(ctx, "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestApproveReassignmentIsConflictChecked(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "11:00")
	f.open(t, "s2", "11:00")
	ctx := context.Background()

	held, err := f.submit("c1", "s2", "11:00", 60)
	require.NoError(t, err)
	moving, err := f.submit("c2", "s1", "11:00", 60)
	require.NoError(t, err)

	_, err = f.bookings.Approve(ctx, moving.ID, ApproveRequest{StaffID: "s2", SlotStart: "11:30"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	unchanged, err := f.bookings.Get(ctx, moving.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, unchanged.Status)
	assert.Equal(t, "s1", unchanged.StaffID)

	approved, err := f.bookings.Approve(ctx, moving.ID, ApproveRequest{StaffID: "s2", SlotStart: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, "s2", approved.StaffID)
	assert.Equal(t, "12:00", approved.SlotStart)
	assert.Equal(t, "Your booking with Alex on 6/1/2026 has been approved!", f.notes.forUser("c2")[0].Message)

	_, err = f.bookings.Approve(ctx, held.ID, ApproveRequest{StaffID: "c1"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = f.bookings.Approve(ctx, held.ID, ApproveRequest{SlotStart: "11:05"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAmend(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "11:00", "12:00", "13:00")
	ctx := context.Background()

	a, err := f.submit("c1", "s1", "11:00", 60)
	require.NoError(t, err)
	_, err = f.submit("c2", "s1", "13:00", 60)
	require.NoError(t, err)
	before := f.notes.count()

	amended, err := f.bookings.Amend(ctx, a.ID, AmendRequest{Duration: 120})
	require.NoError(t, err)
	assert.Equal(t, 120, amended.Duration)

	// 150 is not a supported length and is ignored
	amended, err = f.bookings.Amend(ctx, a.ID, AmendRequest{Duration: 150})
	require.NoError(t, err)
	assert.Equal(t, 120, amended.Duration)

	_, err = f.bookings.Amend(ctx, a.ID, AmendRequest{SlotStart: "12:00"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "12:00-14:00 overlaps 13:00-14:00")

	amended, err = f.bookings.Amend(ctx, a.ID, AmendRequest{StaffID: "s2"})
	require.NoError(t, err)
	assert.Equal(t, "s2", amended.StaffID)
	assert.Equal(t, before, f.notes.count(), "amend does not notify")
}

func TestConcurrentSubmitsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", DefaultWindows...)

	starts := []string{"11:00", "11:15", "11:30", "11:45", "12:00", "12:30", "13:00", "13:15", "14:00", "14:45"}
	durations := []int{60, 90, 120}

	var wg sync.WaitGroup
	errs := make(chan error, 60)
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.submit(fmt.Sprintf("c%d", i%2+1), "s1", starts[i%len(starts)], durations[i%len(durations)])
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		require.True(t, apperr.IsKind(err, apperr.KindConflict), "unexpected error: %v", err)
	}
	assert.Positive(t, created)

	active, err := f.store.Bookings().ListActive(context.Background(), "s1", day)
	require.NoError(t, err)
	require.Len(t, active, created)
	intervals := ledger.Intervals(active, "")
	for i := range intervals {
		for j := i + 1; j < len(intervals); j++ {
			assert.False(t, ledger.Overlaps(intervals[i], intervals[j]), "%s overlaps %s", intervals[i], intervals[j])
		}
	}
}

func TestDifferentStaffDoNotContend(t *testing.T) {
	locker := lock.NewLocal(50 * time.Millisecond)
	f := newFixtureWithLocker(t, locker)
	f.open(t, "s1", "11:00")
	f.open(t, "s2", "11:00")

	unlock, err := locker.Lock(context.Background(), ledger.Key("s1", day))
	require.NoError(t, err)
	defer unlock()

	_, err = f.submit("c1", "s2", "11:00", 60)
	require.NoError(t, err)

	_, err = f.submit("c1", "s1", "11:00", 60)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.True(t, apperr.IsRetryable(err))
	assert.True(t, errors.Is(err, lock.ErrTimeout))
}

type failingLocker struct{ err error }

func (f failingLocker) Lock(context.Context, string) (lock.Unlock, error) { return nil, f.err }

func TestLockFaultIsNotConflict(t *testing.T) {
	f := newFixtureWithLocker(t, failingLocker{err: errors.New("redis down")})
	f.open(t, "s1", "11:00")

	_, err := f.submit("c1", "s1", "11:00", 60)
	require.Error(t, err)
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(err))
}

func TestListAndSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.open(t, "s1", "11:00", "15:00")
	next := day.Add(24 * time.Hour)
	_, err := f.availability.Set(ctx, "s1", next, []string{"12:00"})
	require.NoError(t, err)

	late, err := f.submit("c1", "s1", "15:00", 60)
	require.NoError(t, err)
	early, err := f.submit("c2", "s1", "11:00", 60)
	require.NoError(t, err)
	pending, err := f.bookings.Submit(ctx, SubmitRequest{ClientID: "c1", StaffID: "s1", Date: next, SlotStart: "12:00"})
	require.NoError(t, err)

	for _, id := range []string{late.ID, early.ID} {
		_, err := f.bookings.Approve(ctx, id, ApproveRequest{})
		require.NoError(t, err)
	}

	mine, err := f.bookings.List(ctx, model.BookingFilter{ClientID: "c1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, late.ID, mine[0].ID, "earlier date first")
	assert.Equal(t, pending.ID, mine[1].ID)
	require.NotNil(t, mine[0].Staff)
	assert.Equal(t, "Sam", mine[0].Staff.Name)

	onlyPending, err := f.bookings.List(ctx, model.BookingFilter{Status: model.BookingStatusPending})
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)

	_, err = f.bookings.List(ctx, model.BookingFilter{Status: "LOST"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	schedule, err := f.bookings.Schedule(ctx, "s1", day, time.Time{})
	require.NoError(t, err)
	assert.Len(t, schedule.Availability, 2)
	require.Len(t, schedule.Bookings, 2)
	assert.Equal(t, early.ID, schedule.Bookings[0].ID, "ordered by start time")
	assert.Equal(t, late.ID, schedule.Bookings[1].ID)
}

func TestLastQuarterMayRunPastClose(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "19:00", "20:00")

	late, err := f.submit("c1", "s1", "20:45", 120)
	require.NoError(t, err)
	assert.Equal(t, "20:45", late.SlotStart)
	assert.Equal(t, 120, late.Duration)

	early, err := f.submit("c2", "s1", "19:00", 60)
	require.NoError(t, err)
	_, err = f.bookings.Amend(context.Background(), early.ID, AmendRequest{SlotStart: "19:30", Duration: 120})
	require.Error(t, err, "19:30-21:30 overlaps 20:45")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = f.submit("c2", "s1", "21:00", 60)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

// vanishingBookings loses every row between load and write.
type vanishingBookings struct {
	repository.BookingStore
}

func (v vanishingBookings) Update(ctx context.Context, b *model.Booking) error {
	return fmt.Errorf("update booking %s: %w", b.ID, repository.ErrNotFound)
}

func TestTransitionOnDeletedRowIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.open(t, "s1", "11:00")
	booking, err := f.submit("c1", "s1", "11:00", 60)
	require.NoError(t, err)

	svc := NewBookingService(
		vanishingBookings{f.store.Bookings()}, f.store.Availability(), f.store.Users(), f.staff,
		lock.NewLocal(time.Second), nil, nil, zap.NewNop(),
	)

	_, err = svc.Approve(context.Background(), booking.ID, ApproveRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), err)

	_, err = svc.Cancel(context.Background(), booking.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), err)
}
