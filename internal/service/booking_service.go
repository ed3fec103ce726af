package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/ledger"
	"github.com/Freeeeeet/booking_desk/internal/lock"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/notify"
	"github.com/Freeeeeet/booking_desk/internal/observability/metrics"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

var bookingTracer = otel.Tracer("booking_desk.internal.service.booking")

// ScheduleSpan is how far Schedule looks ahead when no end date is given.
const ScheduleSpan = 14 * 24 * time.Hour

// maxRelock bounds how often a mutation re-acquires locks because the booking
// moved to another staff member while it was waiting.
const maxRelock = 3

type SubmitRequest struct {
	ClientID  string
	StaffID   string
	Date      time.Time
	SlotStart string
	Duration  int // outside AllowedDurations falls back to DefaultDuration
	Message   string
}

// ApproveRequest optionally reassigns the booking while approving it.
type ApproveRequest struct {
	StaffID   string
	SlotStart string
}

// AmendRequest fields left zero are not changed. An unsupported Duration is ignored.
type AmendRequest struct {
	StaffID   string
	SlotStart string
	Duration  int
}

type StaffSchedule struct {
	Availability []*model.Availability `json:"availability"`
	Bookings     []*model.Booking      `json:"bookings"`
}

type BookingService struct {
	bookings     repository.BookingStore
	availability repository.AvailabilityStore
	users        repository.UserStore
	directory    Directory
	ledger       *ledger.Ledger
	locker       lock.Locker
	notifier     notify.Notifier
	metrics      *metrics.BookingMetrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewBookingService(
	bookings repository.BookingStore,
	availability repository.AvailabilityStore,
	users repository.UserStore,
	directory Directory,
	locker lock.Locker,
	notifier notify.Notifier,
	m *metrics.BookingMetrics,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &BookingService{
		bookings:     bookings,
		availability: availability,
		users:        users,
		directory:    directory,
		ledger:       ledger.New(bookings),
		locker:       locker,
		notifier:     notifier,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// Submit books a slot for a client. The conflict check and the insert run
// under the (staff, date) lock, so concurrent submissions for the same
// staff and day cannot both land on overlapping intervals.
func (s *BookingService) Submit(ctx context.Context, req SubmitRequest) (*model.Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.staff_id", req.StaffID),
		attribute.String("booking.slot_start", req.SlotStart),
	)

	booking, err := s.submit(ctx, req)
	s.metrics.ObserveSubmission(submissionOutcome(err))
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) submit(ctx context.Context, req SubmitRequest) (*model.Booking, error) {
	if req.ClientID == "" || req.StaffID == "" || req.Date.IsZero() || req.SlotStart == "" {
		return nil, apperr.Validation("staffId, date, and slotTime are required")
	}
	if err := validateSlot(req.SlotStart); err != nil {
		return nil, err
	}

	duration := req.Duration
	if !model.ValidDuration(duration) {
		duration = model.DefaultDuration
	}
	date := timegrid.NormalizeDate(req.Date)

	av, err := s.availability.Get(ctx, req.StaffID, date)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	if av == nil {
		return nil, apperr.Validation("staff not available on this date")
	}
	if !av.HasWindow(timegrid.HourBucket(req.SlotStart)) {
		return nil, apperr.Validation("staff not available at %s", req.SlotStart)
	}

	booking := &model.Booking{
		ClientID:  req.ClientID,
		StaffID:   req.StaffID,
		Date:      date,
		SlotStart: req.SlotStart,
		Duration:  duration,
		Status:    model.BookingStatusPending,
		Message:   req.Message,
	}

	unlock, err := s.lockKeys(ctx, ledger.Key(booking.StaffID, date))
	if err != nil {
		return nil, err
	}
	err = s.insert(ctx, booking)
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking submitted",
		zap.String("booking_id", booking.ID),
		zap.String("client_id", booking.ClientID),
		zap.String("staff_id", booking.StaffID),
		zap.String("date", timegrid.DateKey(date)),
		zap.String("slot", booking.SlotStart),
		zap.Int("duration", booking.Duration),
	)

	s.notifyAdmins(ctx, booking)
	return booking, nil
}

// insert must run under the booking's ledger key.
func (s *BookingService) insert(ctx context.Context, booking *model.Booking) error {
	if err := s.ensureFree(ctx, booking); err != nil {
		return err
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return apperr.Conflict("this time slot overlaps with an existing booking").Wrap(err)
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// Approve confirms a PENDING booking, optionally moving it to another staff
// member or start time. A move is validated and conflict-checked like a new
// submission.
func (s *BookingService) Approve(ctx context.Context, id string, req ApproveRequest) (*model.Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.approve")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	if err := s.validateTarget(ctx, req.StaffID, req.SlotStart); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	booking, err := s.mutate(ctx, id, req.StaffID, func(b *model.Booking) error {
		if b.Status != model.BookingStatusPending {
			return apperr.State("booking is not pending")
		}
		moved := reassign(b, req.StaffID, req.SlotStart, 0)
		b.Status = model.BookingStatusApproved
		return s.save(ctx, b, moved)
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.metrics.ObserveTransition("approve")
	s.logger.Info("Booking approved",
		zap.String("booking_id", booking.ID),
		zap.String("staff_id", booking.StaffID),
		zap.String("slot", booking.SlotStart),
	)

	s.notifier.Notify(ctx, notify.Approved(booking, s.userName(ctx, booking.StaffID, "staff")))
	return booking, nil
}

// Reject declines a PENDING booking.
func (s *BookingService) Reject(ctx context.Context, id string) (*model.Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.reject")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	booking, err := s.mutate(ctx, id, "", func(b *model.Booking) error {
		if b.Status != model.BookingStatusPending {
			return apperr.State("booking is not pending")
		}
		b.Status = model.BookingStatusRejected
		b.RejectReason = model.RejectReasonDeclined
		return s.save(ctx, b, false)
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.metrics.ObserveTransition("reject")
	s.logger.Info("Booking rejected", zap.String("booking_id", booking.ID))

	s.notifier.Notify(ctx, notify.Rejected(booking))
	return booking, nil
}

// Cancel ends a PENDING or APPROVED booking and frees its interval.
func (s *BookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	booking, err := s.mutate(ctx, id, "", func(b *model.Booking) error {
		if b.Status == model.BookingStatusRejected {
			return apperr.Validation("booking is already cancelled")
		}
		b.Status = model.BookingStatusRejected
		b.RejectReason = model.RejectReasonCancelled
		return s.save(ctx, b, false)
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.metrics.ObserveTransition("cancel")
	s.logger.Info("Booking cancelled", zap.String("booking_id", booking.ID))

	s.notifier.Notify(ctx, notify.Cancelled(booking))
	return booking, nil
}

// Amend edits staff, start time or duration of an active booking. The
// client is not notified.
func (s *BookingService) Amend(ctx context.Context, id string, req AmendRequest) (*model.Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.amend")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	if err := s.validateTarget(ctx, req.StaffID, req.SlotStart); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	duration := req.Duration
	if !model.ValidDuration(duration) {
		duration = 0
	}

	booking, err := s.mutate(ctx, id, req.StaffID, func(b *model.Booking) error {
		if !b.IsActive() {
			return apperr.State("cannot edit a rejected booking")
		}
		moved := reassign(b, req.StaffID, req.SlotStart, duration)
		return s.save(ctx, b, moved)
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.metrics.ObserveTransition("amend")
	s.logger.Info("Booking amended",
		zap.String("booking_id", booking.ID),
		zap.String("staff_id", booking.StaffID),
		zap.String("slot", booking.SlotStart),
		zap.Int("duration", booking.Duration),
	)
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachUsers(ctx, []*model.Booking{booking})
	return booking, nil
}

// List returns bookings ordered by date ascending, newest first within a day.
func (s *BookingService) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return nil, apperr.Validation("unknown status %q", filter.Status)
	}
	list, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if list == nil {
		list = []*model.Booking{}
	}
	s.attachUsers(ctx, list)
	return list, nil
}

// Schedule returns the published availability and APPROVED bookings of a
// staff member between from and to. Zero bounds default to today and
// ScheduleSpan after from.
func (s *BookingService) Schedule(ctx context.Context, staffID string, from, to time.Time) (*StaffSchedule, error) {
	if staffID == "" {
		return nil, apperr.Validation("staff id is required")
	}
	if from.IsZero() {
		from = s.now()
	}
	from = timegrid.NormalizeDate(from)
	if to.IsZero() {
		to = from.Add(ScheduleSpan)
	}
	to = timegrid.NormalizeDate(to)
	if to.Before(from) {
		return nil, apperr.Validation("endDate is before startDate")
	}

	avs, err := s.availability.List(ctx, model.AvailabilityFilter{StaffID: staffID, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	bookings, err := s.bookings.List(ctx, model.BookingFilter{
		StaffID: staffID,
		Status:  model.BookingStatusApproved,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		if !bookings[i].Date.Equal(bookings[j].Date) {
			return bookings[i].Date.Before(bookings[j].Date)
		}
		return timegrid.ToMinutes(bookings[i].SlotStart) < timegrid.ToMinutes(bookings[j].SlotStart)
	})
	s.attachUsers(ctx, bookings)

	if avs == nil {
		avs = []*model.Availability{}
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return &StaffSchedule{Availability: avs, Bookings: bookings}, nil
}

// mutate locks every ledger key the booking touches before and after the
// change, re-reads it and hands the fresh copy to fn. targetStaff is empty
// when the booking stays with its current staff member.
func (s *BookingService) mutate(ctx context.Context, id, targetStaff string, fn func(b *model.Booking) error) (*model.Booking, error) {
	for attempt := 0; attempt < maxRelock; attempt++ {
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		target := targetStaff
		if target == "" {
			target = current.StaffID
		}
		unlock, err := s.lockKeys(ctx,
			ledger.Key(current.StaffID, current.Date),
			ledger.Key(target, current.Date),
		)
		if err != nil {
			return nil, err
		}

		fresh, err := s.load(ctx, id)
		if err != nil {
			unlock()
			return nil, err
		}
		if fresh.StaffID != current.StaffID {
			unlock()
			continue
		}

		err = fn(fresh)
		unlock()
		if err != nil {
			return nil, err
		}
		return fresh, nil
	}
	return nil, apperr.Conflict("booking %s changed while waiting, retry", id)
}

// lockKeys takes the given keys in sorted order so two mutations that share
// keys never wait on each other in a cycle.
func (s *BookingService) lockKeys(ctx context.Context, keys ...string) (lock.Unlock, error) {
	sort.Strings(keys)

	var held []lock.Unlock
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}

	started := time.Now()
	for i, key := range keys {
		if i > 0 && key == keys[i-1] {
			continue
		}
		unlock, err := s.locker.Lock(ctx, key)
		if err != nil {
			release()
			if errors.Is(err, lock.ErrTimeout) {
				s.logger.Warn("Ledger lock timeout", zap.String("key", key))
				return nil, apperr.Conflict("schedule is busy, retry").Wrap(err)
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		held = append(held, unlock)
	}
	s.metrics.ObserveLockWait(time.Since(started).Seconds())

	return release, nil
}

// save persists b. When moved is set the new interval is checked against the
// ledger first; callers hold the key for b's current staff and date.
func (s *BookingService) save(ctx context.Context, b *model.Booking, moved bool) error {
	if moved {
		if err := s.ensureFree(ctx, b); err != nil {
			return err
		}
	}
	if err := s.bookings.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return apperr.Conflict("this time slot overlaps with an existing booking").Wrap(err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("booking not found").Wrap(err)
		}
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

func (s *BookingService) ensureFree(ctx context.Context, b *model.Booking) error {
	conflict, err := s.ledger.WouldConflict(ctx, b.StaffID, b.Date, ledger.FromBooking(b), b.ID)
	if err != nil {
		return err
	}
	if conflict {
		return apperr.Conflict("this time slot overlaps with an existing booking")
	}
	return nil
}

func (s *BookingService) validateTarget(ctx context.Context, staffID, slotStart string) error {
	if slotStart != "" {
		if err := validateSlot(slotStart); err != nil {
			return err
		}
	}
	if staffID != "" {
		exists, err := s.directory.StaffExists(ctx, staffID)
		if err != nil {
			return fmt.Errorf("check staff: %w", err)
		}
		if !exists {
			return apperr.NotFound("staff not found")
		}
	}
	return nil
}

func (s *BookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking not found")
	}
	return booking, nil
}

func (s *BookingService) notifyAdmins(ctx context.Context, booking *model.Booking) {
	admins, err := s.directory.AdminIDs(ctx)
	if err != nil {
		s.logger.Warn("Failed to list admins for notification",
			zap.String("booking_id", booking.ID),
			zap.Error(err),
		)
		return
	}
	clientName := s.userName(ctx, booking.ClientID, "")
	notify.Broadcast(ctx, s.notifier, admins, notify.NewBooking(booking, clientName))
}

func (s *BookingService) userName(ctx context.Context, id, fallback string) string {
	user, err := s.users.GetByID(ctx, id)
	if err != nil || user == nil {
		return fallback
	}
	return user.Name
}

// attachUsers fills Staff and Client for responses. Lookup failures leave
// the fields nil.
func (s *BookingService) attachUsers(ctx context.Context, bookings []*model.Booking) {
	cache := make(map[string]*model.User)
	get := func(id string) *model.User {
		if u, ok := cache[id]; ok {
			return u
		}
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			s.logger.Debug("User lookup failed", zap.String("user_id", id), zap.Error(err))
		}
		cache[id] = u
		return u
	}
	for _, b := range bookings {
		b.Staff = get(b.StaffID)
		b.Client = get(b.ClientID)
	}
}

// reassign applies the supplied fields and reports whether the interval or
// its owner changed.
func reassign(b *model.Booking, staffID, slotStart string, duration int) bool {
	moved := false
	if staffID != "" && staffID != b.StaffID {
		b.StaffID = staffID
		moved = true
	}
	if slotStart != "" && slotStart != b.SlotStart {
		b.SlotStart = slotStart
		moved = true
	}
	if duration != 0 && duration != b.Duration {
		b.Duration = duration
		moved = true
	}
	return moved
}

func validateSlot(slot string) error {
	if _, err := timegrid.ParseClock(slot); err != nil {
		return apperr.Validation("invalid slot time %q", slot)
	}
	if !timegrid.IsQuarter(slot) {
		return apperr.Validation("time must be in 15-min intervals (e.g. 11:00, 11:15, 12:30)")
	}
	if !timegrid.OnGrid(slot) {
		return apperr.Validation("slot time %s is outside business hours", slot)
	}
	return nil
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case apperr.IsKind(err, apperr.KindConflict):
		return "conflict"
	case apperr.IsKind(err, apperr.KindValidation), apperr.IsKind(err, apperr.KindNotFound):
		return "invalid"
	default:
		return "error"
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	if apperr.KindOf(err) == "" {
		span.SetStatus(codes.Error, err.Error())
	}
}
