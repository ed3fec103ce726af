package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/ledger"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository/base"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

const bookingColumns = `id::text, client_id::text, staff_id::text, booking_date, slot_start, duration_minutes,
		status, reject_reason, COALESCE(message, ''), created_at, updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(db base.DB) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(db)}
}

// Create inserts a booking. start_minute/end_minute feed the exclusion
// constraint that backs the in-process conflict check.
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (client_id, staff_id, booking_date, slot_start, duration_minutes,
			start_minute, end_minute, status, reject_reason, message)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING id::text, created_at, updated_at
	`

	iv := ledger.FromBooking(booking)
	err := r.DB().QueryRow(
		ctx, query,
		booking.ClientID,
		booking.StaffID,
		timegrid.DateKey(booking.Date),
		booking.SlotStart,
		booking.Duration,
		iv.Start,
		iv.End,
		booking.Status,
		booking.RejectReason,
		booking.Message,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsExclusionViolation(err) {
			return fmt.Errorf("create booking: %w", ErrOverlap)
		}
		return fmt.Errorf("create booking: %w", err)
	}

	booking.Date = timegrid.NormalizeDate(booking.Date)
	return nil
}

// GetByID returns nil when the booking does not exist
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if !base.ValidID(id) {
		return nil, nil
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// Update writes the mutable fields of a booking back
func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET staff_id = $2,
			slot_start = $3,
			duration_minutes = $4,
			start_minute = $5,
			end_minute = $6,
			status = $7,
			reject_reason = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	iv := ledger.FromBooking(booking)
	err := r.DB().QueryRow(
		ctx, query,
		booking.ID,
		booking.StaffID,
		booking.SlotStart,
		booking.Duration,
		iv.Start,
		iv.End,
		booking.Status,
		booking.RejectReason,
	).Scan(&booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update booking %s: %w", booking.ID, ErrNotFound)
		}
		if base.IsExclusionViolation(err) {
			return fmt.Errorf("update booking: %w", ErrOverlap)
		}
		return fmt.Errorf("update booking: %w", err)
	}

	return nil
}

// ListActive returns PENDING/APPROVED bookings of a staff member on a date
func (r *BookingRepository) ListActive(ctx context.Context, staffID string, date time.Time) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE staff_id = $1 AND booking_date = $2::date AND status IN ('PENDING', 'APPROVED')
		ORDER BY start_minute ASC
	`

	return r.query(ctx, "list active bookings", query, staffID, timegrid.DateKey(date))
}

// ListActiveByDate returns PENDING/APPROVED bookings of every staff member on a date
func (r *BookingRepository) ListActiveByDate(ctx context.Context, date time.Time) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_date = $1::date AND status IN ('PENDING', 'APPROVED')
		ORDER BY staff_id, start_minute ASC
	`

	return r.query(ctx, "list active bookings by date", query, timegrid.DateKey(date))
}

// List returns bookings matching the filter, by date then newest first
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.StaffID != "" {
		add("staff_id = $%d", filter.StaffID)
	}
	if filter.ClientID != "" {
		add("client_id = $%d", filter.ClientID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.From != nil {
		add("booking_date >= $%d::date", timegrid.DateKey(*filter.From))
	}
	if filter.To != nil {
		add("booking_date <= $%d::date", timegrid.DateKey(*filter.To))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY booking_date ASC, created_at DESC"

	return r.query(ctx, "list bookings", query, args...)
}

func (r *BookingRepository) query(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.DB().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.StaffID,
		&booking.Date,
		&booking.SlotStart,
		&booking.Duration,
		&booking.Status,
		&booking.RejectReason,
		&booking.Message,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.Date = timegrid.NormalizeDate(booking.Date)
	return &booking, nil
}
