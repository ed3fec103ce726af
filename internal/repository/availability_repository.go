package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository/base"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

const availabilityColumns = `id::text, staff_id::text, avail_date, windows, updated_at`

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(db base.DB) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(db)}
}

// Upsert replaces the window set for (staff_id, avail_date)
func (r *AvailabilityRepository) Upsert(ctx context.Context, av *model.Availability) error {
	query := `
		INSERT INTO staff_availability (staff_id, avail_date, windows)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (staff_id, avail_date) DO UPDATE
		SET windows = EXCLUDED.windows, updated_at = now()
		RETURNING id::text, updated_at
	`

	windows := av.Windows
	if windows == nil {
		windows = []string{}
	}

	err := r.DB().QueryRow(ctx, query, av.StaffID, timegrid.DateKey(av.Date), windows).
		Scan(&av.ID, &av.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}

	av.Date = timegrid.NormalizeDate(av.Date)
	return nil
}

// Get returns nil when the staff member published nothing for the date
func (r *AvailabilityRepository) Get(ctx context.Context, staffID string, date time.Time) (*model.Availability, error) {
	query := `SELECT ` + availabilityColumns + `
		FROM staff_availability
		WHERE staff_id = $1 AND avail_date = $2::date
	`

	av, err := scanAvailability(r.DB().QueryRow(ctx, query, staffID, timegrid.DateKey(date)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability: %w", err)
	}

	return av, nil
}

// ListByDate returns every availability record of a date
func (r *AvailabilityRepository) ListByDate(ctx context.Context, date time.Time) ([]*model.Availability, error) {
	query := `SELECT ` + availabilityColumns + `
		FROM staff_availability
		WHERE avail_date = $1::date
	`

	return r.query(ctx, "list availability by date", query, timegrid.DateKey(date))
}

// List returns availability records matching the filter, ascending by date
func (r *AvailabilityRepository) List(ctx context.Context, filter model.AvailabilityFilter) ([]*model.Availability, error) {
	var (
		conds []string
		args  []any
	)
	if filter.StaffID != "" {
		args = append(args, filter.StaffID)
		conds = append(conds, fmt.Sprintf("staff_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, timegrid.DateKey(*filter.From))
		conds = append(conds, fmt.Sprintf("avail_date >= $%d::date", len(args)))
	}
	if filter.To != nil {
		args = append(args, timegrid.DateKey(*filter.To))
		conds = append(conds, fmt.Sprintf("avail_date <= $%d::date", len(args)))
	}

	query := `SELECT ` + availabilityColumns + ` FROM staff_availability`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY avail_date ASC"

	return r.query(ctx, "list availability", query, args...)
}

func (r *AvailabilityRepository) query(ctx context.Context, op, query string, args ...any) ([]*model.Availability, error) {
	rows, err := r.DB().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*model.Availability
	for rows.Next() {
		av, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		list = append(list, av)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

func scanAvailability(row rowScanner) (*model.Availability, error) {
	var av model.Availability
	if err := row.Scan(&av.ID, &av.StaffID, &av.Date, &av.Windows, &av.UpdatedAt); err != nil {
		return nil, err
	}
	av.Date = timegrid.NormalizeDate(av.Date)
	return &av, nil
}
