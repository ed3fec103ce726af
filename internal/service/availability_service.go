package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
	"go.uber.org/zap"
)

// DefaultWindows is applied when availability is set without a window list.
// Every entry is a start time Submit accepts.
var DefaultWindows = []string{
	"11:00", "12:00", "13:00", "14:00", "15:00",
	"16:00", "17:00", "18:00", "19:00", "20:00",
}

type AvailabilityService struct {
	store     repository.AvailabilityStore
	users     repository.UserStore
	directory Directory
	logger    *zap.Logger
}

func NewAvailabilityService(
	store repository.AvailabilityStore,
	users repository.UserStore,
	directory Directory,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		store:     store,
		users:     users,
		directory: directory,
		logger:    logger,
	}
}

// Set replaces the window set of staffID on date. A nil windows slice means
// the default full day; an empty non-nil slice closes the day.
func (s *AvailabilityService) Set(ctx context.Context, staffID string, date time.Time, windows []string) (*model.Availability, error) {
	if staffID == "" || date.IsZero() {
		return nil, apperr.Validation("staffId and date are required")
	}

	normalized, err := normalizeWindows(windows)
	if err != nil {
		return nil, err
	}

	exists, err := s.directory.StaffExists(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("check staff: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("staff not found")
	}

	av := &model.Availability{
		StaffID: staffID,
		Date:    timegrid.NormalizeDate(date),
		Windows: normalized,
	}
	if err := s.store.Upsert(ctx, av); err != nil {
		return nil, fmt.Errorf("upsert availability: %w", err)
	}

	s.logger.Info("Availability set",
		zap.String("staff_id", staffID),
		zap.String("date", timegrid.DateKey(av.Date)),
		zap.Int("windows", len(av.Windows)),
	)

	av.Staff, _ = s.users.GetByID(ctx, staffID)
	return av, nil
}

// Get lists availability records ascending by date.
func (s *AvailabilityService) Get(ctx context.Context, filter model.AvailabilityFilter) ([]*model.Availability, error) {
	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	staff := make(map[string]*model.User)
	for _, av := range list {
		if _, seen := staff[av.StaffID]; !seen {
			staff[av.StaffID], _ = s.users.GetByID(ctx, av.StaffID)
		}
		av.Staff = staff[av.StaffID]
	}
	return list, nil
}

func normalizeWindows(windows []string) ([]string, error) {
	if windows == nil {
		return append([]string(nil), DefaultWindows...), nil
	}

	seen := make(map[int]struct{}, len(windows))
	minutes := make([]int, 0, len(windows))
	for _, w := range windows {
		m, err := timegrid.ParseClock(w)
		if err != nil || m%60 != 0 {
			return nil, apperr.Validation("invalid window %q, expected HH:00", w)
		}
		if !timegrid.OnGrid(timegrid.FromMinutes(m)) {
			return nil, apperr.Validation("window %s is outside business hours", w)
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)

	out := make([]string, len(minutes))
	for i, m := range minutes {
		out[i] = timegrid.FromMinutes(m)
	}
	return out, nil
}
