package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"go.uber.org/zap"
)

// Directory resolves who can be booked and who gets admin alerts.
type Directory interface {
	StaffExists(ctx context.Context, id string) (bool, error)
	AdminIDs(ctx context.Context) ([]string, error)
}

type StaffInput struct {
	Name  string
	State string
}

// StaffUpdate carries optional fields; nil leaves the value untouched.
type StaffUpdate struct {
	Name  *string
	State *string
}

type StaffService struct {
	users  repository.UserStore
	logger *zap.Logger
}

func NewStaffService(users repository.UserStore, logger *zap.Logger) *StaffService {
	return &StaffService{
		users:  users,
		logger: logger,
	}
}

var _ Directory = (*StaffService)(nil)

// Create adds a staff member. The login handle is generated because staff
// are created by administrators without one.
func (s *StaffService) Create(ctx context.Context, in StaffInput) (*model.User, error) {
	name, state := strings.TrimSpace(in.Name), strings.TrimSpace(in.State)
	if name == "" || state == "" {
		return nil, apperr.Validation("name and state are required")
	}

	staff := &model.User{
		Name:   name,
		State:  state,
		Mobile: generatedMobile("staff", time.Now()),
		Role:   model.RoleStaff,
	}
	if err := s.users.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("create staff: %w", err)
	}

	s.logger.Info("Staff created",
		zap.String("staff_id", staff.ID),
		zap.String("name", staff.Name),
	)
	return staff, nil
}

func (s *StaffService) Update(ctx context.Context, id string, upd StaffUpdate) (*model.User, error) {
	staff, err := s.getStaff(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		staff.Name = name
	}
	if upd.State != nil {
		staff.State = strings.TrimSpace(*upd.State)
	}

	if err := s.users.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("update staff: %w", err)
	}

	s.logger.Info("Staff updated", zap.String("staff_id", id))
	return staff, nil
}

func (s *StaffService) Delete(ctx context.Context, id string) error {
	if _, err := s.getStaff(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}

	s.logger.Info("Staff deleted", zap.String("staff_id", id))
	return nil
}

// List returns all staff ordered by name.
func (s *StaffService) List(ctx context.Context) ([]*model.User, error) {
	staff, err := s.users.ListByRole(ctx, model.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

func (s *StaffService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.getStaff(ctx, id)
}

func (s *StaffService) StaffExists(ctx context.Context, id string) (bool, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get staff: %w", err)
	}
	return user.IsStaff(), nil
}

func (s *StaffService) AdminIDs(ctx context.Context) ([]string, error) {
	admins, err := s.users.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	ids := make([]string, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *StaffService) getStaff(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get staff: %w", err)
	}
	if !user.IsStaff() {
		return nil, apperr.NotFound("staff not found")
	}
	return user, nil
}

// generatedMobile builds a unique placeholder login, "staff-1712345678901-k3x9qz".
func generatedMobile(prefix string, now time.Time) string {
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + strconv.FormatUint(rand.Uint64()%(36*36*36*36*36*36), 36)
}
