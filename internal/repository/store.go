package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/model"
)

// ErrOverlap is returned by BookingStore.Create and Update when the backing
// store itself rejects an overlapping active interval.
var ErrOverlap = errors.New("booking interval overlaps an active booking")

// ErrNotFound is returned by Update when the row is gone, for example
// cascade-deleted with its staff member.
var ErrNotFound = errors.New("record not found")

// Get-style methods return (nil, nil) when the row does not exist.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
}

type AvailabilityStore interface {
	Upsert(ctx context.Context, av *model.Availability) error
	Get(ctx context.Context, staffID string, date time.Time) (*model.Availability, error)
	ListByDate(ctx context.Context, date time.Time) ([]*model.Availability, error)
	List(ctx context.Context, filter model.AvailabilityFilter) ([]*model.Availability, error)
}

type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	ListActive(ctx context.Context, staffID string, date time.Time) ([]*model.Booking, error)
	ListActiveByDate(ctx context.Context, date time.Time) ([]*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

var (
	_ UserStore         = (*UserRepository)(nil)
	_ AvailabilityStore = (*AvailabilityRepository)(nil)
	_ BookingStore      = (*BookingRepository)(nil)
	_ NotificationStore = (*NotificationRepository)(nil)
)
