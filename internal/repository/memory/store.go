// Package memory keeps every repository in process memory. It backs
// STORAGE=memory deployments and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	availability  map[string]*model.Availability // staffID|date
	bookings      map[string]*model.Booking
	notifications map[string]*model.Notification
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*model.User),
		availability:  make(map[string]*model.Availability),
		bookings:      make(map[string]*model.Booking),
		notifications: make(map[string]*model.Notification),
		now:           time.Now,
	}
}

func (s *Store) Users() repository.UserStore { return (*userStore)(s) }
func (s *Store) Availability() repository.AvailabilityStore { return (*availabilityStore)(s) }
func (s *Store) Bookings() repository.BookingStore { return (*bookingStore)(s) }
func (s *Store) Notifications() repository.NotificationStore { return (*notificationStore)(s) }

func availabilityKey(staffID string, date time.Time) string {
	return staffID + "|" + timegrid.DateKey(date)
}

func inRange(date time.Time, from, to *time.Time) bool {
	key := timegrid.DateKey(date)
	if from != nil && key < timegrid.DateKey(*from) {
		return false
	}
	if to != nil && key > timegrid.DateKey(*to) {
		return false
	}
	return true
}

// users

type userStore Store

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("create user: id %s already exists", user.ID)
	}
	user.CreatedAt = s.now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (s *userStore) GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *userStore) Update(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	existing.Name = user.Name
	existing.State = user.State
	existing.TelegramChatID = user.TelegramChatID
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user not found")
	}
	delete(s.users, id)

	// same cascade as the foreign keys
	for key, av := range s.availability {
		if av.StaffID == id {
			delete(s.availability, key)
		}
	}
	for bid, b := range s.bookings {
		if b.StaffID == id || b.ClientID == id {
			delete(s.bookings, bid)
		}
	}
	for nid, n := range s.notifications {
		if n.UserID == id {
			delete(s.notifications, nid)
		}
	}
	return nil
}

func (s *userStore) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.User
	for _, u := range s.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// availability

type availabilityStore Store

func (s *availabilityStore) Upsert(ctx context.Context, av *model.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	av.Date = timegrid.NormalizeDate(av.Date)
	key := availabilityKey(av.StaffID, av.Date)
	if existing, ok := s.availability[key]; ok {
		av.ID = existing.ID
	} else {
		av.ID = uuid.NewString()
	}
	av.UpdatedAt = s.now()

	cp := *av
	cp.Windows = append([]string{}, av.Windows...)
	cp.Staff = nil
	s.availability[key] = &cp
	return nil
}

func (s *availabilityStore) Get(ctx context.Context, staffID string, date time.Time) (*model.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	av, ok := s.availability[availabilityKey(staffID, date)]
	if !ok {
		return nil, nil
	}
	return copyAvailability(av), nil
}

func (s *availabilityStore) ListByDate(ctx context.Context, date time.Time) ([]*model.Availability, error) {
	return s.List(ctx, model.AvailabilityFilter{From: &date, To: &date})
}

func (s *availabilityStore) List(ctx context.Context, filter model.AvailabilityFilter) ([]*model.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Availability
	for _, av := range s.availability {
		if filter.StaffID != "" && av.StaffID != filter.StaffID {
			continue
		}
		if !inRange(av.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, copyAvailability(av))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out, nil
}

func copyAvailability(av *model.Availability) *model.Availability {
	cp := *av
	cp.Windows = append([]string{}, av.Windows...)
	return &cp
}

// bookings

type bookingStore Store

func (s *bookingStore) Create(ctx context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking.ID = uuid.NewString()
	booking.Date = timegrid.NormalizeDate(booking.Date)
	booking.CreatedAt = s.now()
	booking.UpdatedAt = booking.CreatedAt

	cp := *booking
	cp.Staff, cp.Client = nil, nil
	s.bookings[booking.ID] = &cp
	return nil
}

func (s *bookingStore) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *bookingStore) Update(ctx context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("update booking %s: %w", booking.ID, repository.ErrNotFound)
	}
	existing.StaffID = booking.StaffID
	existing.SlotStart = booking.SlotStart
	existing.Duration = booking.Duration
	existing.Status = booking.Status
	existing.RejectReason = booking.RejectReason
	existing.UpdatedAt = s.now()
	booking.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *bookingStore) ListActive(ctx context.Context, staffID string, date time.Time) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := timegrid.DateKey(date)
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.StaffID == staffID && b.IsActive() && timegrid.DateKey(b.Date) == day {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *bookingStore) ListActiveByDate(ctx context.Context, date time.Time) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := timegrid.DateKey(date)
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.IsActive() && timegrid.DateKey(b.Date) == day {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *bookingStore) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Booking
	for _, b := range s.bookings {
		if filter.StaffID != "" && b.StaffID != filter.StaffID {
			continue
		}
		if filter.ClientID != "" && b.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if !inRange(b.Date, filter.From, filter.To) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func sortByStart(bookings []*model.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].StaffID != bookings[j].StaffID {
			return bookings[i].StaffID < bookings[j].StaffID
		}
		return timegrid.ToMinutes(bookings[i].SlotStart) < timegrid.ToMinutes(bookings[j].SlotStart)
	})
}

// notifications

type notificationStore Store

func (s *notificationStore) Create(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = s.now()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *notificationStore) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *notificationStore) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, nil
	}
	n.IsRead = true
	cp := *n
	return &cp, nil
}

func (s *notificationStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (s *notificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
