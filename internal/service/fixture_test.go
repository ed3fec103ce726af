package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/lock"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/observability/metrics"
	"github.com/Freeeeeet/booking_desk/internal/repository/memory"
)

var day = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	seen []model.Notification
}

func (r *recorder) Notify(_ context.Context, n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

func (r *recorder) forUser(id string) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.seen {
		if n.UserID == id {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

type fixture struct {
	store        *memory.Store
	staff        *StaffService
	users        *UserService
	availability *AvailabilityService
	slots        *SlotService
	bookings     *BookingService
	notes        *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLocker(t, lock.NewLocal(2*time.Second))
}

func newFixtureWithLocker(t *testing.T, locker lock.Locker) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	notes := &recorder{}
	staff := NewStaffService(store.Users(), logger)

	f := &fixture{
		store:        store,
		staff:        staff,
		users:        NewUserService(store.Users(), logger),
		availability: NewAvailabilityService(store.Availability(), store.Users(), staff, logger),
		slots:        NewSlotService(store.Availability(), store.Bookings(), store.Users()),
		bookings: NewBookingService(
			store.Bookings(), store.Availability(), store.Users(), staff,
			locker, notes, metrics.NewBookingMetrics(prometheus.NewRegistry()), logger,
		),
		notes: notes,
	}

	f.addUser(t, "admin", "Root", model.RoleAdmin)
	f.addUser(t, "s1", "Sam", model.RoleStaff)
	f.addUser(t, "s2", "Alex", model.RoleStaff)
	f.addUser(t, "c1", "Casey", model.RoleClient)
	f.addUser(t, "c2", "Jordan", model.RoleClient)
	return f
}

func (f *fixture) addUser(t *testing.T, id, name string, role model.Role) {
	t.Helper()
	require.NoError(t, f.store.Users().Create(context.Background(), &model.User{
		ID: id, Name: name, Mobile: id + "-mobile", Role: role,
	}))
}

func (f *fixture) open(t *testing.T, staffID string, windows ...string) {
	t.Helper()
	_, err := f.availability.Set(context.Background(), staffID, day, windows)
	require.NoError(t, err)
}

func (f *fixture) submit(clientID, staffID, slot string, duration int) (*model.Booking, error) {
	return f.bookings.Submit(context.Background(), SubmitRequest{
		ClientID:  clientID,
		StaffID:   staffID,
		Date:      day,
		SlotStart: slot,
		Duration:  duration,
	})
}
