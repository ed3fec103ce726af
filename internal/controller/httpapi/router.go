// Package httpapi exposes the booking desk over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/service"
)

type Config struct {
	Logger        *zap.Logger
	Users         *service.UserService
	Staff         *service.StaffService
	Availability  *service.AvailabilityService
	Slots         *service.SlotService
	Bookings      *service.BookingService
	Notifications *service.NotificationService

	// MetricsHandler is mounted at /metrics when set
	MetricsHandler http.Handler
}

type Handler struct {
	logger        *zap.Logger
	users         *service.UserService
	staff         *service.StaffService
	availability  *service.AvailabilityService
	slots         *service.SlotService
	bookings      *service.BookingService
	notifications *service.NotificationService
}

func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		logger:        logger,
		users:         cfg.Users,
		staff:         cfg.Staff,
		availability:  cfg.Availability,
		slots:         cfg.Slots,
		bookings:      cfg.Bookings,
		notifications: cfg.Notifications,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/api/health", h.health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Post("/api/users", h.signUp)

	authenticated := requireRole(cfg.Users, logger)

	r.Route("/api/client", func(r chi.Router) {
		r.With(authenticated).Get("/staff-available", h.staffAvailable)
		r.Group(func(r chi.Router) {
			r.Use(requireRole(cfg.Users, logger, model.RoleClient))
			r.Post("/bookings", h.submitBooking)
			r.Get("/bookings", h.clientBookings)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireRole(cfg.Users, logger, model.RoleAdmin))

		r.Post("/users", h.registerUser)

		r.Get("/staff", h.listStaff)
		r.Post("/staff", h.createStaff)
		r.Put("/staff/{id}", h.updateStaff)
		r.Delete("/staff/{id}", h.deleteStaff)

		r.Post("/availability", h.setAvailability)
		r.Get("/availability", h.getAvailability)

		r.Get("/bookings", h.adminBookings)
		r.Get("/bookings/{id}", h.getBooking)
		r.Patch("/bookings/{id}/approve", h.approveBooking)
		r.Patch("/bookings/{id}/reject", h.rejectBooking)
		r.Patch("/bookings/{id}/cancel", h.cancelBooking)
		r.Patch("/bookings/{id}", h.amendBooking)
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(requireRole(cfg.Users, logger, model.RoleStaff))
		r.Get("/bookings", h.staffBookings)
		r.Get("/schedule", h.staffSchedule)
		r.Get("/profile", h.me)
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", h.listNotifications)
		r.Get("/unread-count", h.unreadCount)
		r.Patch("/read-all", h.markAllRead)
		r.Patch("/{id}/read", h.markRead)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()))
}
