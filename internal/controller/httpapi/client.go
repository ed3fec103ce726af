package httpapi

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/service"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

type registerRequest struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Mobile string     `json:"mobile"`
	Role   model.Role `json:"role"`
}

// signUp creates a client account for an anonymous caller.
func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.users.SignUp)
}

// registerUser lets an admin create any role or rename an existing user.
func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.users.Register)
}

func (h *Handler) register(
	w http.ResponseWriter,
	r *http.Request,
	create func(ctx context.Context, in service.RegisterInput) (*model.User, error),
) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := create(r.Context(), service.RegisterInput{
		ID:     req.ID,
		Name:   req.Name,
		Mobile: req.Mobile,
		Role:   req.Role,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) staffAvailable(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, r, h.logger, apperr.Validation("date is required"))
		return
	}
	date, err := timegrid.ParseDate(raw)
	if err != nil {
		writeError(w, r, h.logger, apperr.Validation("date must be YYYY-MM-DD"))
		return
	}

	result, err := h.slots.Query(r.Context(), date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type submitRequest struct {
	StaffID  string `json:"staffId"`
	Date     string `json:"date"`
	SlotTime string `json:"slotTime"`
	Duration int    `json:"duration"`
	Message  string `json:"message"`
}

func (h *Handler) submitBooking(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.StaffID == "" || req.Date == "" || req.SlotTime == "" {
		writeError(w, r, h.logger, apperr.Validation("staffId, date, and slotTime are required"))
		return
	}
	date, err := timegrid.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, h.logger, apperr.Validation("date must be YYYY-MM-DD"))
		return
	}

	booking, err := h.bookings.Submit(r.Context(), service.SubmitRequest{
		ClientID:  currentUser(r.Context()).ID,
		StaffID:   req.StaffID,
		Date:      date,
		SlotStart: req.SlotTime,
		Duration:  req.Duration,
		Message:   req.Message,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handler) clientBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.List(r.Context(), model.BookingFilter{
		ClientID: currentUser(r.Context()).ID,
		Status:   model.BookingStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
