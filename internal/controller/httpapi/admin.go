package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/service"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

type staffRequest struct {
	Name  *string `json:"name"`
	State *string `json:"state"`
}

func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.staff.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if staff == nil {
		staff = []*model.User{}
	}
	writeJSON(w, http.StatusOK, staff)
}

func (h *Handler) createStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in := service.StaffInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.State != nil {
		in.State = *req.State
	}

	staff, err := h.staff.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, staff)
}

func (h *Handler) updateStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	staff, err := h.staff.Update(r.Context(), chi.URLParam(r, "id"), service.StaffUpdate{
		Name:  req.Name,
		State: req.State,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (h *Handler) deleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.staff.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityRequest struct {
	StaffID string   `json:"staffId"`
	Date    string   `json:"date"`
	Slots   []string `json:"slots"` // absent or null applies the default day
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.StaffID == "" || req.Date == "" {
		writeError(w, r, h.logger, apperr.Validation("staffId and date are required"))
		return
	}
	date, err := timegrid.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, h.logger, apperr.Validation("date must be YYYY-MM-DD"))
		return
	}

	av, err := h.availability.Set(r.Context(), req.StaffID, date, req.Slots)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "startDate")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	to, err := queryDate(r, "endDate")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.availability.Get(r.Context(), model.AvailabilityFilter{
		StaffID: r.URL.Query().Get("staffId"),
		From:    from,
		To:      to,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []*model.Availability{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) adminBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	filter.StaffID = r.URL.Query().Get("staffId")
	filter.ClientID = r.URL.Query().Get("clientId")

	list, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type changeRequest struct {
	StaffID  string `json:"staffId"`
	SlotTime string `json:"slotTime"`
	Duration int    `json:"duration"`
}

func (h *Handler) approveBooking(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	booking, err := h.bookings.Approve(r.Context(), chi.URLParam(r, "id"), service.ApproveRequest{
		StaffID:   req.StaffID,
		SlotStart: req.SlotTime,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) rejectBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) amendBooking(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	booking, err := h.bookings.Amend(r.Context(), chi.URLParam(r, "id"), service.AmendRequest{
		StaffID:   req.StaffID,
		SlotStart: req.SlotTime,
		Duration:  req.Duration,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// bookingFilter reads status, startDate and endDate.
func bookingFilter(r *http.Request) (model.BookingFilter, error) {
	from, err := queryDate(r, "startDate")
	if err != nil {
		return model.BookingFilter{}, err
	}
	to, err := queryDate(r, "endDate")
	if err != nil {
		return model.BookingFilter{}, err
	}
	return model.BookingFilter{
		Status: model.BookingStatus(r.URL.Query().Get("status")),
		From:   from,
		To:     to,
	}, nil
}
