package httpapi

import "net/http"

func (h *Handler) staffBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	filter.StaffID = currentUser(r.Context()).ID

	list, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) staffSchedule(w http.ResponseWriter, r *http.Request) {
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

	schedule, err := h.bookings.Schedule(r.Context(), currentUser(r.Context()).ID, valueOrZero(from), valueOrZero(to))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}
