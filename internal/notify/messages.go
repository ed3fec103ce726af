package notify

import (
	"fmt"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

func Approved(b *model.Booking, staffName string) model.Notification {
	return model.Notification{
		UserID:    b.ClientID,
		Message:   fmt.Sprintf("Your booking with %s on %s has been approved!", staffName, timegrid.FormatShort(b.Date)),
		Kind:      model.NotificationSuccess,
		BookingID: b.ID,
	}
}

func Rejected(b *model.Booking) model.Notification {
	return model.Notification{
		UserID:    b.ClientID,
		Message:   fmt.Sprintf("Your booking request for %s has been rejected.", timegrid.FormatShort(b.Date)),
		Kind:      model.NotificationError,
		BookingID: b.ID,
	}
}

func Cancelled(b *model.Booking) model.Notification {
	return model.Notification{
		UserID:    b.ClientID,
		Message:   fmt.Sprintf("Your booking for %s has been cancelled.", timegrid.FormatShort(b.Date)),
		Kind:      model.NotificationError,
		BookingID: b.ID,
	}
}

// NewBooking builds the admin alert for a freshly submitted booking.
// UserID is left empty; Broadcast fills it per admin.
func NewBooking(b *model.Booking, clientName string) model.Notification {
	if clientName == "" {
		clientName = "Client"
	}
	return model.Notification{
		Message: fmt.Sprintf("New booking request from %s for %s at %s",
			clientName, timegrid.FormatShort(b.Date), timegrid.FormatClock12(b.SlotStart)),
		Kind:      model.NotificationInfo,
		BookingID: b.ID,
	}
}
