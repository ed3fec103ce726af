package model

import "time"

type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "PENDING"  // waiting for an administrator
	BookingStatusApproved BookingStatus = "APPROVED" // confirmed
	BookingStatusRejected BookingStatus = "REJECTED" // declined or cancelled, terminal
)

// RejectReason tells apart the two ways a booking ends up REJECTED.
type RejectReason string

const (
	RejectReasonNone      RejectReason = ""
	RejectReasonDeclined  RejectReason = "DECLINED"
	RejectReasonCancelled RejectReason = "CANCELLED"
)

// DefaultDuration is used when a request carries no valid duration.
const DefaultDuration = 60

// AllowedDurations lists the booking lengths in minutes.
var AllowedDurations = []int{60, 90, 120}

type Booking struct {
	ID           string        `json:"id"`
	ClientID     string        `json:"clientId"`
	StaffID      string        `json:"staffId"`
	Date         time.Time     `json:"date"`
	SlotStart    string        `json:"slotTime"` // "HH:MM"
	Duration     int           `json:"duration"` // minutes
	Status       BookingStatus `json:"status"`
	RejectReason RejectReason  `json:"rejectReason,omitempty"`
	Message      string        `json:"message,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`

	// Filled in by services for responses, not stored
	Staff  *User `json:"staff,omitempty"`
	Client *User `json:"client,omitempty"`
}

// IsActive reports whether the booking still occupies its interval.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusApproved
}

// ValidDuration reports whether minutes is one of AllowedDurations.
func ValidDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s names a known booking status.
func ValidStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected:
		return true
	}
	return false
}
