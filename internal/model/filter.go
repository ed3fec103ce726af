package model

import "time"

// BookingFilter narrows a booking listing. Zero fields are ignored.
type BookingFilter struct {
	StaffID  string
	ClientID string
	Status   BookingStatus
	From     *time.Time
	To       *time.Time
}

// AvailabilityFilter narrows an availability listing. Zero fields are ignored.
type AvailabilityFilter struct {
	StaffID string
	From    *time.Time
	To      *time.Time
}
