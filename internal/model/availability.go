package model

import "time"

// Availability is the set of hourly windows a staff member opened for one day.
type Availability struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staffId"`
	Date      time.Time `json:"date"`
	Windows   []string  `json:"slots"` // "11:00", "12:00", ...
	UpdatedAt time.Time `json:"updatedAt"`

	Staff *User `json:"staff,omitempty"`
}

// HasWindow reports whether label is one of the published windows.
func (a *Availability) HasWindow(label string) bool {
	if a == nil {
		return false
	}
	for _, w := range a.Windows {
		if w == label {
			return true
		}
	}
	return false
}
