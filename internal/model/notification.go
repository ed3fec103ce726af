package model

import "time"

type NotificationKind string

const (
	NotificationInfo    NotificationKind = "INFO"
	NotificationSuccess NotificationKind = "SUCCESS"
	NotificationError   NotificationKind = "ERROR"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"type"`
	BookingID string           `json:"bookingId,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
