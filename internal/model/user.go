package model

import "time"

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleClient Role = "CLIENT"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	State          string    `json:"state,omitempty"` // free-form region tag
	Mobile         string    `json:"mobile,omitempty"`
	Role           Role      `json:"role"`
	TelegramChatID *int64    `json:"-"` // nil when the user never linked Telegram
	CreatedAt      time.Time `json:"createdAt"`
}

// IsStaff reports whether the user can be booked.
func (u *User) IsStaff() bool {
	return u != nil && u.Role == RoleStaff
}
