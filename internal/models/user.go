package models

import "time"

type User struct {
	ID          string
	Username    string
	Email       string
	Password    string
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin reports whether the user may access the admin area.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}
