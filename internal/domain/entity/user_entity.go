package entity

import (
	"time"
)

// User is the authentication account behind a member profile.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID        string
	Email     string
	Password  string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleAdmin grants privileged operations such as deleting other members.
const RoleAdmin = "admin"

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}
