package domain

import "time"

// User is an account in the user directory.
type User struct {
	ID        string
	Username  string
	Nickname  string
	Email     string
	Phone     string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusLocked   UserStatus = "LOCKED"
	UserStatusDisabled UserStatus = "DISABLED"
)
