package domain

import "time"

// RoleUser is assigned to every identity at registration.
const RoleUser = "ROLE_USER"

// User models a registered identity. ID is the numeric identity other
// services scope their data by.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
