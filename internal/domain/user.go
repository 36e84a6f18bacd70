package domain

import (
	"strings"
	"time"
)

// User is the stored credential record for a student or instructor.
type User struct {
	ID              string
	Name            string
	Email           string
	EmailNormalized string
	PasswordHash    string
	Role            Role
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeEmail returns the lookup form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
