// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an identity record. Email and username are stored lower-cased and
// are unique. The failed-attempt counter and LockedUntil implement account
// lockout; a successful login resets both.
type User struct {
	ID                  string
	Email               string
	Username            string
	PasswordHash        string
	IsActive            bool
	IsVerified          bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
}

// Locked reports whether the account is locked at the given instant.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
