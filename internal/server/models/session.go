package models

import "time"

// Session represents one issued refresh-token lineage. Only a bcrypt hash of
// the refresh token is ever stored; the raw value exists solely at the API
// boundary.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	DeviceInfo       string
	ExpiresAt        time.Time
	LastUsedAt       *time.Time
	CreatedAt        time.Time

	// Owner fields joined in by the sessions repository for refresh flows.
	UserEmail    string
	UserUsername string
	UserIsActive bool
}
