package models

import "time"

// Audit actions and statuses. The engine writes exactly one entry per
// registration or login attempt, success or failure.
const (
	AuditActionRegister = "register"
	AuditActionLogin    = "login"
	AuditActionLogout   = "logout"

	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
)

// AuditLogEntry is an append-only record of a security-relevant action.
// UserID is nil for failures where the identity is unknown.
type AuditLogEntry struct {
	ID        string
	UserID    *string
	Action    string
	IPAddress string
	UserAgent string
	Status    string
	Metadata  string
	CreatedAt time.Time
}
