// Package common defines shared constants and sentinel errors used across
// the warden server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Authentication errors. The wording is deliberately identical for an
	// unknown identifier and a wrong password (enumeration resistance).
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// Authorization-state errors. These are specific on purpose: the
	// account's existence is already implied by the request context.
	ErrAccountDeactivated = errors.New("account is deactivated")

	// Validation errors, surfaced with a specific reason before any
	// persistence access.
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidUsername = errors.New("username must be 3-50 alphanumeric characters")
)
