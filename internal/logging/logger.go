// Package logging defines the structured-logging contract shared by the
// warden server layers. Security-relevant events (lockouts, throttled
// clients, audit write failures) must stay machine-searchable, so the
// canonical implementation emits JSON via log/slog; each component receives
// a child logger tagged with its module name.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "user logged in", "user_id", id)
//
// Callers must never pass raw credentials or refresh tokens as values.
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value
	// pairs, used to tag a component's logs with its module name.
	With(args ...any) Logger
}
