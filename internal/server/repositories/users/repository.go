package users

import (
	"context"
	"time"

	"github.com/wardenlabs/warden/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByIdentifier looks a user up by email or username, case-insensitively.
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	// RecordLoginFailure stores the new failed-attempt count and, when the
	// lockout threshold was reached, the lockout deadline.
	RecordLoginFailure(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error
	// ResetLoginFailures zeroes the counter and clears any lockout.
	ResetLoginFailures(ctx context.Context, userID string) error
}
