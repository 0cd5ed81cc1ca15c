package sessions

import (
	"context"
	"time"

	"github.com/wardenlabs/warden/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	// ListActive returns every session whose expiry is after now, joined with
	// the owning user's email, username, and active flag. Refresh and logout
	// scan this set to find the session matching a presented raw token.
	ListActive(ctx context.Context, now time.Time) ([]*models.Session, error)
	Touch(ctx context.Context, sessionID string, usedAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
}
