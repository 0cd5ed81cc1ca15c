// Package services contains the application logic layered between transport
// handlers and repositories. AuthService orchestrates registration, login,
// refresh, and logout, and is the only place lockout and audit rules live.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wardenlabs/warden/internal/common"
	"github.com/wardenlabs/warden/internal/dbx"
	"github.com/wardenlabs/warden/internal/logging"
	"github.com/wardenlabs/warden/internal/server/models"
	"github.com/wardenlabs/warden/internal/server/password"
	"github.com/wardenlabs/warden/internal/server/repositories/repomanager"
	"github.com/wardenlabs/warden/internal/server/tokens"
)

// Lockout defaults. After DefaultLockoutThreshold consecutive failed logins
// the account is locked for DefaultLockoutDuration.
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 30 * time.Minute
)

// AccountLockedError reports a login attempt against a locked account.
// RetryAfter is the time remaining at the moment of the attempt.
type AccountLockedError struct {
	Until      time.Time
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	mins := int(e.RetryAfter.Minutes())
	if e.RetryAfter > time.Duration(mins)*time.Minute {
		mins++
	}
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("account locked due to too many failed login attempts, try again in %d minutes", mins)
}

// TokenPair is the credential material returned by a successful login or
// refresh. RefreshToken is the raw opaque value; it appears nowhere else.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthServiceOptions tunes lockout behavior. Zero values fall back to the
// package defaults.
type AuthServiceOptions struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
}

// AuthService implements the credential and session engine.
type AuthService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	hasher   *password.Hasher
	tokens   *tokens.Manager
	log      logging.Logger
	validate *validator.Validate

	lockoutThreshold int
	lockoutDuration  time.Duration

	now func() time.Time
}

// NewAuthService wires the engine together.
func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, hasher *password.Hasher, tm *tokens.Manager, log logging.Logger, opts AuthServiceOptions) *AuthService {
	if opts.LockoutThreshold <= 0 {
		opts.LockoutThreshold = DefaultLockoutThreshold
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = DefaultLockoutDuration
	}
	return &AuthService{
		db:               db,
		repos:            repos,
		hasher:           hasher,
		tokens:           tm,
		log:              log,
		validate:         validator.New(),
		lockoutThreshold: opts.LockoutThreshold,
		lockoutDuration:  opts.LockoutDuration,
		now:              time.Now,
	}
}

// Register creates a new account. Email and username are normalized to lower
// case before validation and storage. Validation runs in a fixed order
// (email, then username, then password strength) and the first failure wins.
func (s *AuthService) Register(ctx context.Context, email, username, pw, ip, userAgent string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))

	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, common.ErrInvalidEmail
	}
	if err := s.validate.Var(username, "required,alphanum,min=3,max=50"); err != nil {
		return nil, common.ErrInvalidUsername
	}
	if err := password.ValidateStrength(pw); err != nil {
		return nil, err
	}

	exists, err := s.repos.Users(s.db).ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if exists {
		s.audit(ctx, s.db, nil, models.AuditActionRegister, ip, userAgent,
			models.AuditStatusFailed, `{"reason":"duplicate_identity"}`)
		return nil, common.ErrUserExists
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err = s.repos.Users(tx).Create(ctx, &models.User{
			Email:        email,
			Username:     username,
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil {
			return err
		}
		return s.repos.AuditLogs(tx).Insert(ctx, &models.AuditLogEntry{
			UserID:    &created.ID,
			Action:    models.AuditActionRegister,
			IPAddress: ip,
			UserAgent: userAgent,
			Status:    models.AuditStatusSuccess,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// Login authenticates by email or username. An unknown identifier and a wrong
// password produce the same error value; only the audit trail distinguishes
// them. Each failed attempt is counted, and the attempt that reaches the
// lockout threshold both records the lock and reports it.
func (s *AuthService) Login(ctx context.Context, identifier, pw, ip, userAgent string) (*TokenPair, *models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	now := s.now()

	user, err := s.repos.Users(s.db).GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.audit(ctx, s.db, nil, models.AuditActionLogin, ip, userAgent,
				models.AuditStatusFailed, `{"reason":"user_not_found"}`)
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.Locked(now) {
		s.audit(ctx, s.db, &user.ID, models.AuditActionLogin, ip, userAgent,
			models.AuditStatusFailed, `{"reason":"account_locked"}`)
		return nil, nil, &AccountLockedError{Until: *user.LockedUntil, RetryAfter: user.LockedUntil.Sub(now)}
	}

	if !user.IsActive {
		s.audit(ctx, s.db, &user.ID, models.AuditActionLogin, ip, userAgent,
			models.AuditStatusFailed, `{"reason":"account_deactivated"}`)
		return nil, nil, common.ErrAccountDeactivated
	}

	if !s.hasher.Verify(pw, user.PasswordHash) {
		attempts := user.FailedLoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= s.lockoutThreshold {
			t := now.Add(s.lockoutDuration)
			lockedUntil = &t
		}
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repos.Users(tx).RecordLoginFailure(ctx, user.ID, attempts, lockedUntil); err != nil {
				return err
			}
			return s.repos.AuditLogs(tx).Insert(ctx, &models.AuditLogEntry{
				UserID:    &user.ID,
				Action:    models.AuditActionLogin,
				IPAddress: ip,
				UserAgent: userAgent,
				Status:    models.AuditStatusFailed,
				Metadata:  fmt.Sprintf(`{"reason":"wrong_password","attempts":%d}`, attempts),
			})
		})
		if err != nil {
			return nil, nil, err
		}
		// The attempt that crosses the threshold persists the lock but still
		// reports generic invalid credentials; only later attempts against
		// the locked account surface the lock.
		if lockedUntil != nil {
			s.log.Warn(ctx, "account locked", "user_id", user.ID, "attempts", attempts)
		}
		return nil, nil, common.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccess(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, nil, err
	}
	rawRefresh, refreshHash, err := s.tokens.IssueRefresh()
	if err != nil {
		return nil, nil, err
	}

	device, err := json.Marshal(map[string]string{"ip": ip, "user_agent": userAgent})
	if err != nil {
		return nil, nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).ResetLoginFailures(ctx, user.ID); err != nil {
			return err
		}
		if _, err := s.repos.Sessions(tx).Create(ctx, &models.Session{
			UserID:           user.ID,
			RefreshTokenHash: refreshHash,
			DeviceInfo:       string(device),
			ExpiresAt:        now.Add(s.tokens.RefreshTTL()),
		}); err != nil {
			return err
		}
		return s.repos.AuditLogs(tx).Insert(ctx, &models.AuditLogEntry{
			UserID:    &user.ID,
			Action:    models.AuditActionLogin,
			IPAddress: ip,
			UserAgent: userAgent,
			Status:    models.AuditStatusSuccess,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, user, nil
}

// Refresh exchanges a raw refresh token for a fresh access token. The
// presented value is matched against stored hashes of unexpired sessions;
// the refresh token itself is not rotated, so the same raw value stays
// valid until its session expires or is revoked.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	session, err := s.findSession(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	if !session.UserIsActive {
		return nil, common.ErrAccountDeactivated
	}

	if err := s.repos.Sessions(s.db).Touch(ctx, session.ID, s.now()); err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccess(session.UserID, session.UserEmail, session.UserUsername)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the session matching the presented refresh token. Access
// tokens already issued stay valid until expiry; only the refresh lineage
// dies here.
func (s *AuthService) Logout(ctx context.Context, rawToken, ip, userAgent string) error {
	session, err := s.findSession(ctx, rawToken)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Sessions(tx).Delete(ctx, session.ID); err != nil {
			return err
		}
		return s.repos.AuditLogs(tx).Insert(ctx, &models.AuditLogEntry{
			UserID:    &session.UserID,
			Action:    models.AuditActionLogout,
			IPAddress: ip,
			UserAgent: userAgent,
			Status:    models.AuditStatusSuccess,
		})
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "session revoked", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

// Introspect validates an access token and returns its claims.
func (s *AuthService) Introspect(_ context.Context, accessToken string) (*tokens.Claims, error) {
	return s.tokens.VerifyAccess(accessToken)
}

// findSession scans unexpired sessions for one whose stored hash matches the
// presented raw token. Expired sessions are excluded by the query, so expiry
// and revocation are indistinguishable to the caller.
func (s *AuthService) findSession(ctx context.Context, rawToken string) (*models.Session, error) {
	if rawToken == "" {
		return nil, common.ErrInvalidToken
	}
	active, err := s.repos.Sessions(s.db).ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, session := range active {
		if s.tokens.VerifyRefresh(rawToken, session.RefreshTokenHash) {
			return session, nil
		}
	}
	return nil, common.ErrInvalidToken
}

// audit writes a single trail entry outside any transaction. Audit failures
// are logged but never change the outcome of the attempt being recorded.
func (s *AuthService) audit(ctx context.Context, db dbx.DBTX, userID *string, action, ip, userAgent, status, metadata string) {
	err := s.repos.AuditLogs(db).Insert(ctx, &models.AuditLogEntry{
		UserID:    userID,
		Action:    action,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    status,
		Metadata:  metadata,
	})
	if err != nil {
		s.log.Error(ctx, "audit write failed", "action", action, "error", err)
	}
}
