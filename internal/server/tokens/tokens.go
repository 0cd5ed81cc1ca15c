// Package tokens implements the token authority: short-lived signed access
// tokens (JWT, HS256) and long-lived opaque refresh tokens that are persisted
// only as bcrypt hashes.
package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardenlabs/warden/internal/common"
)

// TokenTypeAccess is the type discriminator carried in access-token claims.
const TokenTypeAccess = "access"

// refreshTokenBytes is the entropy of a raw refresh token. 32 bytes hex-encode
// to 64 characters, which stays under bcrypt's 72-byte input limit.
const refreshTokenBytes = 32

// Claims is the access-token payload. The jti is a fresh UUID per token, used
// for traceability only, never for revocation bookkeeping.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	TokenType string `json:"type"`
}

// Manager mints and verifies tokens. It holds no mutable state and is safe
// for concurrent use; construct one per process and share it by reference.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager constructs a Manager signing with secret. accessTTL bounds the
// lifetime of access tokens, refreshTTL that of refresh tokens.
func NewManager(secret []byte, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess mints a signed access token for the given identity.
func (m *Manager) IssueAccess(userID, email, username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
		UserID:    userID,
		Email:     email,
		Username:  username,
		TokenType: TokenTypeAccess,
	})

	return token.SignedString(m.secret)
}

// VerifyAccess validates signature, expiry, and the type discriminator.
// Signature failure, expiry, malformed structure, and wrong token type are
// all reported uniformly as common.ErrInvalidToken so the caller cannot
// distinguish why validation failed.
func (m *Manager) VerifyAccess(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// IssueRefresh generates a high-entropy opaque token and its bcrypt hash.
// The raw value goes back to the caller and is never persisted; only the
// hash is stored, and recovering the raw token from it is computationally
// infeasible.
func (m *Manager) IssueRefresh() (raw string, hash string, err error) {
	raw, err = common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return "", "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return raw, string(h), nil
}

// VerifyRefresh checks a presented raw token against a stored hash. bcrypt's
// comparison does not short-circuit on early byte mismatch, so the check does
// not leak a timing side channel. Any error means false.
func (m *Manager) VerifyRefresh(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
