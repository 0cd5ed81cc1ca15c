// Package csrf issues and validates time-bound anti-forgery tokens bound to a
// session identifier. Tokens have the shape
//
//	sessionID:unixTimestamp:hex(HMAC-SHA256(secret, "sessionID:unixTimestamp"))
//
// and are signed with a server secret distinct from the JWT signing secret.
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAge is the validation window applied when the caller passes a
// non-positive maxAge.
const DefaultMaxAge = time.Hour

// Guard generates and validates CSRF tokens. Stateless and safe for
// concurrent use.
type Guard struct {
	secret []byte

	now func() time.Time
}

// NewGuard constructs a Guard signing with secret.
func NewGuard(secret []byte) *Guard {
	return &Guard{secret: secret, now: time.Now}
}

// Generate returns a token bound to sessionID and the current time.
func (g *Guard) Generate(sessionID string) string {
	message := fmt.Sprintf("%s:%d", sessionID, g.now().Unix())
	return message + ":" + g.sign(message)
}

// Validate checks a presented token against the expected session identifier.
// The token must parse into exactly three colon-delimited parts, carry the
// expected session id, be no older than maxAge, and have a signature that
// matches under a constant-time comparison. Any parse error or mismatch
// yields false.
func (g *Guard) Validate(token, sessionID string, maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return false
	}
	tokenSessionID, timestamp, signature := parts[0], parts[1], parts[2]

	if tokenSessionID != sessionID {
		return false
	}

	issued, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if g.now().Unix()-issued > int64(maxAge.Seconds()) {
		return false
	}

	expected := g.sign(tokenSessionID + ":" + timestamp)
	return hmac.Equal([]byte(signature), []byte(expected))
}

func (g *Guard) sign(message string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
