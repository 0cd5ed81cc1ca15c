// Package password implements the password authority: salted one-way hashing
// with a tunable work factor and a fixed strength policy.
package password

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost keeps a single hash in the tens-of-milliseconds range on
// current hardware.
const DefaultCost = 12

// MinLength is the minimum accepted password length.
const MinLength = 12

// symbols is the fixed punctuation set accepted by the strength policy.
const symbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"

var (
	ErrTooShort       = errors.New("password must be at least 12 characters")
	ErrMissingClasses = errors.New("password must contain uppercase, lowercase, digit, and special character")
)

// Hasher hashes and verifies passwords with bcrypt. The zero value is not
// usable; construct with NewHasher.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside
// bcrypt's supported range fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted bcrypt hash. The output embeds its own salt and cost
// parameter, so verification needs no side channel.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify recomputes and compares. Malformed hashes and internal errors are
// indistinguishable from a mismatch: the caller only ever sees false.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateStrength checks the fixed policy: length >= 12 and at least one
// uppercase letter, lowercase letter, digit, and symbol. The returned error
// text is the human-readable rejection reason; nil means the password is
// acceptable. There is no partial credit.
func ValidateStrength(password string) error {
	if len(password) < MinLength {
		return ErrTooShort
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case strings.ContainsRune(symbols, c):
			hasSymbol = true
		}
	}

	if !(hasUpper && hasLower && hasDigit && hasSymbol) {
		return ErrMissingClasses
	}
	return nil
}
