// Package password implements hashing and the NeuSentra strength policy.
package password

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	minLength = 8
	maxLength = 16
)

// specialChars is the set that satisfies the special-character requirement.
// '#' is a permitted character but does not count as special.
const (
	specialChars = "@$!%*?&"
	allowedExtra = "#"
)

// Hash bcrypt-hashes a plaintext password with the given cost.
func Hash(plain string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether plain matches the stored bcrypt hash.
func Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsStrong reports whether a password satisfies the strength policy:
// 8-16 characters with at least one lowercase letter, one uppercase
// letter, one digit and one special character, and nothing outside
// those classes.
func IsStrong(plain string) bool {
	if len(plain) < minLength || len(plain) > maxLength {
		return false
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		case strings.ContainsRune(allowedExtra, r):
			// permitted, satisfies nothing
		default:
			return false
		}
	}

	return hasLower && hasUpper && hasDigit && hasSpecial
}
