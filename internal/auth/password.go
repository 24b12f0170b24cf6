// Package auth contains password hashing for user registration.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPassword returns the SHA-256 hex digest of the password.
// The plaintext is never stored.
func HashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}
