package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Lifetimes of the single-use tokens sent by email.
const (
	VerificationTokenTTL = 24 * time.Hour
	ResetTokenTTL        = 10 * time.Minute
)

// GenerateToken returns a random token for the email link and the hash to persist.
// Only the hash is ever stored.
func GenerateToken() (raw, hashed string, err error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

// HashToken is the one-way hash tokens are stored and looked up by.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
