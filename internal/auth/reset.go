package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Reset tokens are single-use and live for one hour from issuance.
const ResetTokenTTL = time.Hour

// NewResetToken generates a password-reset token. The raw value is sent to
// the user out of band and never persisted; only its SHA-256 hash is stored,
// so a database compromise yields nothing usable.
func NewResetToken(now time.Time) (raw, storedHash string, expiresAt time.Time, err error) {
	buf := make([]byte, 20)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, err
	}
	raw = hex.EncodeToString(buf)
	return raw, HashResetToken(raw), now.UTC().Add(ResetTokenTTL), nil
}

// HashResetToken maps a presented raw token to its stored lookup key.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
