package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the number of random bytes in a one-time token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const tokenBytes = 32

// generateToken produces a cryptographically random raw token and its
// SHA-256 hash. The raw value goes into the email link; only the hash is
// persisted, so a database leak does not expose usable tokens (the same
// reasoning as password hashing).
func generateToken() (raw, hash string, err error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, hashToken(raw), nil
}

// hashToken computes the deterministic one-way hash of a raw token. Used at
// generation time and again at verification time to locate the stored row.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
