package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"     // secure random number generation
	"crypto/sha256"   // SHA-256 hashing for session tokens
	"encoding/base64" // URL-safe encoding of raw tokens
	"encoding/hex"    // hex encoding of token hashes
)

// NewSessionToken returns a fresh high-entropy opaque token suitable for
// magic links and session cookies: 32 random bytes, URL-safe base64
// without padding (43 characters).  The raw value is handed to the
// caller exactly once; only its hash is ever persisted.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSessionToken returns the SHA-256 hash of the raw token as a hex
// string.  Storing only the hash means a leaked database dump cannot be
// replayed as a live credential.
func HashSessionToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
