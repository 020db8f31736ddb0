package model

import "time"

// EmailSession binds a verified email address to an opaque bearer token
// for self-service access to that email's reservations.  Only the
// SHA-256 hash of the token is persisted; the raw value exists once, in
// the magic link handed to the caller.  A session is valid while it is
// not revoked and not past its expiry; expired rows are harmless and are
// only ever filtered out at validation time, never swept.
//
// Fields:
//  ID        – primary key identifier.
//  Email     – verified address, lower-cased, indexed.
//  TokenHash – sha256 hex of the raw token, unique.
//  CreatedAt – issuance timestamp.
//  ExpiresAt – hard expiry.
//  UserAgent – audit: issuing client's User-Agent (truncated).
//  IPPrefix  – audit: issuing client's address (truncated).
//  IsRevoked – terminal revocation flag.
type EmailSession struct {
	ID        uint64    // email_sessions.id
	Email     string    // email_sessions.email
	TokenHash string    // email_sessions.token_hash
	CreatedAt time.Time // email_sessions.created_at
	ExpiresAt time.Time // email_sessions.expires_at
	UserAgent string    // email_sessions.user_agent
	IPPrefix  string    // email_sessions.ip_prefix
	IsRevoked bool      // email_sessions.is_revoked
}

// ValidAt reports whether the session can authenticate a request at the
// given instant.
func (s EmailSession) ValidAt(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}
