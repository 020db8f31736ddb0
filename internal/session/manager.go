// Package session implements the passwordless email session manager:
// issuing opaque bearer tokens hashed at rest, validating them back to a
// verified email and revoking them when the corresponding email never
// reached its recipient.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/utils"
)

// Store is the persistence surface the manager needs.  The repository
// layer implements it against MySQL; tests substitute an in-memory one.
type Store interface {
	Create(ctx context.Context, s model.EmailSession) (uint64, error)
	FindByTokenHash(ctx context.Context, hash string) (*model.EmailSession, error)
	Revoke(ctx context.Context, id uint64) error
}

// Client carries the audit context of the issuing request.  Both fields
// are optional and are truncated to their column widths.
type Client struct {
	UserAgent string
	IP        string
}

// Manager issues and validates email sessions.  Validation always
// re-reads the store; there is no in-process cache, so revocation takes
// effect immediately across processes.
type Manager struct {
	store    Store
	validity time.Duration
	now      func() time.Time
}

// New returns a Manager issuing sessions valid for the given duration
// (30 days in the default configuration).
func New(store Store, validity time.Duration) *Manager {
	return &Manager{store: store, validity: validity, now: time.Now}
}

// Mint builds a fresh session record and its raw token without touching
// the store.  The booking engine uses this to persist the row inside its
// own transaction; everyone else should call Issue.
func (m *Manager) Mint(email string, client Client) (model.EmailSession, string, error) {
	raw, err := utils.NewSessionToken()
	if err != nil {
		return model.EmailSession{}, "", err
	}
	now := m.now().UTC()
	s := model.EmailSession{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		TokenHash: utils.HashSessionToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(m.validity),
		UserAgent: truncate(client.UserAgent, 300),
		IPPrefix:  truncate(client.IP, 64),
	}
	return s, raw, nil
}

// Issue mints a session, persists it and returns the stored record along
// with the raw token.  The raw token exists only in the return value.
func (m *Manager) Issue(ctx context.Context, email string, client Client) (model.EmailSession, string, error) {
	s, raw, err := m.Mint(email, client)
	if err != nil {
		return model.EmailSession{}, "", err
	}
	id, err := m.store.Create(ctx, s)
	if err != nil {
		return model.EmailSession{}, "", err
	}
	s.ID = id
	return s, raw, nil
}

// Validate resolves a raw token to its verified email.  Any failure
// (unknown hash, expired, revoked) collapses into ok=false so callers
// cannot distinguish which tokens exist.
func (m *Manager) Validate(ctx context.Context, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	s, err := m.store.FindByTokenHash(ctx, utils.HashSessionToken(raw))
	if err != nil || s == nil {
		return "", false
	}
	if !s.ValidAt(m.now().UTC()) {
		return "", false
	}
	return s.Email, true
}

// Lookup returns the full session record for a raw token when it is
// currently valid.  The cookie handler uses it to size the cookie
// max-age from the session window.
func (m *Manager) Lookup(ctx context.Context, raw string) (*model.EmailSession, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	s, err := m.store.FindByTokenHash(ctx, utils.HashSessionToken(raw))
	if err != nil || s == nil || !s.ValidAt(m.now().UTC()) {
		return nil, false
	}
	return s, true
}

// Revoke terminally invalidates a session.
func (m *Manager) Revoke(ctx context.Context, s model.EmailSession) error {
	return m.store.Revoke(ctx, s.ID)
}

// Validity returns the configured session window.
func (m *Manager) Validity() time.Duration { return m.validity }

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
