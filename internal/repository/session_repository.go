package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/anderle/table-reservation/internal/model"
)

// SessionRepo persists email sessions (single token_hash column; the raw
// token is never stored).  It backs the passwordless session manager.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row and returns its ID.
func (r *SessionRepo) Create(ctx context.Context, s model.EmailSession) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO email_sessions (email, token_hash, expires_at, user_agent, ip_prefix)
		 VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(s.Email)), s.TokenHash,
		s.ExpiresAt.UTC().Format("2006-01-02 15:04:05"), s.UserAgent, s.IPPrefix)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateTx is Create inside an existing transaction, used by the booking
// engine to issue the post-booking session atomically with the
// reservation insert.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s model.EmailSession) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO email_sessions (email, token_hash, expires_at, user_agent, ip_prefix)
		 VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(s.Email)), s.TokenHash,
		s.ExpiresAt.UTC().Format("2006-01-02 15:04:05"), s.UserAgent, s.IPPrefix)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByTokenHash loads a session by its token hash.  sql.ErrNoRows when
// no such hash exists; validity (expiry, revocation) is judged by the
// caller so lookups stay indistinguishable to clients.
func (r *SessionRepo) FindByTokenHash(ctx context.Context, hash string) (*model.EmailSession, error) {
	var (
		s       model.EmailSession
		created time.Time
		expires time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, token_hash, created_at, expires_at, user_agent, ip_prefix, is_revoked
		 FROM email_sessions WHERE token_hash = ? LIMIT 1`, hash).
		Scan(&s.ID, &s.Email, &s.TokenHash, &created, &expires, &s.UserAgent, &s.IPPrefix, &s.IsRevoked)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = created
	s.ExpiresAt = expires
	return &s, nil
}

// Revoke marks a session terminally invalid.  Used when downstream
// notification delivery fails so a live token never outlives an email
// that was never sent.
func (r *SessionRepo) Revoke(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE email_sessions SET is_revoked = 1 WHERE id = ? AND is_revoked = 0`, id)
	return err
}

// PurgeExpired lazily deletes rows past their expiry.  Correctness never
// depends on it running; it exists for storage hygiene only.
func (r *SessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM email_sessions WHERE expires_at <= UTC_TIMESTAMP()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
