package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/utils"
)

// OperatorRepo persists restaurant staff accounts used to gate the admin
// API.  Operators are bootstrapped from configuration at startup rather
// than registered over HTTP.
type OperatorRepo struct{ DB *sql.DB }

func NewOperatorRepo(db *sql.DB) *OperatorRepo { return &OperatorRepo{DB: db} }

// GetByEmail fetches an operator by normalized email.
func (r *OperatorRepo) GetByEmail(ctx context.Context, email string) (model.Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var o model.Operator
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM operators WHERE email = ? LIMIT 1`,
		email).Scan(&o.ID, &o.Email, &o.PasswordHash, &o.CreatedAt)
	return o, err
}

// Ensure creates the operator account when it does not exist yet.  Used
// at startup to seed the configured admin credentials; an existing row
// is left untouched.
func (r *OperatorRepo) Ensure(ctx context.Context, email, password string, cost int) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := r.GetByEmail(ctx, email); err == nil {
		return nil
	} else if err != sql.ErrNoRows {
		return err
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO operators (email, password_hash) VALUES (?, ?)`, email, hash)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		// raced with a concurrent seed; the account exists
		return nil
	}
	return err
}
