package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/anderle/table-reservation/internal/model"
)

// OverrideRepo provides access to the blocked_days and slot_blocks
// tables: operator-authored per-date exceptions consulted by the
// capacity resolver.  Read methods used inside the booking transaction
// have ...Tx variants so the exception snapshot is taken under the same
// lock as the seat aggregate.
type OverrideRepo struct {
	db *sql.DB
}

// NewOverrideRepo returns a new OverrideRepo bound to the given database.
func NewOverrideRepo(db *sql.DB) *OverrideRepo { return &OverrideRepo{db: db} }

// DayClosedTx reports whether the whole day is closed, reading inside tx.
func (r *OverrideRepo) DayClosedTx(ctx context.Context, tx *sql.Tx, date time.Time) (bool, error) {
	var closed bool
	err := tx.QueryRowContext(ctx,
		`SELECT is_closed FROM blocked_days WHERE date = ?`,
		date.Format("2006-01-02")).Scan(&closed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return closed, err
}

// SlotBlockTx returns the override for (date, slot) inside tx, or nil
// when none exists.
func (r *OverrideRepo) SlotBlockTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64) (*model.SlotBlock, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT sb.id, sb.blocked_day_id, sb.slot_id, sb.blocked_seats, sb.is_closed, sb.reason, sb.created_at
		 FROM slot_blocks sb
		 JOIN blocked_days bd ON bd.id = sb.blocked_day_id
		 WHERE bd.date = ? AND sb.slot_id = ?`,
		date.Format("2006-01-02"), slotID)
	var b model.SlotBlock
	err := row.Scan(&b.ID, &b.BlockedDayID, &b.SlotID, &b.BlockedSeats, &b.IsClosed, &b.Reason, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetDay returns the override row for one date together with its slot
// blocks.  sql.ErrNoRows when the date has no override.
func (r *OverrideRepo) GetDay(ctx context.Context, date time.Time) (*model.BlockedDay, error) {
	var d model.BlockedDay
	err := r.db.QueryRowContext(ctx,
		`SELECT id, date, reason, is_closed, created_at FROM blocked_days WHERE date = ?`,
		date.Format("2006-01-02")).Scan(&d.ID, &d.Date, &d.Reason, &d.IsClosed, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, blocked_day_id, slot_id, blocked_seats, is_closed, reason, created_at
		 FROM slot_blocks WHERE blocked_day_id = ? ORDER BY slot_id`, d.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b model.SlotBlock
		if err := rows.Scan(&b.ID, &b.BlockedDayID, &b.SlotID, &b.BlockedSeats, &b.IsClosed, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		d.Blocks = append(d.Blocks, b)
	}
	return &d, rows.Err()
}

// ListDays returns all override days from a given date on, newest first,
// each with its slot blocks.
func (r *OverrideRepo) ListDays(ctx context.Context, from time.Time) ([]model.BlockedDay, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, reason, is_closed, created_at FROM blocked_days WHERE date >= ? ORDER BY date`,
		from.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	days := make([]model.BlockedDay, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d model.BlockedDay
		if err := rows.Scan(&d.ID, &d.Date, &d.Reason, &d.IsClosed, &d.CreatedAt); err != nil {
			return nil, err
		}
		index[d.ID] = len(days)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return days, nil
	}
	ids := make([]interface{}, 0, len(days))
	placeholders := make([]string, 0, len(days))
	for _, d := range days {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT id, blocked_day_id, slot_id, blocked_seats, is_closed, reason, created_at
		  FROM slot_blocks WHERE blocked_day_id IN (` + strings.Join(placeholders, ",") + `)
		  ORDER BY blocked_day_id, slot_id`
	brows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return nil, err
	}
	defer brows.Close()
	for brows.Next() {
		var b model.SlotBlock
		if err := brows.Scan(&b.ID, &b.BlockedDayID, &b.SlotID, &b.BlockedSeats, &b.IsClosed, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		if idx, ok := index[b.BlockedDayID]; ok {
			days[idx].Blocks = append(days[idx].Blocks, b)
		}
	}
	return days, brows.Err()
}

// UpsertDay creates or updates the override row for a date and returns
// its ID.  The date is the natural key.
func (r *OverrideRepo) UpsertDay(ctx context.Context, date time.Time, reason string, isClosed bool) (uint64, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_days (date, reason, is_closed) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE reason = VALUES(reason), is_closed = VALUES(is_closed)`,
		date.Format("2006-01-02"), reason, isClosed)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM blocked_days WHERE date = ?`, date.Format("2006-01-02")).Scan(&id)
	return id, err
}

// EnsureDayTx returns the override day ID for a date inside tx,
// inserting an open placeholder row when none exists.  Unlike UpsertDay
// it never touches an existing row's reason or closure flag.
func (r *OverrideRepo) EnsureDayTx(ctx context.Context, tx *sql.Tx, date time.Time) (uint64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO blocked_days (date, reason, is_closed) VALUES (?, '', 0)`,
		date.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	var id uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM blocked_days WHERE date = ?`, date.Format("2006-01-02")).Scan(&id)
	return id, err
}

// DeleteDay removes an override day; its slot blocks cascade.
func (r *OverrideRepo) DeleteDay(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_days WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// UpsertSlotBlockTx creates or replaces the (day, slot) override inside
// tx.  The blocked_seats invariant against already-booked seats is
// checked by the caller in the same transaction, under the same
// (date, slot) allocation lock the booking path takes; the unique pair
// constraint makes the write idempotent.
func (r *OverrideRepo) UpsertSlotBlockTx(ctx context.Context, tx *sql.Tx, b model.SlotBlock) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO slot_blocks (blocked_day_id, slot_id, blocked_seats, is_closed, reason)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE blocked_seats = VALUES(blocked_seats), is_closed = VALUES(is_closed), reason = VALUES(reason)`,
		b.BlockedDayID, b.SlotID, b.BlockedSeats, b.IsClosed, b.Reason)
	return err
}

// DeleteSlotBlock removes one (day, slot) override.
func (r *OverrideRepo) DeleteSlotBlock(ctx context.Context, dayID, slotID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM slot_blocks WHERE blocked_day_id = ? AND slot_id = ?`, dayID, slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}
