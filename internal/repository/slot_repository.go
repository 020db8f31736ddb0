package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/anderle/table-reservation/internal/model"
)

// SlotRepo provides CRUD access to the time_slots table, the slot
// catalog the resolver works from.  Rows are always returned in
// resolution order (sort_order, then start_time) so callers can match a
// requested time with a single forward scan.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, slug, label, start_time, end_time, capacity, is_active, sort_order`

func scanSlot(row interface{ Scan(...any) error }) (model.TimeSlot, error) {
	var (
		s          model.TimeSlot
		start, end string
	)
	if err := row.Scan(&s.ID, &s.Slug, &s.Label, &start, &end, &s.Capacity, &s.IsActive, &s.SortOrder); err != nil {
		return model.TimeSlot{}, err
	}
	var err error
	if s.Start, err = model.ParseClock(start); err != nil {
		return model.TimeSlot{}, err
	}
	if s.End, err = model.ParseClock(end); err != nil {
		return model.TimeSlot{}, err
	}
	return s, nil
}

// List returns every slot, active or not, in resolution order.
func (r *SlotRepo) List(ctx context.Context) ([]model.TimeSlot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM time_slots ORDER BY sort_order, start_time`)
}

// ListActive returns the active slots in resolution order.  This is the
// snapshot the resolver matches requested times against.
func (r *SlotRepo) ListActive(ctx context.Context) ([]model.TimeSlot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE is_active = 1 ORDER BY sort_order, start_time`)
}

func (r *SlotRepo) list(ctx context.Context, q string) ([]model.TimeSlot, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.TimeSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// GetByID returns a single slot.  sql.ErrNoRows when absent.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id)
	return scanSlot(row)
}

// Create inserts a slot and returns its generated ID.  A duplicate slug
// maps to ErrSlugExists.
func (r *SlotRepo) Create(ctx context.Context, s model.TimeSlot) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO time_slots (slug, label, start_time, end_time, capacity, is_active, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Slug, s.Label, s.Start.SQL(), s.End.SQL(), s.Capacity, s.IsActive, s.SortOrder)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrSlugExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpdateTx rewrites a slot row in place inside tx.  Capacity reductions
// must have been validated against booked seats by the caller, under the
// row lock taken with LockForUpdateTx on the same transaction.
func (r *SlotRepo) UpdateTx(ctx context.Context, tx *sql.Tx, s model.TimeSlot) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE time_slots SET slug = ?, label = ?, start_time = ?, end_time = ?, capacity = ?, is_active = ?, sort_order = ?
		 WHERE id = ?`,
		s.Slug, s.Label, s.Start.SQL(), s.End.SQL(), s.Capacity, s.IsActive, s.SortOrder, s.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSlugExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// Delete removes a slot.  Reservations reference slots with ON DELETE
// RESTRICT, so deleting a slot that has ledger rows fails at the
// database; that failure surfaces as ErrConflict.
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = ?`, id)
	if err != nil {
		// 1451: foreign key constraint fails on the referencing table
		if strings.Contains(err.Error(), "1451") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// LockForUpdateTx reloads a slot inside tx with an exclusive row lock.
// Catalog edits take it so the capacity validation and the write form
// one unit: acquiring it waits out every in-flight booking holding the
// share lock from LockSharedTx, and blocks new ones until commit.
func (r *SlotRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TimeSlot, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ? FOR UPDATE`, id)
	return scanSlot(row)
}

// LockSharedTx reloads a slot inside tx with a shared row lock.  The
// booking engine takes it after the (date, slot) allocation lock:
// bookings share it freely, so different dates still never contend with
// each other, while a catalog edit holding the row exclusively excludes
// all of them for the span of its capacity check and write.  The
// returned row is the capacity the capacity decision must use.
func (r *SlotRepo) LockSharedTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TimeSlot, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ? FOR SHARE`, id)
	return scanSlot(row)
}
