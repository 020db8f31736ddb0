package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anderle/table-reservation/internal/model"
)

// ReservationRepo provides access to the reservations table (the
// booking ledger) and to slot_allocations, the per-(date, slot) lock
// anchor used by the booking engine.  All timestamps are stored in UTC;
// all date parameters are compared by calendar day.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that manage their own
// transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// InTx runs fn inside one transaction, committing when fn returns nil
// and rolling back otherwise.  Row locks taken through the ...Tx
// methods are held until the transaction ends.
func (r *ReservationRepo) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// LockAllocationTx takes an exclusive row lock on the (date, slot)
// allocation row, creating it first if this is the first booking attempt
// for the pair.  The lock is held until tx commits or rolls back and is
// the sole serialization point of the check-then-insert sequence.
// Because each (date, slot) pair has its own row, bookings for different
// days or different slots never contend with each other.
func (r *ReservationRepo) LockAllocationTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64) error {
	day := date.Format("2006-01-02")
	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO slot_allocations (date, slot_id) VALUES (?, ?)`, day, slotID); err != nil {
		return err
	}
	var one int
	return tx.QueryRowContext(ctx,
		`SELECT 1 FROM slot_allocations WHERE date = ? AND slot_id = ? FOR UPDATE`,
		day, slotID).Scan(&one)
}

// BookedSeatsTx sums the party sizes already committed for (date, slot),
// reading inside tx so the aggregate is taken under the allocation lock.
// excludeID removes the reservation being edited from the sum; pass 0
// when creating.
func (r *ReservationRepo) BookedSeatsTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64, excludeID uint64) (int, error) {
	var total sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT SUM(party_size) FROM reservations WHERE date = ? AND slot_id = ? AND id <> ?`,
		date.Format("2006-01-02"), slotID, excludeID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// BookedSeats is the unlocked variant used for availability hints and
// override validation.
func (r *ReservationRepo) BookedSeats(ctx context.Context, date time.Time, slotID uint64) (int, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(party_size) FROM reservations WHERE date = ? AND slot_id = ?`,
		date.Format("2006-01-02"), slotID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// MaxBookedOnAnyDateTx returns the largest per-date seat total booked
// into a slot from a given date on, plus the date it occurs on.  Used
// when an operator lowers a slot's capacity: the new value may not
// undercut what is already booked on any single future day.  It reads
// inside tx; the caller must already hold the exclusive slot row lock
// so no booking can commit between this aggregate and the write.
func (r *ReservationRepo) MaxBookedOnAnyDateTx(ctx context.Context, tx *sql.Tx, slotID uint64, from time.Time) (int, string, error) {
	var (
		total int
		day   string
	)
	err := tx.QueryRowContext(ctx,
		`SELECT SUM(party_size) AS total, DATE_FORMAT(date, '%Y-%m-%d')
		 FROM reservations WHERE slot_id = ? AND date >= ?
		 GROUP BY date ORDER BY total DESC LIMIT 1`,
		slotID, from.Format("2006-01-02")).Scan(&total, &day)
	if err == sql.ErrNoRows {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	return total, day, nil
}

// CreateTx inserts a reservation within an existing transaction and
// populates the generated ID and timestamps on the record.  The caller
// must commit or roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (reference, name, email, phone, date, slot_id, time, party_size, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Reference, res.Name, res.Email, res.Phone, res.Date.Format("2006-01-02"),
		res.SlotID, res.Time.SQL(), res.PartySize, res.Message)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM reservations WHERE id = ?`, res.ID).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

// UpdateTx rewrites the mutable fields of a reservation within an
// existing transaction.  The slot reference moves together with the
// date/time so capacity accounting follows the edit.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET name = ?, phone = ?, date = ?, slot_id = ?, time = ?, party_size = ?, message = ?
		 WHERE id = ?`,
		res.Name, res.Phone, res.Date.Format("2006-01-02"), res.SlotID,
		res.Time.SQL(), res.PartySize, res.Message, res.ID)
	if err != nil {
		return err
	}
	if _, err := result.RowsAffected(); err != nil {
		return err
	}
	return tx.QueryRowContext(ctx,
		`SELECT updated_at FROM reservations WHERE id = ?`, res.ID).Scan(&res.UpdatedAt)
}

const reservationColumns = `id, reference, name, email, phone, date, slot_id, time, party_size, message, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res     model.Reservation
		timeStr string
	)
	if err := row.Scan(&res.ID, &res.Reference, &res.Name, &res.Email, &res.Phone, &res.Date,
		&res.SlotID, &timeStr, &res.PartySize, &res.Message, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return model.Reservation{}, err
	}
	t, err := model.ParseClock(timeStr)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Time = t
	return res, nil
}

// GetByIDForEmail returns one reservation, enforcing that it belongs to
// the verified email.  sql.ErrNoRows when absent, ErrForbidden when the
// email does not match.
func (r *ReservationRepo) GetByIDForEmail(ctx context.Context, id uint64, email string) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if err != nil {
		return model.Reservation{}, err
	}
	if res.Email != email {
		return model.Reservation{}, ErrForbidden
	}
	return res, nil
}

// ListByEmail returns all reservations for the verified email, newest
// date first.
func (r *ReservationRepo) ListByEmail(ctx context.Context, email string) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE email = ? ORDER BY date DESC, created_at DESC`,
		email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
