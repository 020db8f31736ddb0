package booking

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/notify"
	"github.com/anderle/table-reservation/internal/session"
)

// Request is a candidate reservation as submitted by a customer.
type Request struct {
	Name      string
	Email     string
	Phone     string
	Date      time.Time
	Time      model.Clock
	PartySize int
	Message   string
	UserAgent string
	IP        string
}

// Confirmation is the successful outcome of Create.  RawToken is the
// one-time magic-link credential for the session issued alongside the
// reservation; it is never persisted.  NotificationSent records whether
// the confirmation email handoff succeeded; a false value never implies
// the reservation failed.
type Confirmation struct {
	Reservation      model.Reservation
	Slot             model.TimeSlot
	Session          model.EmailSession
	RawToken         string
	NotificationSent bool
}

// Publisher is the fire-and-forget event hook invoked after a
// reservation commits.  Failures are logged and ignored.
type Publisher func(ctx context.Context, res model.Reservation, slot model.TimeSlot) error

// Invalidator drops cached availability hints for a date after a write.
type Invalidator func(ctx context.Context, dateKey string)

// The engine depends on narrow store interfaces rather than the
// concrete repositories so its locked write path can be exercised
// against in-memory fakes.  The repository types satisfy them directly.

// ReservationStore is the ledger surface of the write path.
type ReservationStore interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	LockAllocationTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64) error
	BookedSeatsTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64, excludeID uint64) (int, error)
	CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error
	UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error
	GetByIDForEmail(ctx context.Context, id uint64, email string) (model.Reservation, error)
}

// SlotStore provides the slot catalog plus the share-locked reload the
// capacity decision runs against.
type SlotStore interface {
	ListActive(ctx context.Context) ([]model.TimeSlot, error)
	LockSharedTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TimeSlot, error)
}

// OverrideStore reads the day/slot overrides in force for a date.
type OverrideStore interface {
	DayClosedTx(ctx context.Context, tx *sql.Tx, date time.Time) (bool, error)
	SlotBlockTx(ctx context.Context, tx *sql.Tx, date time.Time, slotID uint64) (*model.SlotBlock, error)
}

// SessionStore persists the email session issued with each booking.
type SessionStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, s model.EmailSession) (uint64, error)
}

// SettingsStore loads the site settings snapshot for one attempt.
type SettingsStore interface {
	Get(ctx context.Context) (model.SiteSettings, error)
}

// Engine is the concurrency-safe write path for reservations.  Every
// capacity decision runs inside one database transaction holding an
// exclusive lock on the targeted (date, slot) allocation row, so two
// requests racing for the last seats of the same slot serialize and
// exactly one wins.  Different (date, slot) pairs lock different rows
// and proceed in parallel.
type Engine struct {
	Reservations ReservationStore
	Slots        SlotStore
	Overrides    OverrideStore
	Sessions     SessionStore
	Settings     SettingsStore

	SessionMgr *session.Manager
	Notifier   *notify.Gateway
	Links      notify.LinkBuilder
	Restaurant string
	Publish    Publisher
	Invalidate Invalidator

	Log zerolog.Logger
}

// Create validates a booking request and commits it atomically.
// Business refusals come back as *Rejection; anything else is an
// infrastructure error.  The notification call runs strictly after
// commit and its failure is reported in the Confirmation, never as an
// error.
func (e *Engine) Create(ctx context.Context, req Request) (*Confirmation, error) {
	req = normalize(req)
	if rej := validate(req); rej != nil {
		return nil, rej
	}

	settings, err := e.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.WithinOpeningHours(req.Time) {
		return nil, formError(
			map[string][]string{"time": {"Reservations are only possible during opening hours."}},
			"Reservation not possible",
			fmt.Sprintf("Reservations are accepted between %s and %s.",
				settings.OpeningTime, settings.ClosingTime))
	}

	slots, err := e.Slots.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load slot catalog: %w", err)
	}
	slot, ok := MatchSlot(slots, req.Time)
	if !ok {
		return nil, &Rejection{
			Code:  CodeNoMatchingSlot,
			Title: "Reservation not possible",
			Text:  "This time is not available.",
		}
	}

	res := model.Reservation{
		Reference: uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Date:      req.Date,
		SlotID:    slot.ID,
		Time:      req.Time,
		PartySize: req.PartySize,
		Message:   req.Message,
	}

	sess, raw, err := e.SessionMgr.Mint(req.Email, session.Client{UserAgent: req.UserAgent, IP: req.IP})
	if err != nil {
		return nil, fmt.Errorf("mint session: %w", err)
	}

	if err := e.withAllocationLock(ctx, req.Date, slot.ID, func(tx *sql.Tx) error {
		rej, err := e.checkCapacityTx(ctx, tx, slot, req.Date, req.PartySize, 0)
		if err != nil {
			return err
		}
		if rej != nil {
			return rej
		}
		if err := e.Reservations.CreateTx(ctx, tx, &res); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		id, err := e.Sessions.CreateTx(ctx, tx, sess)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		sess.ID = id
		return nil
	}); err != nil {
		return nil, err
	}

	e.Log.Info().
		Uint64("reservation_id", res.ID).
		Str("date", res.DateKey()).
		Str("slot", slot.Slug).
		Int("party_size", res.PartySize).
		Msg("reservation committed")

	e.afterWrite(ctx, res, slot)

	conf := &Confirmation{Reservation: res, Slot: slot, Session: sess, RawToken: raw}
	conf.NotificationSent = e.sendConfirmation(ctx, res, raw)
	return conf, nil
}

// Update re-runs the full capacity check for an existing reservation,
// excluding its own prior seats from the aggregate, and rewrites the row
// in place.  It is gated by the edit window: once today is closer to the
// reservation date than the configured cutoff, the outcome is
// EDIT_WINDOW_CLOSED.
func (e *Engine) Update(ctx context.Context, id uint64, email string, req Request) (*model.Reservation, error) {
	req = normalize(req)
	if rej := validate(req); rej != nil {
		return nil, rej
	}

	existing, err := e.Reservations.GetByIDForEmail(ctx, id, email)
	if err != nil {
		return nil, err
	}

	settings, err := e.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !CanEdit(time.Now(), existing.Date, settings.EditCutoffDays) {
		return nil, &Rejection{
			Code:  CodeEditWindowClosed,
			Title: "Changes no longer possible",
			Text: fmt.Sprintf(
				"Reservations can only be changed up to %d days in advance. Please call us directly.",
				settings.EditCutoffDays),
		}
	}
	if !settings.WithinOpeningHours(req.Time) {
		return nil, formError(
			map[string][]string{"time": {"Reservations are only possible during opening hours."}},
			"Change not possible",
			fmt.Sprintf("Reservations are accepted between %s and %s.",
				settings.OpeningTime, settings.ClosingTime))
	}

	slots, err := e.Slots.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load slot catalog: %w", err)
	}
	slot, ok := MatchSlot(slots, req.Time)
	if !ok {
		return nil, &Rejection{
			Code:  CodeNoMatchingSlot,
			Title: "Change not possible",
			Text:  "This time is not available.",
		}
	}

	updated := existing
	updated.Name = req.Name
	updated.Phone = req.Phone
	updated.Date = req.Date
	updated.SlotID = slot.ID
	updated.Time = req.Time
	updated.PartySize = req.PartySize
	updated.Message = req.Message

	// Lock only the target (date, slot): the pair the edit books into is
	// the one that can overbook.  Seats freed on the old pair need no
	// lock to stay correct.
	if err := e.withAllocationLock(ctx, req.Date, slot.ID, func(tx *sql.Tx) error {
		rej, err := e.checkCapacityTx(ctx, tx, slot, req.Date, req.PartySize, existing.ID)
		if err != nil {
			return err
		}
		if rej != nil {
			return rej
		}
		return e.Reservations.UpdateTx(ctx, tx, &updated)
	}); err != nil {
		return nil, err
	}

	e.Log.Info().
		Uint64("reservation_id", updated.ID).
		Str("date", updated.DateKey()).
		Str("slot", slot.Slug).
		Msg("reservation updated")

	e.afterWrite(ctx, updated, slot)
	if existing.DateKey() != updated.DateKey() && e.Invalidate != nil {
		e.Invalidate(ctx, existing.DateKey())
	}
	return &updated, nil
}

// checkCapacityTx runs the locked portion of the precondition chain:
// day closure, slot closure and the seat aggregate.  The caller must
// already hold the (date, slot) allocation lock on tx.  The slot row is
// reloaded under a share lock so the capacity the decision reads cannot
// be shrunk by an administrator mid-flight; see SlotRepo.LockSharedTx.
func (e *Engine) checkCapacityTx(ctx context.Context, tx *sql.Tx, slot model.TimeSlot, date time.Time, partySize int, excludeID uint64) (*Rejection, error) {
	locked, err := e.Slots.LockSharedTx(ctx, tx, slot.ID)
	if err != nil {
		return nil, fmt.Errorf("lock slot row: %w", err)
	}
	dayClosed, err := e.Overrides.DayClosedTx(ctx, tx, date)
	if err != nil {
		return nil, fmt.Errorf("read day override: %w", err)
	}
	block, err := e.Overrides.SlotBlockTx(ctx, tx, date, slot.ID)
	if err != nil {
		return nil, fmt.Errorf("read slot override: %w", err)
	}
	booked, err := e.Reservations.BookedSeatsTx(ctx, tx, date, slot.ID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("sum booked seats: %w", err)
	}
	return decide(locked, dayClosed, block, booked, partySize), nil
}

// withAllocationLock opens a transaction, takes the exclusive
// (date, slot) allocation lock and runs fn under it.  Returning an error
// from fn rolls everything back, including a *Rejection, which is then
// passed through unchanged.
func (e *Engine) withAllocationLock(ctx context.Context, date time.Time, slotID uint64, fn func(tx *sql.Tx) error) error {
	return e.Reservations.InTx(ctx, func(tx *sql.Tx) error {
		if err := e.Reservations.LockAllocationTx(ctx, tx, date, slotID); err != nil {
			return fmt.Errorf("lock allocation: %w", err)
		}
		return fn(tx)
	})
}

// afterWrite performs the post-commit side effects shared by create and
// update: availability cache invalidation and the confirmed event.
// Neither may fail the request.
func (e *Engine) afterWrite(ctx context.Context, res model.Reservation, slot model.TimeSlot) {
	if e.Invalidate != nil {
		e.Invalidate(ctx, res.DateKey())
	}
	if e.Publish != nil {
		if err := e.Publish(ctx, res, slot); err != nil {
			e.Log.Warn().Err(err).Uint64("reservation_id", res.ID).Msg("publish confirmed event failed")
		}
	}
}

// sendConfirmation mails the booking confirmation with the magic
// edit/cancel link.  Runs after commit; failure is logged and reported
// to the caller but never unwinds the reservation.
func (e *Engine) sendConfirmation(ctx context.Context, res model.Reservation, rawToken string) bool {
	if e.Notifier == nil {
		return false
	}
	next := fmt.Sprintf("/?rid=%d#my-reservations", res.ID)
	msg := notify.ReservationConfirmation(e.Restaurant, res, e.Links.MagicLogin(rawToken, next))
	if err := e.Notifier.Send(ctx, msg); err != nil {
		e.Log.Error().Err(err).Uint64("reservation_id", res.ID).Msg("confirmation email failed")
		return false
	}
	return true
}

func normalize(req Request) Request {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)
	return req
}

// validate performs field-level input validation.  Everything here is
// correctable by resubmission and surfaces as FORM_ERROR with per-field
// messages.
func validate(req Request) *Rejection {
	fields := map[string][]string{}
	if req.Name == "" {
		fields["name"] = append(fields["name"], "Please enter your name.")
	}
	if req.Email == "" {
		fields["email"] = append(fields["email"], "Please enter your email address.")
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = append(fields["email"], "Please enter a valid email address.")
	}
	if req.Phone == "" {
		fields["phone"] = append(fields["phone"], "Please enter your phone number.")
	}
	if req.Date.IsZero() {
		fields["date"] = append(fields["date"], "Please choose a date.")
	}
	if req.PartySize < 1 {
		fields["party_size"] = append(fields["party_size"], "Party size must be at least 1.")
	}
	if len(fields) == 0 {
		return nil
	}
	return formError(fields, "Reservation not possible", "Please check the highlighted fields.")
}
