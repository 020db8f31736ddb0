package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/repository"
)

// AdminOverrideHandler manages day closures and per-slot capacity
// blocks.
type AdminOverrideHandler struct {
	Overrides    *repository.OverrideRepo
	Slots        *repository.SlotRepo
	Reservations *repository.ReservationRepo
}

type dayForm struct {
	Date     string `json:"date"`
	Reason   string `json:"reason"`
	IsClosed bool   `json:"is_closed"`
}

type slotBlockForm struct {
	SlotID       uint64 `json:"slot_id"`
	BlockedSeats int    `json:"blocked_seats"`
	IsClosed     bool   `json:"is_closed"`
	Reason       string `json:"reason"`
}

func dayJSON(d model.BlockedDay) echo.Map {
	blocks := make([]echo.Map, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		blocks = append(blocks, echo.Map{
			"id":            b.ID,
			"slot_id":       b.SlotID,
			"blocked_seats": b.BlockedSeats,
			"is_closed":     b.IsClosed,
			"reason":        b.Reason,
		})
	}
	return echo.Map{
		"id":        d.ID,
		"date":      d.Date.Format("2006-01-02"),
		"reason":    d.Reason,
		"is_closed": d.IsClosed,
		"blocks":    blocks,
	}
}

// ListDays handles GET /v1/admin/overrides.
func (h *AdminOverrideHandler) ListDays(c echo.Context) error {
	from := time.Now().AddDate(0, 0, -1)
	if q := c.QueryParam("from"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
		from = parsed
	}
	days, err := h.Overrides.ListDays(c.Request().Context(), from)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load overrides"})
	}
	out := make([]echo.Map, 0, len(days))
	for _, d := range days {
		out = append(out, dayJSON(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"overrides": out})
}

// UpsertDay handles PUT /v1/admin/overrides/:date.
func (h *AdminOverrideHandler) UpsertDay(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	var form dayForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	if _, err := h.Overrides.UpsertDay(ctx, date, form.Reason, form.IsClosed); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save override"})
	}
	day, err := h.Overrides.GetDay(ctx, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save override"})
	}
	return c.JSON(http.StatusOK, echo.Map{"override": dayJSON(*day)})
}

// DeleteDay handles DELETE /v1/admin/overrides/:date.  The slot blocks
// hanging off the day go with it.
func (h *AdminOverrideHandler) DeleteDay(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	ctx := c.Request().Context()
	day, err := h.Overrides.GetDay(ctx, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no override for this date"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete override"})
	}
	if err := h.Overrides.DeleteDay(ctx, day.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete override"})
	}
	return c.NoContent(http.StatusNoContent)
}

// errBlockRefused marks a validation failure inside the block
// transaction so the handler can roll back and answer 422.
var errBlockRefused = errors.New("block refused")

// UpsertSlotBlock handles PUT /v1/admin/overrides/:date/slots/:slotID.
// Blocked seats may not exceed the slot capacity, nor eat into seats
// already booked for that date.  Violations are hard failures, not
// clamped.  Check and write run in one transaction holding the same
// (date, slot) allocation lock the booking path takes, plus the shared
// slot row lock, so no booking can land between the validation and the
// write.
func (h *AdminOverrideHandler) UpsertSlotBlock(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slotID, err := strconv.ParseUint(c.Param("slotID"), 10, 64)
	if err != nil || slotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	var form slotBlockForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if form.BlockedSeats < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "blocked_seats must not be negative"})
	}

	ctx := c.Request().Context()
	var refusal string
	err = h.Reservations.InTx(ctx, func(tx *sql.Tx) error {
		if err := h.Reservations.LockAllocationTx(ctx, tx, date, slotID); err != nil {
			return err
		}
		slot, err := h.Slots.LockSharedTx(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if form.BlockedSeats > slot.Capacity {
			refusal = fmt.Sprintf("blocked_seats exceeds the slot capacity of %d", slot.Capacity)
			return errBlockRefused
		}
		booked, err := h.Reservations.BookedSeatsTx(ctx, tx, date, slotID, 0)
		if err != nil {
			return err
		}
		if form.BlockedSeats > slot.Capacity-booked {
			refusal = fmt.Sprintf("only %d seats are still free to block; %d are already booked", slot.Capacity-booked, booked)
			return errBlockRefused
		}
		dayID, err := h.Overrides.EnsureDayTx(ctx, tx, date)
		if err != nil {
			return err
		}
		return h.Overrides.UpsertSlotBlockTx(ctx, tx, model.SlotBlock{
			BlockedDayID: dayID,
			SlotID:       slotID,
			BlockedSeats: form.BlockedSeats,
			IsClosed:     form.IsClosed,
			Reason:       form.Reason,
		})
	})
	if err != nil {
		if errors.Is(err, errBlockRefused) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": refusal})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save block"})
	}

	day, err := h.Overrides.GetDay(ctx, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save block"})
	}
	return c.JSON(http.StatusOK, echo.Map{"override": dayJSON(*day)})
}

// DeleteSlotBlock handles DELETE /v1/admin/overrides/:date/slots/:slotID.
func (h *AdminOverrideHandler) DeleteSlotBlock(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slotID, err := strconv.ParseUint(c.Param("slotID"), 10, 64)
	if err != nil || slotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	ctx := c.Request().Context()
	day, err := h.Overrides.GetDay(ctx, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no override for this date"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete block"})
	}
	if err := h.Overrides.DeleteSlotBlock(ctx, day.ID, slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no block for this slot"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete block"})
	}
	return c.NoContent(http.StatusNoContent)
}
