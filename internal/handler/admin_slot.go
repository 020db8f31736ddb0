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

// AdminSlotHandler manages the slot catalog.
type AdminSlotHandler struct {
	Slots        *repository.SlotRepo
	Reservations *repository.ReservationRepo
}

type slotForm struct {
	Slug      string `json:"slug"`
	Label     string `json:"label"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Capacity  int    `json:"capacity"`
	IsActive  *bool  `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

func (f slotForm) toModel() (model.TimeSlot, error) {
	start, err := model.ParseClock(f.Start)
	if err != nil {
		return model.TimeSlot{}, fmt.Errorf("start: %w", err)
	}
	end, err := model.ParseClock(f.End)
	if err != nil {
		return model.TimeSlot{}, fmt.Errorf("end: %w", err)
	}
	if f.Slug == "" || f.Label == "" {
		return model.TimeSlot{}, errors.New("slug and label are required")
	}
	if f.Capacity < 1 {
		return model.TimeSlot{}, errors.New("capacity must be at least 1")
	}
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return model.TimeSlot{
		Slug:      f.Slug,
		Label:     f.Label,
		Start:     start,
		End:       end,
		Capacity:  f.Capacity,
		IsActive:  active,
		SortOrder: f.SortOrder,
	}, nil
}

func slotJSON(s model.TimeSlot) echo.Map {
	return echo.Map{
		"id":         s.ID,
		"slug":       s.Slug,
		"label":      s.Label,
		"start":      s.Start.String(),
		"end":        s.End.String(),
		"capacity":   s.Capacity,
		"is_active":  s.IsActive,
		"sort_order": s.SortOrder,
	}
}

// List handles GET /v1/admin/slots.
func (h *AdminSlotHandler) List(c echo.Context) error {
	slots, err := h.Slots.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load slots"})
	}
	out := make([]echo.Map, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotJSON(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": out})
}

// Create handles POST /v1/admin/slots.
func (h *AdminSlotHandler) Create(c echo.Context) error {
	var form slotForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	slot, err := form.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	id, err := h.Slots.Create(c.Request().Context(), slot)
	if err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a slot with this slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create slot"})
	}
	slot.ID = id
	return c.JSON(http.StatusCreated, echo.Map{"slot": slotJSON(slot)})
}

// Update handles PUT /v1/admin/slots/:id.  Capacity may only shrink as
// far as the largest seat total already booked for the slot on any
// upcoming date.  The exclusive slot row lock conflicts with the share
// lock every booking transaction holds on the same row, so acquiring it
// waits out in-flight bookings and blocks new ones until commit; the
// aggregate is then read through the same transaction.
func (h *AdminSlotHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	var form slotForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	slot, err := form.toModel()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	slot.ID = id

	ctx := c.Request().Context()
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update slot"})
	}
	defer tx.Rollback()

	if _, err := h.Slots.LockForUpdateTx(ctx, tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update slot"})
	}

	maxBooked, onDate, err := h.Reservations.MaxBookedOnAnyDateTx(ctx, tx, id, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update slot"})
	}
	if slot.Capacity < maxBooked {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": fmt.Sprintf("capacity cannot drop below the %d seats already booked on %s", maxBooked, onDate),
		})
	}

	if err := h.Slots.UpdateTx(ctx, tx, slot); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a slot with this slug already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update slot"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update slot"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slot": slotJSON(slot)})
}

// Delete handles DELETE /v1/admin/slots/:id.  Slots referenced by
// reservations cannot be removed, only deactivated.
func (h *AdminSlotHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	if err := h.Slots.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot has reservations; deactivate it instead"})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete slot"})
	}
	return c.NoContent(http.StatusNoContent)
}
