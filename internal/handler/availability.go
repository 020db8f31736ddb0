package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/anderle/table-reservation/internal/booking"
	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/repository"
)

// AvailabilityHandler answers the per-date remaining-seats query backing
// the booking widget.  Responses are advisory: the authoritative check
// happens under lock at write time, so a short Redis cache is safe.
type AvailabilityHandler struct {
	Slots        *repository.SlotRepo
	Overrides    *repository.OverrideRepo
	Reservations *repository.ReservationRepo
	RDB          *redis.Client
	CacheTTL     time.Duration
	Log          zerolog.Logger
}

// Get handles GET /v1/availability?date=YYYY-MM-DD.
func (h *AvailabilityHandler) Get(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx := c.Request().Context()
	key := "availability:" + date.Format("2006-01-02")
	if h.RDB != nil {
		if cached, err := h.RDB.Get(ctx, key).Bytes(); err == nil {
			return c.JSONBlob(http.StatusOK, cached)
		}
	}

	body, err := h.compute(ctx, date)
	if err != nil {
		h.Log.Error().Err(err).Str("date", key).Msg("availability lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load availability"})
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load availability"})
	}
	if h.RDB != nil {
		h.RDB.Set(ctx, key, raw, h.CacheTTL)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *AvailabilityHandler) compute(ctx context.Context, date time.Time) (echo.Map, error) {
	slots, err := h.Slots.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	day, err := h.Overrides.GetDay(ctx, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	dayClosed := day != nil && day.IsClosed
	blocks := map[uint64]*model.SlotBlock{}
	if day != nil {
		for i := range day.Blocks {
			blocks[day.Blocks[i].SlotID] = &day.Blocks[i]
		}
	}

	out := make([]echo.Map, 0, len(slots))
	for _, slot := range slots {
		effective := booking.EffectiveCapacity(slot, dayClosed, blocks[slot.ID])
		remaining := 0
		if effective > 0 {
			booked, err := h.Reservations.BookedSeats(ctx, date, slot.ID)
			if err != nil {
				return nil, err
			}
			remaining = booking.Remaining(effective, booked)
		}
		out = append(out, echo.Map{
			"slot":      slot.Slug,
			"label":     slot.Label,
			"start":     slot.Start.String(),
			"end":       slot.End.String(),
			"capacity":  effective,
			"remaining": remaining,
			"open":      effective > 0,
		})
	}

	return echo.Map{
		"date":       date.Format("2006-01-02"),
		"day_closed": dayClosed,
		"slots":      out,
	}, nil
}
