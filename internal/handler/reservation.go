package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anderle/table-reservation/internal/booking"
	"github.com/anderle/table-reservation/internal/metrics"
	"github.com/anderle/table-reservation/internal/middleware"
	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/repository"
)

// ReservationHandler serves the guest-facing booking endpoints.
type ReservationHandler struct {
	Engine       *booking.Engine
	Reservations *repository.ReservationRepo
	Slots        *repository.SlotRepo
	Settings     *repository.SettingsRepo
}

type reservationForm struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
	Message   string `json:"message"`
}

// rejectionJSON maps a business rejection onto the wire shape the booking
// widget expects: field errors for inline display, popup for modal ones.
func rejectionJSON(c echo.Context, rej *booking.Rejection) error {
	metrics.IncReservationOutcome(string(rej.Code))

	body := echo.Map{"ok": false, "code": rej.Code}
	if len(rej.Fields) > 0 {
		body["errors"] = rej.Fields
	}
	if rej.Title != "" || rej.Text != "" {
		body["popup"] = echo.Map{"title": rej.Title, "text": rej.Text}
	}
	if rej.Code == booking.CodeSlotFull {
		body["remaining"] = rej.Remaining
	}
	return c.JSON(http.StatusUnprocessableEntity, body)
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var form reservationForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid request body"})
	}

	req, rej := h.parseForm(form)
	if rej != nil {
		return rejectionJSON(c, rej)
	}
	req.UserAgent = c.Request().UserAgent()
	req.IP = c.RealIP()

	conf, err := h.Engine.Create(c.Request().Context(), req)
	if err != nil {
		if r, ok := booking.AsRejection(err); ok {
			return rejectionJSON(c, r)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "could not save reservation"})
	}

	metrics.IncReservationOutcome("confirmed")
	if !conf.NotificationSent {
		metrics.IncNotificationFailed("confirmation")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"ok":                true,
		"reference":         conf.Reservation.Reference,
		"reservation":       reservationView(conf.Reservation, conf.Slot, true),
		"notification_sent": conf.NotificationSent,
	})
}

// List handles GET /v1/my/reservations for the verified session email.
func (h *ReservationHandler) List(c echo.Context) error {
	email, ok := middleware.VerifiedEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session required"})
	}

	ctx := c.Request().Context()
	items, err := h.Reservations.ListByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reservations"})
	}

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		settings = model.DefaultSiteSettings()
	}
	slots, err := h.Slots.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reservations"})
	}
	bySlot := make(map[uint64]model.TimeSlot, len(slots))
	for _, s := range slots {
		bySlot[s.ID] = s
	}

	now := time.Now()
	views := make([]echo.Map, 0, len(items))
	for _, r := range items {
		views = append(views, reservationView(r, bySlot[r.SlotID], booking.CanEdit(now, r.Date, settings.EditCutoffDays)))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": views})
}

// Detail handles GET /v1/my/reservations/:id.
func (h *ReservationHandler) Detail(c echo.Context) error {
	email, ok := middleware.VerifiedEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session required"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	res, err := h.Reservations.GetByIDForEmail(ctx, id, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load reservation"})
	}

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		settings = model.DefaultSiteSettings()
	}
	slot, err := h.Slots.GetByID(ctx, res.SlotID)
	if err != nil {
		slot = model.TimeSlot{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation": reservationView(res, slot, booking.CanEdit(time.Now(), res.Date, settings.EditCutoffDays)),
	})
}

// Update handles PUT /v1/my/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	email, ok := middleware.VerifiedEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session required"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	var form reservationForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid request body"})
	}
	req, rej := h.parseForm(form)
	if rej != nil {
		return rejectionJSON(c, rej)
	}

	res, err := h.Engine.Update(c.Request().Context(), id, email, req)
	if err != nil {
		if r, ok := booking.AsRejection(err); ok {
			return rejectionJSON(c, r)
		}
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "could not update reservation"})
	}

	slot, err := h.Slots.GetByID(c.Request().Context(), res.SlotID)
	if err != nil {
		slot = model.TimeSlot{}
	}
	metrics.IncReservationOutcome("updated")
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservation": reservationView(*res, slot, true)})
}

// parseForm converts the wire form into an engine request, collecting
// per-field parse failures into a single form rejection.
func (h *ReservationHandler) parseForm(form reservationForm) (booking.Request, *booking.Rejection) {
	fields := map[string][]string{}

	date, err := time.Parse("2006-01-02", form.Date)
	if err != nil {
		fields["date"] = append(fields["date"], "Enter a valid date.")
	}
	clock, err := model.ParseClock(form.Time)
	if err != nil {
		fields["time"] = append(fields["time"], "Enter a valid time.")
	}
	if len(fields) > 0 {
		return booking.Request{}, booking.NewFormRejection(fields)
	}

	return booking.Request{
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
		Date:      date,
		Time:      clock,
		PartySize: form.PartySize,
		Message:   form.Message,
	}, nil
}

func reservationView(r model.Reservation, slot model.TimeSlot, canEdit bool) echo.Map {
	v := echo.Map{
		"id":         r.ID,
		"reference":  r.Reference,
		"name":       r.Name,
		"email":      r.Email,
		"phone":      r.Phone,
		"date":       r.DateKey(),
		"time":       r.Time.String(),
		"party_size": r.PartySize,
		"message":    r.Message,
		"can_edit":   canEdit,
		"created_at": r.CreatedAt,
	}
	if slot.ID != 0 {
		v["slot"] = echo.Map{"id": slot.ID, "slug": slot.Slug, "label": slot.Label}
	}
	return v
}
