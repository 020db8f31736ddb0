package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/repository"
)

// AdminSettingsHandler exposes the singleton site settings row.
type AdminSettingsHandler struct {
	Settings *repository.SettingsRepo
}

type settingsForm struct {
	OpeningTime    string `json:"opening_time"`
	ClosingTime    string `json:"closing_time"`
	EditCutoffDays int    `json:"edit_cutoff_days"`
}

func settingsJSON(s model.SiteSettings) echo.Map {
	return echo.Map{
		"opening_time":     s.OpeningTime.String(),
		"closing_time":     s.ClosingTime.String(),
		"edit_cutoff_days": s.EditCutoffDays,
	}
}

// Get handles GET /v1/admin/settings.
func (h *AdminSettingsHandler) Get(c echo.Context) error {
	settings, err := h.Settings.Get(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load settings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": settingsJSON(settings)})
}

// Update handles PUT /v1/admin/settings.
func (h *AdminSettingsHandler) Update(c echo.Context) error {
	var form settingsForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	opening, err := model.ParseClock(form.OpeningTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "opening_time must be HH:MM"})
	}
	closing, err := model.ParseClock(form.ClosingTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "closing_time must be HH:MM"})
	}
	if closing <= opening {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "closing_time must be after opening_time"})
	}
	if form.EditCutoffDays < 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "edit_cutoff_days must not be negative"})
	}

	settings := model.SiteSettings{
		OpeningTime:    opening,
		ClosingTime:    closing,
		EditCutoffDays: form.EditCutoffDays,
	}
	if err := h.Settings.Update(c.Request().Context(), settings); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save settings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"settings": settingsJSON(settings)})
}
