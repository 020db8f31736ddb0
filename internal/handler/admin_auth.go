package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anderle/table-reservation/internal/config"
	"github.com/anderle/table-reservation/internal/repository"
	"github.com/anderle/table-reservation/internal/utils"
)

// AdminAuthHandler issues operator JWTs for the admin API.
type AdminAuthHandler struct {
	Cfg       config.Config
	Operators *repository.OperatorRepo
}

type adminLoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/admin/login.
func (h *AdminAuthHandler) Login(c echo.Context) error {
	var form adminLoginForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	op, err := h.Operators.GetByEmail(c.Request().Context(), strings.ToLower(strings.TrimSpace(form.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !utils.VerifyPassword(op.PasswordHash, form.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := utils.NewAccessToken(h.Cfg.JWTSecret, op.ID, op.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": token.Token, "expires_at": token.Exp})
}
