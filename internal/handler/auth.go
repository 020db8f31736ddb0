package handler

import (
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/anderle/table-reservation/internal/config"
	"github.com/anderle/table-reservation/internal/metrics"
	"github.com/anderle/table-reservation/internal/notify"
	"github.com/anderle/table-reservation/internal/session"
)

// AuthHandler implements the passwordless login flow: a magic link is
// mailed out, following it sets the session cookie.
type AuthHandler struct {
	Cfg      config.Config
	Sessions *session.Manager
	Notifier *notify.Gateway
	Links    notify.LinkBuilder
	Log      zerolog.Logger
}

type magicLinkForm struct {
	Email string `json:"email"`
	Next  string `json:"next"`
}

// RequestLink handles POST /v1/auth/magic-link.  The response is the
// same whether or not the address has reservations; only a failed email
// handoff is surfaced, and in that case the freshly issued session is
// revoked so the undelivered token can never be used.
func (h *AuthHandler) RequestLink(c echo.Context) error {
	var form magicLinkForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(form.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "enter a valid email address"})
	}

	ctx := c.Request().Context()
	sess, raw, err := h.Sessions.Issue(ctx, email, session.Client{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	if err != nil {
		h.Log.Error().Err(err).Msg("issue login session failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "could not send login link"})
	}

	magicURL := h.Links.MagicLogin(raw, safeNext(form.Next))
	if err := h.Notifier.Send(ctx, notify.MagicLink(email, magicURL)); err != nil {
		metrics.IncNotificationFailed("magic_link")
		if rerr := h.Sessions.Revoke(ctx, sess); rerr != nil {
			h.Log.Error().Err(rerr).Uint64("session_id", sess.ID).Msg("revoke undelivered session failed")
		}
		h.Log.Error().Err(err).Msg("login link email failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"ok": false, "error": "could not send login link"})
	}

	metrics.IncMagicLinkIssued()
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "message": "If the address is known, a login link is on its way."})
}

// Login handles GET /v1/auth/login?token=...&next=...; it exchanges a
// valid raw token for the session cookie and redirects.  Invalid,
// expired and revoked tokens all land on the same page, carrying no hint
// which case applied.
func (h *AuthHandler) Login(c echo.Context) error {
	raw := c.QueryParam("token")
	next := safeNext(c.QueryParam("next"))

	sess, ok := h.Sessions.Lookup(c.Request().Context(), raw)
	if !ok {
		return c.Redirect(http.StatusFound, "/?login=invalid")
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		return c.Redirect(http.StatusFound, "/?login=invalid")
	}
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.SessionCookieName,
		Value:    raw,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, next)
}

// Logout handles POST /v1/auth/logout: it revokes the presented session
// and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(h.Cfg.SessionCookieName); err == nil && cookie.Value != "" {
		if sess, ok := h.Sessions.Lookup(c.Request().Context(), cookie.Value); ok {
			if err := h.Sessions.Revoke(c.Request().Context(), *sess); err != nil {
				h.Log.Error().Err(err).Uint64("session_id", sess.ID).Msg("revoke session failed")
			}
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// safeNext confines post-login redirects to same-site relative paths.
// Anything absolute, protocol-relative or otherwise suspect falls back
// to the reservations overview.
func safeNext(next string) string {
	const fallback = "/#my-reservations"
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}
