package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anderle/table-reservation/internal/session"
)

// ContextEmailKey is the context key under which the verified customer
// email is stored once a session cookie has been resolved.
const ContextEmailKey = "verified_email"

// ResolveSession reads the session cookie when present and, if the token
// validates, stores the verified email in the request context.  It never
// rejects: routes that merely *benefit* from knowing the caller (rate
// limiting, availability) use it alone, and RequireSession stacks on top
// for routes that need authentication.
func ResolveSession(mgr *session.Manager, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
				if email, ok := mgr.Validate(c.Request().Context(), cookie.Value); ok {
					c.Set(ContextEmailKey, email)
				}
			}
			return next(c)
		}
	}
}

// RequireSession rejects requests that did not resolve to a verified
// email.  The response is deliberately uniform: an invalid, expired and
// revoked token all read the same from the outside.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := VerifiedEmail(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			return next(c)
		}
	}
}

// VerifiedEmail returns the verified email stored by ResolveSession.
func VerifiedEmail(c echo.Context) (string, bool) {
	if v := c.Get(ContextEmailKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
