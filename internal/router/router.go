package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anderle/table-reservation/internal/handler"
	"github.com/anderle/table-reservation/internal/middleware"
	"github.com/anderle/table-reservation/internal/session"
)

// RegisterRoutes registers routes that require no authentication and no
// session: the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the guest-facing endpoints.  Booking and the
// magic-link request are the abuse-prone writes, so they take the rate
// limiter; availability is read-only and cached.
func RegisterPublic(e *echo.Echo, r *handler.ReservationHandler, av *handler.AvailabilityHandler, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	e.GET("/v1/availability", av.Get)

	e.POST("/v1/reservations", r.Create, limiter)

	// The login flow: request a link by mail, follow it, drop the session.
	e.POST("/v1/auth/magic-link", a.RequestLink, limiter)
	e.GET("/v1/auth/login", a.Login)
	e.POST("/v1/auth/logout", a.Logout)
}

// RegisterCustomer registers the self-service endpoints behind a
// verified email session.  ResolveSession runs on the whole group so the
// rate limiter can key on the verified identity; RequireSession then
// rejects anonymous requests.
func RegisterCustomer(e *echo.Echo, r *handler.ReservationHandler, mgr *session.Manager, cookieName string) {
	g := e.Group("/v1/my")
	g.Use(middleware.ResolveSession(mgr, cookieName))
	g.Use(middleware.RequireSession())

	g.GET("/reservations", r.List)
	g.GET("/reservations/:id", r.Detail)
	g.PUT("/reservations/:id", r.Update)
}

// RegisterAdmin registers the operator API.  Login is open; everything
// else sits behind the JWT middleware.
func RegisterAdmin(e *echo.Echo, auth *handler.AdminAuthHandler, slots *handler.AdminSlotHandler, overrides *handler.AdminOverrideHandler, settings *handler.AdminSettingsHandler, jwtSecret string) {
	e.POST("/v1/admin/login", auth.Login)

	g := e.Group("/v1/admin")
	g.Use(middleware.OperatorAuth(jwtSecret))

	g.GET("/slots", slots.List)
	g.POST("/slots", slots.Create)
	g.PUT("/slots/:id", slots.Update)
	g.DELETE("/slots/:id", slots.Delete)

	g.GET("/overrides", overrides.ListDays)
	g.PUT("/overrides/:date", overrides.UpsertDay)
	g.DELETE("/overrides/:date", overrides.DeleteDay)
	g.PUT("/overrides/:date/slots/:slotID", overrides.UpsertSlotBlock)
	g.DELETE("/overrides/:date/slots/:slotID", overrides.DeleteSlotBlock)

	g.GET("/settings", settings.Get)
	g.PUT("/settings", settings.Update)
}
