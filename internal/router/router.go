// Package router registers the HTTP routes of the API.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lottery-ticketing/internal/handler"
)

// Guards are the middlewares routes opt into.  Main builds them once so
// every group shares the same limiter and cache.
type Guards struct {
	Admin    echo.MiddlewareFunc // valid admin access cookie
	User     echo.MiddlewareFunc // valid user access cookie
	Throttle echo.MiddlewareFunc // token bucket for costly endpoints
	Cache    echo.MiddlewareFunc // response cache for public listings
}

// RegisterRoutes exposes the health check and the Prometheus scrape
// endpoint.  Neither requires authentication.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler, metrics http.Handler) {
	e.GET("/healthz", health.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers the session endpoints under /v1/auth.  Login and
// the refresh endpoints read credentials from the body or the refresh
// cookie, so they carry no guard.  Logout always succeeds.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	auth := e.Group("/v1/auth")
	auth.POST("/login", a.Login)
	auth.POST("/status", a.RefreshAdmin)
	auth.POST("/status/user", a.RefreshUser)
	auth.GET("/me", a.Me, g.User)
	auth.GET("/me-admin", a.MeAdmin, g.Admin)
	auth.POST("/logout", a.LogoutUser)
	auth.POST("/logout-admin", a.LogoutAdmin)
}
