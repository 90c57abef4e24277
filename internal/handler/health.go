package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler is used by load balancers and monitoring.  Required checks
// turn the response into a 503 when they fail; optional ones are reported
// as "degraded".
type HealthHandler struct {
	Required map[string]HealthCheck
	Optional map[string]HealthCheck
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := map[string]string{}
	for name, check := range h.Optional {
		checks[name] = "ok"
		if err := check(ctx); err != nil {
			checks[name] = "down"
			status = "degraded"
		}
	}
	for name, check := range h.Required {
		checks[name] = "ok"
		if err := check(ctx); err != nil {
			checks[name] = "down"
			status, code = "down", http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, echo.Map{"status": status, "checks": checks})
}
