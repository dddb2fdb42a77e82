package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler defines HTTP route registration interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves GET /api/health. With no checks it always reports ok;
// otherwise any failing check turns the response into a 503.
type HealthHandler struct {
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/health", h.health)
}

func (h HealthHandler) health(c echo.Context) error {
	if len(h.Checks) == 0 {
		return SuccessResponse(c, healthStatus{Status: "ok"})
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := healthStatus{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			out.Checks[name] = err.Error()
			out.Status = "degraded"
			continue
		}
		out.Checks[name] = "ok"
	}
	if out.Status != "ok" {
		return JSONResponse(c, http.StatusServiceUnavailable, out)
	}
	return SuccessResponse(c, out)
}
