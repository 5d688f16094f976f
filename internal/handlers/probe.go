package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeHandler serves the liveness and readiness endpoints.
type ProbeHandler struct {
	checks  map[string]Pinger
	started time.Time
}

// NewProbeHandler creates a probe handler that gates readiness on the database.
func NewProbeHandler(database Pinger) *ProbeHandler {
	return &ProbeHandler{
		checks:  map[string]Pinger{"database": database},
		started: time.Now(),
	}
}

// Liveness answers /healthz while the process is up.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Readiness answers /readyz. Any failing check turns the whole probe into a 503
// naming the first unavailable dependency.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	results := make(map[string]string, len(h.checks))
	failed := ""
	for name, p := range h.checks {
		ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			results[name] = "unavailable"
			if failed == "" {
				failed = name
			}
			continue
		}
		results[name] = "ok"
	}

	if failed != "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "error",
			"error":  failed + " unavailable",
			"checks": results,
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": results,
	})
}
