package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	logger  *zap.Logger
}

func NewHealthHandler(checks map[string]HealthCheck, timeout time.Duration, logger *zap.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthHandler{checks: checks, timeout: timeout, logger: logger.Named("health")}
}

// HandleHealth runs every check concurrently. Any failure reports 503 with
// the per-dependency outcome.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		healthy = true
	)

	g, gctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		name, check := name, check
		g.Go(func() error {
			status := "ok"
			if err := check(gctx); err != nil {
				h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = status
			if status != "ok" {
				healthy = false
			}
			return nil
		})
	}
	_ = g.Wait()

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"checks": results,
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": results,
	})
}
