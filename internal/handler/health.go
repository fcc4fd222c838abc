package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/vacq/internal/middleware"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/labstack/echo/v4"
)

// DefaultHealthCheckTimeout bounds each dependency check when the
// observability config does not set one.
const DefaultHealthCheckTimeout = 5 * time.Second

// HealthHandler exposes GET /status so load balancers and uptime monitors can
// tell whether the API is alive and its dependencies are reachable.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth reports the overall status, environment and one entry per
// dependency. The database is required: if it does not answer the
// response is 503. Redis is optional and only degrades the report.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := map[string]any{}
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	// ---------------- Database connectivity check ----------------------------
	dbStart := time.Now()
	if !h.checkEnabled("database") {
		checks["database"] = map[string]any{"status": "skipped"}
	} else if err := h.pingDatabase(c.Request().Context()); err != nil {
		checks["database"] = map[string]any{
			"status":        "unhealthy",
			"response_time": time.Since(dbStart).String(),
			"error":         err.Error(),
		}
		isHealthy = false

		logger.Error().
			Err(err).
			Dur("response_time", time.Since(dbStart)).
			Msg("database health check failed")

		h.recordHealthError("database", time.Since(dbStart), err)
	} else {
		checks["database"] = map[string]any{
			"status":        "healthy",
			"response_time": time.Since(dbStart).String(),
		}
	}

	// ---------------- Redis connectivity check -------------------------------
	switch {
	case !h.checkEnabled("redis"):
		checks["redis"] = map[string]any{"status": "skipped"}
	case h.server.Redis == nil:
		checks["redis"] = map[string]any{"status": "disabled"}
	default:
		redisStart := time.Now()
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout())
		err := h.server.Redis.Ping(ctx).Err()
		cancel()

		if err != nil {
			checks["redis"] = map[string]any{
				"status":        "unhealthy",
				"response_time": time.Since(redisStart).String(),
				"error":         err.Error(),
			}
			response["status"] = "degraded"

			logger.Error().
				Err(err).
				Dur("response_time", time.Since(redisStart)).
				Msg("redis health check failed")

			h.recordHealthError("redis", time.Since(redisStart), err)
		} else {
			checks["redis"] = map[string]any{
				"status":        "healthy",
				"response_time": time.Since(redisStart).String(),
			}
		}
	}

	// ---------------- Overall status + response ------------------------------
	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) pingDatabase(ctx context.Context) error {
	if h.server.DB == nil {
		return fmt.Errorf("database not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout())
	defer cancel()

	return h.server.DB.Ping(ctx)
}

func (h *HealthHandler) checkEnabled(name string) bool {
	obs := h.server.Config.Observability
	return obs == nil || obs.HealthCheckEnabled(name)
}

func (h *HealthHandler) checkTimeout() time.Duration {
	if obs := h.server.Config.Observability; obs != nil && obs.HealthChecks.Timeout > 0 {
		return obs.HealthChecks.Timeout
	}
	return DefaultHealthCheckTimeout
}

func (h *HealthHandler) recordHealthError(check string, took time.Duration, err error) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}

	app.RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       check,
		"operation":        "health_check",
		"error_type":       check + "_unhealthy",
		"response_time_ms": took.Milliseconds(),
		"error_message":    err.Error(),
	})
}
