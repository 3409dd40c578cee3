package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/trackdesk/trackdesk/internal/observability"
	"github.com/trackdesk/trackdesk/internal/persistence"
)

// HealthHandler reports service liveness and collaborator readiness.
type HealthHandler struct {
	mongo   *persistence.Mongo
	redis   *persistence.Redis
	metrics *observability.Metrics
}

// NewHealthHandler constructs handler.
func NewHealthHandler(mongo *persistence.Mongo, redis *persistence.Redis, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis, metrics: metrics}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready; pings both backends.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{"mongo": "ok", "redis": "ok"}
	healthy := true

	if err := h.mongo.Ping(c.UserContext()); err != nil {
		checks["mongo"] = err.Error()
		healthy = false
	}
	if err := h.redis.Ping(c.UserContext()); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"checks": checks})
}

// Metrics handles GET /health/metrics with the in-memory counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	requests, errs := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"requests": requests, "errors": errs})
}
