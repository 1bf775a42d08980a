package rest

import (
	"github.com/ganga90/olive-couple-sync-sub002/pkg/agentworker"
	"github.com/gofiber/fiber/v2"
)

// agentPool is set once at startup; the stats route reads it.
var agentPool *agentworker.Pool

func SetAgentPool(pool *agentworker.Pool) {
	agentPool = pool
}

// GetAgentPoolStats exposes live worker-pool metrics for observability.
func GetAgentPoolStats(c *fiber.Ctx) error {
	if agentPool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "agent worker pool not initialized",
		})
	}
	return c.JSON(agentPool.GetStats())
}
