package rest

import (
	"github.com/ganga90/olive-couple-sync-sub002/core/config"
	"github.com/ganga90/olive-couple-sync-sub002/domains/health"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}
	app.Get("/health", handler.GetStatus)
	app.Post("/health/check", handler.CheckAll)
	app.Get("/health/settings", handler.GetSettings)
	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	records := h.Service.GetStatus(c.UserContext())

	status := 200
	for _, record := range records {
		if record.Status == health.StatusError {
			status = 503
			break
		}
	}

	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: records,
	})
}

func (h *Health) CheckAll(c *fiber.Ctx) error {
	return success(c, "Health check completed", h.Service.CheckAll(c.UserContext()))
}

// GetSettings exposes the effective runtime settings, for checking what a
// deployment actually picked up from its environment.
func (h *Health) GetSettings(c *fiber.Ctx) error {
	return success(c, "Settings retrieved", config.GetAllSettings())
}
