package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/database"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// HandleCheckHealth reports whether the database answers
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
