package course

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// OrderModules handles POST /course/module/order/
func (h *CourseHandler) OrderModules(c *fiber.Ctx) error {
	return h.order(c, h.ordering.ReorderModules)
}

// OrderContents handles POST /course/content/order/
func (h *CourseHandler) OrderContents(c *fiber.Ctx) error {
	return h.order(c, h.ordering.ReorderContents)
}

// order applies a {"<id>": <order>} batch. Entries the caller does not own,
// or whose order is not a number, are skipped and the reply is the same
// either way.
func (h *CourseHandler) order(c *fiber.Ctx, apply func(ctx context.Context, ownerID uint, orders services.OrderBatch) services.ReorderResult) error {
	var orders services.OrderBatch
	if err := json.Unmarshal(c.Body(), &orders); err != nil || orders == nil {
		return response.BadRequest(c, "Body must be an object of id to order")
	}

	userID, _ := middleware.GetUserID(c)
	apply(c.UserContext(), userID, orders)
	return response.Saved(c)
}
