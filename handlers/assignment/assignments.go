package assignment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/handlers"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// AssignmentHandler serves assignment uploads
type AssignmentHandler struct {
	assignments *services.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignments *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List handles GET /course/assignment_list/
func (h *AssignmentHandler) List(c *fiber.Ctx) error {
	assignments, err := h.assignments.List(c.UserContext())
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch assignments")
	}
	return response.Success(c, assignments)
}

// Get handles GET /course/assignment/:id/
func (h *AssignmentHandler) Get(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	assignment, err := h.assignments.Get(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch assignment")
	}
	return response.Success(c, assignment)
}

// Create handles POST /course/assignment/create/ (multipart)
func (h *AssignmentHandler) Create(c *fiber.Ctx) error {
	var input services.AssignmentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	upload, err := handlers.ReadUpload(c, "assignment")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	input.Assignment = upload

	assignment, err := h.assignments.Create(c.UserContext(), input)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to create assignment")
	}
	return response.Created(c, assignment)
}

// Delete handles POST /course/assignment/:id/delete/
func (h *AssignmentHandler) Delete(c *fiber.Ctx) error {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	if err := h.assignments.Delete(c.UserContext(), id); err != nil {
		return handlers.RespondError(c, err, "Failed to delete assignment")
	}
	return response.SuccessWithMessage(c, "Assignment deleted", nil)
}
