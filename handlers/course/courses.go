package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/handlers"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// CourseHandler serves the instructor side of course management
type CourseHandler struct {
	courses  *services.CourseService
	contents *services.ContentService
	ordering *services.OrderingService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courses *services.CourseService, contents *services.ContentService, ordering *services.OrderingService) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		contents: contents,
		ordering: ordering,
	}
}

// ModuleFormsetRequest is the body of the module formset
type ModuleFormsetRequest struct {
	Modules []services.ModuleRow `json:"modules"`
}

// ListMine handles GET /course/mine/
func (h *CourseHandler) ListMine(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)

	courses, err := h.courses.ListOwned(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch courses")
	}
	return response.Success(c, courses)
}

// Create handles POST /course/create/
func (h *CourseHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	course, err := h.courses.Create(c.UserContext(), user, input)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to create course")
	}
	return response.Created(c, course)
}

// Edit handles GET /course/:id/edit/
func (h *CourseHandler) Edit(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	course, err := h.courses.Get(c.UserContext(), userID, courseID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch course")
	}
	return response.Success(c, course)
}

// Update handles POST /course/:id/edit/
func (h *CourseHandler) Update(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	var input services.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	course, err := h.courses.Update(c.UserContext(), userID, courseID, input)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to update course")
	}
	return response.Success(c, course)
}

// Delete handles POST /course/:id/delete/
func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	if err := h.courses.Delete(c.UserContext(), userID, courseID); err != nil {
		return handlers.RespondError(c, err, "Failed to delete course")
	}
	return response.SuccessWithMessage(c, "Course deleted", nil)
}

// Modules handles GET /course/:id/module/
func (h *CourseHandler) Modules(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	course, err := h.courses.Modules(c.UserContext(), userID, courseID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch modules")
	}
	return response.Success(c, course)
}

// SaveModules handles POST /course/:id/module/
func (h *CourseHandler) SaveModules(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	var req ModuleFormsetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	course, err := h.courses.SaveModules(c.UserContext(), userID, courseID, req.Modules)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to save modules")
	}
	return response.Success(c, course)
}
