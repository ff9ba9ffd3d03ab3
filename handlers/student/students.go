package student

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/handlers"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// StudentHandler serves enrollment and the enrolled course views
type StudentHandler struct {
	enrollments *services.EnrollmentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(enrollments *services.EnrollmentService) *StudentHandler {
	return &StudentHandler{enrollments: enrollments}
}

// EnrollRequest is the body of an enrollment
type EnrollRequest struct {
	CourseID uint `json:"course_id" form:"course_id"`
}

// Enroll handles POST /students/enroll-course/
func (h *StudentHandler) Enroll(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == 0 {
		return response.BadRequest(c, "course_id is required")
	}

	enrollment, err := h.enrollments.Enroll(c.UserContext(), user, req.CourseID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to enroll")
	}
	return response.Created(c, enrollment)
}

// ListCourses handles GET /students/courses/
func (h *StudentHandler) ListCourses(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)

	courses, err := h.enrollments.ListCourses(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch courses")
	}
	return response.Success(c, courses)
}

// CourseDetail handles GET /students/course/:id/ and
// GET /students/course/:id/:module_id/
func (h *StudentHandler) CourseDetail(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	courseID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	var moduleID uint
	if c.Params("module_id") != "" {
		if moduleID, ok = handlers.ParamID(c, "module_id"); !ok {
			return response.NotFound(c, "")
		}
	}

	view, err := h.enrollments.CourseView(c.UserContext(), userID, courseID, moduleID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch course")
	}
	return response.Success(c, view)
}
