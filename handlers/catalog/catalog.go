package catalog

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/handlers"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// CatalogHandler serves the public subject and course pages
type CatalogHandler struct {
	catalog     *services.CatalogService
	enrollments *services.EnrollmentService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *services.CatalogService, enrollments *services.EnrollmentService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, enrollments: enrollments}
}

// CourseSummary is a course as shown in public listings
type CourseSummary struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Overview     string         `json:"overview"`
	Created      time.Time      `json:"created"`
	Subject      *model.Subject `json:"subject,omitempty"`
	OwnerName    string         `json:"owner"`
	TotalModules int64          `json:"total_modules"`
}

// CourseListResponse is the body of the course list pages
type CourseListResponse struct {
	Subject  *model.Subject                 `json:"subject,omitempty"`
	Subjects []model.SubjectWithCourseCount `json:"subjects"`
	Courses  []CourseSummary                `json:"courses"`
}

// CourseDetailResponse is the body of the public course page
type CourseDetailResponse struct {
	CourseSummary
	Modules  []ModuleSummary `json:"modules"`
	Enrolled *bool           `json:"enrolled,omitempty"` // logged in visitors only
}

// ModuleSummary is a module heading on the public course page
type ModuleSummary struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

func summarize(course *model.Course, totalModules int64) CourseSummary {
	summary := CourseSummary{
		ID:           course.ID,
		Title:        course.Title,
		Slug:         course.Slug,
		Overview:     course.Overview,
		Created:      course.CreatedAt,
		Subject:      course.Subject,
		TotalModules: totalModules,
	}
	if course.Owner != nil {
		summary.OwnerName = course.Owner.Name
	}
	return summary
}

// ListSubjects handles GET /course/subject/
func (h *CatalogHandler) ListSubjects(c *fiber.Ctx) error {
	subjects, err := h.catalog.ListSubjects(c.UserContext())
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch subjects")
	}
	return response.Success(c, subjects)
}

// ListCourses handles GET /courses/ and GET /course/subject/:slug/
func (h *CatalogHandler) ListCourses(c *fiber.Ctx) error {
	listing, err := h.catalog.ListCourses(c.UserContext(), c.Params("slug"))
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch courses")
	}

	res := CourseListResponse{
		Subject:  listing.Subject,
		Subjects: listing.Subjects,
		Courses:  make([]CourseSummary, len(listing.Courses)),
	}
	for i := range listing.Courses {
		res.Courses[i] = summarize(&listing.Courses[i].Course, listing.Courses[i].TotalModules)
	}
	return response.Success(c, res)
}

// CourseDetail handles GET /course/:slug/
func (h *CatalogHandler) CourseDetail(c *fiber.Ctx) error {
	course, err := h.catalog.CourseDetail(c.UserContext(), c.Params("slug"))
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch course")
	}

	res := CourseDetailResponse{
		CourseSummary: summarize(course, int64(len(course.Modules))),
		Modules:       make([]ModuleSummary, len(course.Modules)),
	}
	for i, module := range course.Modules {
		res.Modules[i] = ModuleSummary{
			ID:          module.ID,
			Title:       module.Title,
			Description: module.Description,
			Order:       module.Order,
		}
	}

	if userID, ok := middleware.GetUserID(c); ok {
		enrolled, err := h.enrollments.IsEnrolled(c.UserContext(), userID, course.ID)
		if err != nil {
			return handlers.RespondError(c, err, "Failed to fetch course")
		}
		res.Enrolled = &enrolled
	}
	return response.Success(c, res)
}
