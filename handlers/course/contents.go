package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/handlers"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// ModuleContents handles GET /course/module/:module_id/
func (h *CourseHandler) ModuleContents(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	moduleID, ok := handlers.ParamID(c, "module_id")
	if !ok {
		return response.NotFound(c, "")
	}

	module, err := h.contents.ListModuleContents(c.UserContext(), userID, moduleID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to fetch module contents")
	}
	return response.Success(c, module)
}

// ContentForm handles GET /course/module/:module_id/content/:model_name/create/
// and GET /course/module/:module_id/content/:model_name/:id/
func (h *CourseHandler) ContentForm(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	moduleID, ok := handlers.ParamID(c, "module_id")
	if !ok {
		return response.NotFound(c, "")
	}

	var itemID uint
	if c.Params("id") != "" {
		if itemID, ok = handlers.ParamID(c, "id"); !ok {
			return response.NotFound(c, "")
		}
	}

	view, err := h.contents.Form(c.UserContext(), userID, moduleID, c.Params("model_name"), itemID)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to load form")
	}
	return response.Success(c, view)
}

// CreateContent handles POST /course/module/:module_id/content/:model_name/create/
func (h *CourseHandler) CreateContent(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	moduleID, ok := handlers.ParamID(c, "module_id")
	if !ok {
		return response.NotFound(c, "")
	}

	form, err := parseContentForm(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	content, err := h.contents.Create(c.UserContext(), userID, moduleID, c.Params("model_name"), form)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to create content")
	}
	return response.Created(c, content)
}

// UpdateContent handles POST /course/module/:module_id/content/:model_name/:id/
func (h *CourseHandler) UpdateContent(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	moduleID, ok := handlers.ParamID(c, "module_id")
	if !ok {
		return response.NotFound(c, "")
	}
	itemID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	form, err := parseContentForm(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	item, err := h.contents.Update(c.UserContext(), userID, moduleID, c.Params("model_name"), itemID, form)
	if err != nil {
		return handlers.RespondError(c, err, "Failed to update content")
	}
	return response.Success(c, item)
}

// DeleteContent handles POST /course/content/:id/delete/
func (h *CourseHandler) DeleteContent(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	contentID, ok := handlers.ParamID(c, "id")
	if !ok {
		return response.NotFound(c, "")
	}

	if err := h.contents.Delete(c.UserContext(), userID, contentID); err != nil {
		return handlers.RespondError(c, err, "Failed to delete content")
	}
	return response.SuccessWithMessage(c, "Content deleted", nil)
}

func parseContentForm(c *fiber.Ctx) (*services.ContentForm, error) {
	var form services.ContentForm
	if err := c.BodyParser(&form); err != nil {
		return nil, err
	}
	upload, err := handlers.ReadUpload(c, "file")
	if err != nil {
		return nil, err
	}
	form.File = upload
	return &form, nil
}
