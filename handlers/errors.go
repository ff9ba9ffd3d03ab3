package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// RespondError maps a service error onto the response envelope. msg is used
// for the 500 case only.
func RespondError(c *fiber.Ctx, err error, msg string) error {
	if formErr, ok := services.AsFormError(err); ok {
		return response.FormInvalid(c, formErr)
	}

	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUnknownKind),
		errors.Is(err, services.ErrNotEnrolled):
		return response.NotFound(c, "")
	case errors.Is(err, services.ErrPermissionDenied):
		return response.Forbidden(c, "")
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return response.Conflict(c, err.Error())
	}

	log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	return response.InternalServerError(c, msg)
}

// ParamID reads a positive integer route parameter
func ParamID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
