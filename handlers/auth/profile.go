package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
	"github.com/sahilchouksey/educa-api/utils/validation"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name string `json:"name,omitempty"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, toUserResponse(user))
}

// UpdateProfile updates the current user's display name
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if name := validation.SanitizeString(req.Name); name != "" {
		user.Name = name
		if err := h.db.WithContext(c.UserContext()).Model(user).Update("name", name).Error; err != nil {
			return response.InternalServerError(c, "Failed to update profile")
		}
	}

	return response.Success(c, toUserResponse(user))
}
