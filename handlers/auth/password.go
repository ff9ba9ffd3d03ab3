package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	authutil "github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
	"github.com/sahilchouksey/educa-api/utils/validation"
)

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword handles PUT /accounts/password/. Every token issued before
// the change stops working.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Old password and new password are required")
	}
	if valid, problems := validation.ValidatePassword(req.NewPassword); !valid {
		return response.BadRequest(c, strings.Join(problems, ". "))
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		return response.BadRequest(c, "Current password is incorrect")
	}

	hashed, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	ctx := c.UserContext()
	if err := h.db.WithContext(ctx).Model(user).Update("password_hash", hashed).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}
	if err := h.blacklistService.RevokeAllUserTokens(ctx, user.ID); err != nil {
		return response.InternalServerError(c, "Failed to revoke existing sessions")
	}

	return response.SuccessWithMessage(c, "Password changed. Please log in again", nil)
}
