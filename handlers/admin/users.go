package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
	"github.com/sahilchouksey/educa-api/utils/validation"
	"gorm.io/gorm"
)

// UserHandler lets admins look up accounts and hand out authoring rights
type UserHandler struct {
	db               *gorm.DB
	blacklistService *auth.BlacklistService
	validator        *validation.Validator
}

// NewUserHandler creates a new admin user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		db:               db,
		blacklistService: auth.NewBlacklistService(db),
		validator:        validation.NewValidator(),
	}
}

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Role   string `query:"role"`
	Search string `query:"search"`
}

// UpdateRoleRequest represents the body of a role change
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// UserSummary is an account as admins see it
type UserSummary struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func summarize(user *model.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// ListUsers handles GET /admin/users/
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	filter := func(tx *gorm.DB) *gorm.DB {
		if req.Role != "" {
			tx = tx.Where("role = ?", req.Role)
		}
		if req.Search != "" {
			term := "%" + strings.ToLower(req.Search) + "%"
			tx = tx.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", term, term)
		}
		return tx
	}
	db := h.db.WithContext(c.UserContext())

	var total int64
	if err := db.Model(&model.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	if err := db.Scopes(filter).Order("id desc").Offset(offset).Limit(req.Limit).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	summaries := make([]UserSummary, len(users))
	for i := range users {
		summaries[i] = summarize(&users[i])
	}

	return response.Success(c, fiber.Map{
		"users": summaries,
		"pagination": fiber.Map{
			"page":        req.Page,
			"limit":       req.Limit,
			"total":       total,
			"total_pages": (total + int64(req.Limit) - 1) / int64(req.Limit),
		},
	})
}

// UpdateUserRole handles PUT /admin/users/:id/role/. The user's existing
// tokens are invalidated so the new role applies from their next login.
func (h *UserHandler) UpdateUserRole(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if adminID, ok := middleware.GetUserID(c); ok && adminID == uint(userID) {
		return response.BadRequest(c, "Cannot change your own role")
	}

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.FormInvalid(c, fiber.Map{
			"fields": validation.FormatValidationErrors(err),
			"values": fiber.Map{"role": req.Role},
		})
	}

	ctx := c.UserContext()
	var user model.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Role != req.Role {
		if err := h.db.WithContext(ctx).Model(&user).Update("role", req.Role).Error; err != nil {
			return response.InternalServerError(c, "Failed to update user")
		}
		user.Role = req.Role
		if err := h.blacklistService.RevokeAllUserTokens(ctx, user.ID); err != nil {
			return response.InternalServerError(c, "Failed to revoke user sessions")
		}
	}

	return response.SuccessWithMessage(c, "User role updated", summarize(&user))
}
