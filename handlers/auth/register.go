package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/model"
	authutil "github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/middleware"
	"github.com/sahilchouksey/educa-api/utils/response"
	"github.com/sahilchouksey/educa-api/utils/validation"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=150"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User UserResponse `json:"user"`
	*authutil.TokenPair
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// Register creates a student account and logs it in. Authoring rights are
// granted later by an admin.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.FormInvalid(c, fiber.Map{
			"fields": validation.FormatValidationErrors(err),
			"values": fiber.Map{"email": req.Email, "name": req.Name},
		})
	}

	var existing model.User
	err := h.db.WithContext(c.UserContext()).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return response.Conflict(c, "User with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.InternalServerError(c, "Failed to check email")
	}

	hashed, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         req.Name,
		Role:         model.RoleStudent,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	tokens, err := h.jwtManager.IssuePair(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Created(c, AuthResponse{User: toUserResponse(&user), TokenPair: tokens})
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ip := c.IP()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user model.User
	if err := h.db.WithContext(c.UserContext()).Where("email = ?", email).First(&user).Error; err != nil {
		_ = h.bruteForceProtection.RecordFailedAttempt(c, ip)
		return response.Unauthorized(c, "Invalid email or password")
	}
	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		_ = h.bruteForceProtection.RecordFailedAttempt(c, ip)
		return response.Unauthorized(c, "Invalid email or password")
	}
	_ = h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)

	tokens, err := h.jwtManager.IssuePair(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, AuthResponse{User: toUserResponse(&user), TokenPair: tokens})
}
