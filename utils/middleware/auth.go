package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authFailure is an authentication problem with the status it maps to
type authFailure struct {
	status  int
	message string
}

func (f *authFailure) Error() string { return f.message }

func unauthorized(msg string) *authFailure {
	return &authFailure{status: fiber.StatusUnauthorized, message: msg}
}

// authenticate resolves the bearer token on the request into its user
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*model.User, *auth.Claims, *authFailure) {
	header := c.Get("Authorization")
	if header == "" {
		return nil, nil, unauthorized("Missing authorization token")
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, unauthorized("Invalid authorization format")
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, unauthorized("Token has expired")
		}
		return nil, nil, unauthorized("Invalid token")
	}
	if claims.TokenType != auth.AccessToken {
		return nil, nil, unauthorized("Invalid token type")
	}

	revoked, err := m.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return nil, nil, &authFailure{status: fiber.StatusInternalServerError, message: "Failed to check token status"}
	}
	if revoked {
		return nil, nil, unauthorized("Token has been revoked")
	}

	var user model.User
	if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, unauthorized("User not found")
		}
		return nil, nil, &authFailure{status: fiber.StatusInternalServerError, message: "Failed to load user"}
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, unauthorized("Token has been invalidated")
	}

	return &user, claims, nil
}

func setPrincipal(c *fiber.Ctx, user *model.User, claims *auth.Claims) {
	c.Locals("user_id", user.ID)
	c.Locals("user_role", user.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
	c.Locals("token_jti", claims.ID)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, failure := m.authenticate(c)
		if failure != nil {
			if failure.status == fiber.StatusInternalServerError {
				return response.InternalServerError(c, failure.message)
			}
			return response.Unauthorized(c, failure.message)
		}
		setPrincipal(c, user, claims)
		return c.Next()
	}
}

// Optional attaches the principal when a valid token is present
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, claims, failure := m.authenticate(c); failure == nil {
			setPrincipal(c, user, claims)
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires one of the given roles. It must run after Required.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, "Insufficient permissions")
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("user_role").(string)
	return role, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals("user").(*model.User)
	return user, ok && user != nil
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals("claims").(*auth.Claims)
	return claims, ok && claims != nil
}

// GetTokenJTI extracts the token JTI from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti, ok := c.Locals("token_jti").(string)
	return jti, ok
}
