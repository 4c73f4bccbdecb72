package middleware

import (
	"errors"
	"strings"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/jwt"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the access token and resolves the session
// against the current role record on every request, so a deactivated or
// deleted user is cut off without waiting for token expiry.
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := authService.ValidateAccessToken(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Resolve the session against the live role record
		user, err := authService.ResolveSession(c.UserContext(), claims)
		if err != nil {
			if errors.Is(err, services.ErrUserInactive) {
				return response.Forbidden(c, "Account is inactive")
			}
			return response.Unauthorized(c, "Session is no longer valid")
		}

		// 6. Set user info in context
		c.Locals("uid", user.UID)
		c.Locals("email", user.Email)
		c.Locals("role", user.Role)
		c.Locals("user", user)

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only ADMIN role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(models.RoleAdmin)
}

// AgentOrAdmin middleware allows AGENT or ADMIN roles
func AgentOrAdmin() fiber.Handler {
	return RoleMiddleware(models.RoleAgent, models.RoleAdmin)
}
