package handlers

import (
	"chitfund-backoffice/internal/adapters/persistence/models"

	"github.com/gofiber/fiber/v2"
)

// sessionUser returns the role record the auth middleware resolved for
// this request, or nil outside an authenticated route
func sessionUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// isAdmin reports whether the request carries an ADMIN session
func isAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return role == models.RoleAdmin
}
