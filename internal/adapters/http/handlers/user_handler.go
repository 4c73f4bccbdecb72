package handlers

import (
	"errors"

	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/pagination"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Invite provisions a new user ahead of their first login
// @Summary Invite user
// @Description Create a role record with an initial password for first-login claiming
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.InviteInput true "Invite data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) Invite(c *fiber.Ctx) error {
	var input services.InviteInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if input.DisplayName == "" {
		return response.BadRequest(c, "Display name is required")
	}
	if input.Role == "" {
		return response.BadRequest(c, "Role is required")
	}

	user, err := h.userService.Invite(c.UserContext(), &input)
	if err != nil {
		if errors.Is(err, services.ErrPasswordTooShort) {
			return response.BadRequest(c, "Initial password must be at least 6 characters")
		}
		if errors.Is(err, services.ErrUserAlreadyExists) {
			return response.Conflict(c, "Email already in use")
		}
		return response.InternalServerError(c, "Failed to invite user")
	}

	return response.Created(c, "User invited successfully", user)
}

// List returns a page of users
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", pagination.NewResponse(users, params, total))
}

// GetAgents returns every agent
// @Summary List agents
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /users/agents [get]
func (h *UserHandler) GetAgents(c *fiber.Ctx) error {
	agents, err := h.userService.GetAgents(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to list agents")
	}

	return response.Success(c, "Agents retrieved successfully", agents)
}

// Get returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param uid path string true "User id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{uid} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.userService.GetByUID(c.UserContext(), c.Params("uid"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", user)
}

// Update applies a partial profile update. Agents may only update their
// own profile; admins may update anyone.
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "User id"
// @Param body body services.UpdateUserInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{uid} [patch]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	uid := c.Params("uid")

	session := sessionUser(c)
	if session == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if !isAdmin(c) && session.UID != uid {
		return response.Forbidden(c, "You can only update your own profile")
	}

	var input services.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Status changes are an admin concern
	if input.Status != nil && !isAdmin(c) {
		return response.Forbidden(c, "Only administrators can change account status")
	}

	user, err := h.userService.Update(c.UserContext(), uid, &input)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", user)
}

// UpdatePhoto stores an encrypted profile photo
// @Summary Update profile photo
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "User id"
// @Success 200 {object} response.Response
// @Router /users/{uid}/photo [put]
func (h *UserHandler) UpdatePhoto(c *fiber.Ctx) error {
	uid := c.Params("uid")

	session := sessionUser(c)
	if session == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	if !isAdmin(c) && session.UID != uid {
		return response.Forbidden(c, "You can only update your own photo")
	}

	var req struct {
		Photo string `json:"photo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.userService.UpdatePhoto(c.UserContext(), uid, req.Photo); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to update photo")
	}

	return response.Success(c, "Photo updated successfully", nil)
}

// GetPhoto returns the decrypted profile photo
// @Summary Get profile photo
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param uid path string true "User id"
// @Success 200 {object} response.Response
// @Router /users/{uid}/photo [get]
func (h *UserHandler) GetPhoto(c *fiber.Ctx) error {
	photo, err := h.userService.GetPhoto(c.UserContext(), c.Params("uid"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to get photo")
	}

	return response.Success(c, "Photo retrieved successfully", fiber.Map{"photo": photo})
}

// Delete removes a role record
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param uid path string true "User id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{uid} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.userService.Delete(c.UserContext(), c.Params("uid")); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.Success(c, "User deleted successfully", nil)
}
