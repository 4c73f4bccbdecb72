package handlers

import (
	"errors"

	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ChitGroupHandler handles chit group endpoints
type ChitGroupHandler struct {
	chitGroupService *services.ChitGroupService
}

// NewChitGroupHandler creates a new chit group handler
func NewChitGroupHandler(chitGroupService *services.ChitGroupService) *ChitGroupHandler {
	return &ChitGroupHandler{chitGroupService: chitGroupService}
}

// Create registers a chit group
// @Summary Create chit group
// @Tags ChitGroups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChitGroupInput true "Chit group data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /chit-groups [post]
func (h *ChitGroupHandler) Create(c *fiber.Ctx) error {
	var input services.ChitGroupInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.Name == "" {
		return response.BadRequest(c, "Name is required")
	}
	if input.Value <= 0 || input.DurationWeeks <= 0 || input.MembersCount <= 0 {
		return response.BadRequest(c, "Value, duration and members count must be positive")
	}

	group, err := h.chitGroupService.Create(c.UserContext(), &input)
	if err != nil {
		return response.InternalServerError(c, "Failed to create chit group")
	}

	return response.Created(c, "Chit group created successfully", group)
}

// List returns chit groups, optionally filtered by status
// @Summary List chit groups
// @Tags ChitGroups
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} response.Response
// @Router /chit-groups [get]
func (h *ChitGroupHandler) List(c *fiber.Ctx) error {
	groups, err := h.chitGroupService.GetAll(c.UserContext(), c.Query("status"))
	if err != nil {
		return response.InternalServerError(c, "Failed to list chit groups")
	}

	return response.Success(c, "Chit groups retrieved successfully", groups)
}

// Get returns one chit group
// @Summary Get chit group
// @Tags ChitGroups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chit group id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /chit-groups/{id} [get]
func (h *ChitGroupHandler) Get(c *fiber.Ctx) error {
	group, err := h.chitGroupService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrChitGroupNotFound) {
			return response.NotFound(c, "Chit group not found")
		}
		return response.InternalServerError(c, "Failed to get chit group")
	}

	return response.Success(c, "Chit group retrieved successfully", group)
}

// AddMember enrolls a customer in a chit group
// @Summary Add chit group member
// @Tags ChitGroups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chit group id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /chit-groups/{id}/members [post]
func (h *ChitGroupHandler) AddMember(c *fiber.Ctx) error {
	var req struct {
		CustomerID string `json:"customerId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CustomerID == "" {
		return response.BadRequest(c, "Customer id is required")
	}

	group, err := h.chitGroupService.AddMember(c.UserContext(), c.Params("id"), req.CustomerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChitGroupNotFound):
			return response.NotFound(c, "Chit group not found")
		case errors.Is(err, services.ErrCustomerNotFound):
			return response.NotFound(c, "Customer not found")
		case errors.Is(err, services.ErrAlreadyMember):
			return response.Conflict(c, "Customer already in chit group")
		case errors.Is(err, services.ErrChitGroupFull):
			return response.Conflict(c, "Chit group is full")
		default:
			return response.InternalServerError(c, "Failed to add member")
		}
	}

	return response.Success(c, "Member added successfully", group)
}

// RemoveMember drops a customer from a chit group
// @Summary Remove chit group member
// @Tags ChitGroups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chit group id"
// @Param customerId path string true "Customer id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /chit-groups/{id}/members/{customerId} [delete]
func (h *ChitGroupHandler) RemoveMember(c *fiber.Ctx) error {
	group, err := h.chitGroupService.RemoveMember(c.UserContext(), c.Params("id"), c.Params("customerId"))
	if err != nil {
		if errors.Is(err, services.ErrChitGroupNotFound) {
			return response.NotFound(c, "Chit group not found")
		}
		return response.InternalServerError(c, "Failed to remove member")
	}

	return response.Success(c, "Member removed successfully", group)
}

// UpdateStatus moves a chit group through its lifecycle
// @Summary Update chit group status
// @Tags ChitGroups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chit group id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /chit-groups/{id}/status [patch]
func (h *ChitGroupHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	group, err := h.chitGroupService.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		if errors.Is(err, services.ErrChitGroupNotFound) {
			return response.NotFound(c, "Chit group not found")
		}
		return response.BadRequest(c, "Invalid chit group status")
	}

	return response.Success(c, "Chit group status updated successfully", group)
}
