package handlers

import (
	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ActivityHandler handles audit trail endpoints
type ActivityHandler struct {
	activityService *services.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// List returns the audit trail: everything for admins, own entries for
// agents
// @Summary List activities
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /activities [get]
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	if !isAdmin(c) {
		session := sessionUser(c)
		if session == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		activities, err := h.activityService.GetByAgentID(c.UserContext(), session.UID)
		if err != nil {
			return response.InternalServerError(c, "Failed to list activities")
		}
		return response.Success(c, "Activities retrieved successfully", activities)
	}

	activities, err := h.activityService.GetAll(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to list activities")
	}

	return response.Success(c, "Activities retrieved successfully", activities)
}

// GetByCustomer returns a customer's audit trail
// @Summary Customer activities
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Success 200 {object} response.Response
// @Router /customers/{id}/activities [get]
func (h *ActivityHandler) GetByCustomer(c *fiber.Ctx) error {
	activities, err := h.activityService.GetByCustomerID(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.InternalServerError(c, "Failed to list activities")
	}

	return response.Success(c, "Activities retrieved successfully", activities)
}
