package handlers

import (
	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CollectionHandler handles collection tracker endpoints
type CollectionHandler struct {
	collectionService *services.CollectionService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(collectionService *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// List returns collection records: all for admins, own for agents
// @Summary List collections
// @Tags Collections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /collections [get]
func (h *CollectionHandler) List(c *fiber.Ctx) error {
	if !isAdmin(c) {
		session := sessionUser(c)
		if session == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		records, err := h.collectionService.GetByAgentID(c.UserContext(), session.UID)
		if err != nil {
			return response.InternalServerError(c, "Failed to list collections")
		}
		return response.Success(c, "Collections retrieved successfully", records)
	}

	records, err := h.collectionService.GetAll(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to list collections")
	}

	return response.Success(c, "Collections retrieved successfully", records)
}

// GetByCustomer returns the trackers covering one customer
// @Summary Customer collections
// @Tags Collections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Success 200 {object} response.Response
// @Router /customers/{id}/collections [get]
func (h *CollectionHandler) GetByCustomer(c *fiber.Ctx) error {
	records, err := h.collectionService.GetByCustomerID(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.InternalServerError(c, "Failed to list collections")
	}

	return response.Success(c, "Collections retrieved successfully", records)
}
