package handlers

import (
	"errors"

	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// InvestorHandler handles investor endpoints
type InvestorHandler struct {
	investorService *services.InvestorService
}

// NewInvestorHandler creates a new investor handler
func NewInvestorHandler(investorService *services.InvestorService) *InvestorHandler {
	return &InvestorHandler{investorService: investorService}
}

// Create registers an investor
// @Summary Create investor
// @Tags Investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.InvestorInput true "Investor data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /investors [post]
func (h *InvestorHandler) Create(c *fiber.Ctx) error {
	var input services.InvestorInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.Name == "" {
		return response.BadRequest(c, "Name is required")
	}
	if input.Amount <= 0 {
		return response.BadRequest(c, "Amount must be positive")
	}

	investor, err := h.investorService.Create(c.UserContext(), &input)
	if err != nil {
		return response.InternalServerError(c, "Failed to create investor")
	}

	return response.Created(c, "Investor created successfully", investor)
}

// List returns every investor
// @Summary List investors
// @Tags Investors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /investors [get]
func (h *InvestorHandler) List(c *fiber.Ctx) error {
	investors, err := h.investorService.GetAll(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to list investors")
	}

	return response.Success(c, "Investors retrieved successfully", investors)
}

// Get returns one investor
// @Summary Get investor
// @Tags Investors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /investors/{id} [get]
func (h *InvestorHandler) Get(c *fiber.Ctx) error {
	investor, err := h.investorService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrInvestorNotFound) {
			return response.NotFound(c, "Investor not found")
		}
		return response.InternalServerError(c, "Failed to get investor")
	}

	return response.Success(c, "Investor retrieved successfully", investor)
}

// Update applies a partial investor update
// @Summary Update investor
// @Tags Investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor id"
// @Param body body services.UpdateInvestorInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /investors/{id} [patch]
func (h *InvestorHandler) Update(c *fiber.Ctx) error {
	var input services.UpdateInvestorInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	investor, err := h.investorService.Update(c.UserContext(), c.Params("id"), &input)
	if err != nil {
		if errors.Is(err, services.ErrInvestorNotFound) {
			return response.NotFound(c, "Investor not found")
		}
		return response.InternalServerError(c, "Failed to update investor")
	}

	return response.Success(c, "Investor updated successfully", investor)
}

// Delete removes an investor
// @Summary Delete investor
// @Tags Investors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Investor id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /investors/{id} [delete]
func (h *InvestorHandler) Delete(c *fiber.Ctx) error {
	if err := h.investorService.Delete(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrInvestorNotFound) {
			return response.NotFound(c, "Investor not found")
		}
		return response.InternalServerError(c, "Failed to delete investor")
	}

	return response.Success(c, "Investor deleted successfully", nil)
}
