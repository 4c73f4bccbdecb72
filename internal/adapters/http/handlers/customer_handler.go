package handlers

import (
	"errors"

	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/pagination"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	customerService *services.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create registers a customer
// @Summary Create customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CustomerInput true "Customer data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 408 {object} response.Response
// @Router /customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var input services.CustomerInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.Name == "" {
		return response.BadRequest(c, "Name is required")
	}
	if input.AgentID == "" {
		// Agents create customers under themselves
		session := sessionUser(c)
		if session == nil {
			return response.BadRequest(c, "Agent id is required")
		}
		input.AgentID = session.UID
	}

	customer, err := h.customerService.Create(c.UserContext(), &input)
	if err != nil {
		if errors.Is(err, services.ErrUploadTimeout) {
			return response.RequestTimeout(c, "Image upload timed out, please try again")
		}
		return response.InternalServerError(c, "Failed to create customer")
	}

	return response.Created(c, "Customer created successfully", customer)
}

// List returns customers: all of them for admins, own book for agents
// @Summary List customers
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	if !isAdmin(c) {
		session := sessionUser(c)
		if session == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		customers, err := h.customerService.GetByAgentID(c.UserContext(), session.UID)
		if err != nil {
			return response.InternalServerError(c, "Failed to list customers")
		}
		return response.Success(c, "Customers retrieved successfully", customers)
	}

	params := pagination.GetParams(c)
	customers, total, err := h.customerService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list customers")
	}

	return response.Success(c, "Customers retrieved successfully", pagination.NewResponse(customers, params, total))
}

// Get returns one customer with decrypted KYC images
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /customers/{id} [get]
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	customer, err := h.customerService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			return response.NotFound(c, "Customer not found")
		}
		return response.InternalServerError(c, "Failed to get customer")
	}

	if !isAdmin(c) {
		session := sessionUser(c)
		if session == nil || customer.AgentID != session.UID {
			return response.Forbidden(c, "Customer is not assigned to you")
		}
	}

	return response.Success(c, "Customer retrieved successfully", customer)
}

// Update applies a partial customer update
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Param body body services.UpdateCustomerInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 408 {object} response.Response
// @Router /customers/{id} [patch]
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	var input services.UpdateCustomerInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	customer, err := h.customerService.Update(c.UserContext(), c.Params("id"), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCustomerNotFound):
			return response.NotFound(c, "Customer not found")
		case errors.Is(err, services.ErrUploadTimeout):
			return response.RequestTimeout(c, "Image upload timed out, please try again")
		default:
			return response.InternalServerError(c, "Failed to update customer")
		}
	}

	return response.Success(c, "Customer updated successfully", customer)
}

// Reassign moves a customer to another agent
// @Summary Reassign customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /customers/{id}/reassign [post]
func (h *CustomerHandler) Reassign(c *fiber.Ctx) error {
	var req struct {
		AgentID string `json:"agentId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AgentID == "" {
		return response.BadRequest(c, "Agent id is required")
	}

	if err := h.customerService.Reassign(c.UserContext(), c.Params("id"), req.AgentID); err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			return response.NotFound(c, "Customer not found")
		}
		return response.InternalServerError(c, "Failed to reassign customer")
	}

	return response.Success(c, "Customer reassigned successfully", nil)
}

// Delete removes a customer
// @Summary Delete customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	if err := h.customerService.Delete(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			return response.NotFound(c, "Customer not found")
		}
		return response.InternalServerError(c, "Failed to delete customer")
	}

	return response.Success(c, "Customer deleted successfully", nil)
}
