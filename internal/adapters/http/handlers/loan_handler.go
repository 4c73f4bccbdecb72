package handlers

import (
	"errors"

	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/pagination"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// Create issues a loan
// @Summary Create loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.LoanInput true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var input services.LoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.CustomerID == "" {
		return response.BadRequest(c, "Customer id is required")
	}
	if input.Amount <= 0 {
		return response.BadRequest(c, "Amount must be positive")
	}
	if input.AgentID == "" {
		session := sessionUser(c)
		if session == nil {
			return response.BadRequest(c, "Agent id is required")
		}
		input.AgentID = session.UID
	}

	loan, err := h.loanService.Create(c.UserContext(), &input)
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			return response.NotFound(c, "Customer not found")
		}
		return response.InternalServerError(c, "Failed to create loan")
	}

	return response.Created(c, "Loan created successfully", loan)
}

// List returns loans: paginated for admins, own book for agents
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	if !isAdmin(c) {
		session := sessionUser(c)
		if session == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		loans, err := h.loanService.GetByAgentID(c.UserContext(), session.UID)
		if err != nil {
			return response.InternalServerError(c, "Failed to list loans")
		}
		return response.Success(c, "Loans retrieved successfully", loans)
	}

	params := pagination.GetParams(c)
	loans, total, err := h.loanService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// Get returns one loan
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	loan, err := h.loanService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// GetByCustomer returns every loan of a customer
// @Summary List customer loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Success 200 {object} response.Response
// @Router /customers/{id}/loans [get]
func (h *LoanHandler) GetByCustomer(c *fiber.Ctx) error {
	loans, err := h.loanService.GetByCustomerID(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", loans)
}

// UpdateStatus moves a loan through its lifecycle
// @Summary Update loan status
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/status [patch]
func (h *LoanHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrInvalidLoanStatus):
			return response.BadRequest(c, "Invalid loan status")
		default:
			return response.InternalServerError(c, "Failed to update loan status")
		}
	}

	return response.Success(c, "Loan status updated successfully", loan)
}

// Delete removes a loan
// @Summary Delete loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [delete]
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	if err := h.loanService.Delete(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to delete loan")
	}

	return response.Success(c, "Loan deleted successfully", nil)
}
