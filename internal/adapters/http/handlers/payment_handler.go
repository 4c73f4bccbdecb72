package handlers

import (
	"errors"
	"strconv"

	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Record registers a repayment
// @Summary Record payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.PaymentInput true "Payment data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments [post]
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	var input services.PaymentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.CustomerID == "" || input.LoanID == "" {
		return response.BadRequest(c, "Customer id and loan id are required")
	}
	if input.CollectedBy == "" {
		session := sessionUser(c)
		if session == nil {
			return response.BadRequest(c, "Collector is required")
		}
		input.CollectedBy = session.UID
	}

	payment, err := h.paymentService.Record(c.UserContext(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPaymentAmount):
			return response.BadRequest(c, "Payment amount must be positive")
		case errors.Is(err, services.ErrCustomerNotFound):
			return response.NotFound(c, "Customer not found")
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		default:
			return response.InternalServerError(c, "Failed to record payment")
		}
	}

	return response.Created(c, "Payment recorded successfully", payment)
}

// List returns payments: the full ledger for admins, own collections for
// agents
// @Summary List payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	if !isAdmin(c) {
		session := sessionUser(c)
		if session == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		payments, err := h.paymentService.GetByCollector(c.UserContext(), session.UID)
		if err != nil {
			return response.InternalServerError(c, "Failed to list payments")
		}
		return response.Success(c, "Payments retrieved successfully", payments)
	}

	payments, err := h.paymentService.GetAll(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// Recent returns the most recent ledger entries
// @Summary Recent payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Response
// @Router /payments/recent [get]
func (h *PaymentHandler) Recent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	payments, err := h.paymentService.GetRecent(c.UserContext(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// GetByCustomer returns a customer's payment history
// @Summary Customer payment history
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer id"
// @Success 200 {object} response.Response
// @Router /customers/{id}/payments [get]
func (h *PaymentHandler) GetByCustomer(c *fiber.Ctx) error {
	payments, err := h.paymentService.GetByCustomerID(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// Delete removes a ledger entry
// @Summary Delete payment
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	if err := h.paymentService.Delete(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to delete payment")
	}

	return response.Success(c, "Payment deleted successfully", nil)
}
