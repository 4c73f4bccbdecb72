package handlers

import (
	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles the console overview endpoint
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Stats returns the console overview
// @Summary Dashboard stats
// @Description Portfolio totals, headcounts and recent movement
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GetStats(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute dashboard stats")
	}

	return response.Success(c, "Dashboard stats retrieved successfully", stats)
}
