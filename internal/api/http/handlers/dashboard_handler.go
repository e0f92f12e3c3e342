package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/auth"
	"github.com/spec-kit/promoter-service/internal/service"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// DashboardHandler serves the role-dispatched overview.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Overview GET /dashboard.
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil || principal.Profile == nil {
		return apperrors.NewUnauthorized("user required")
	}
	overview, err := h.service.Overview(c.Context(), principal.User.ID, principal.Role(), principal.Profile.Level)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}
