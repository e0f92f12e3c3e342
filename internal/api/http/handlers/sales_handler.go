package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/api/dto"
	"github.com/spec-kit/promoter-service/internal/auth"
	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/service"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// SalesHandler exposes the promoter's sales ledger.
type SalesHandler struct {
	service *service.SaleService
}

// NewSalesHandler constructs handler.
func NewSalesHandler(saleService *service.SaleService) *SalesHandler {
	return &SalesHandler{service: saleService}
}

// RecordSale POST /sales.
func (h *SalesHandler) RecordSale(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sale, err := h.service.RecordSale(c.Context(), principal.User.ID, req.EventID, req.Quantity)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": saleResponse(sale)})
}

// ListSales GET /sales.
func (h *SalesHandler) ListSales(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	limit := parsePositiveInt(c.Query("limit"), 20)
	sales, err := h.service.ListSales(c.Context(), principal.User.ID, limit)
	if err != nil {
		return err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, saleResponse(&sales[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Totals GET /sales/totals.
func (h *SalesHandler) Totals(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	totals, err := h.service.Totals(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SaleTotalsResponse{
		Tickets:    totals.Tickets,
		Commission: totals.Commission,
	}})
}

func saleResponse(sale *domain.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:               sale.ID,
		EventID:          sale.EventID,
		Quantity:         sale.Quantity,
		CommissionAmount: sale.CommissionAmount,
		CreatedAt:        sale.CreatedAt,
	}
}
