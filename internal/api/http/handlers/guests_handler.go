package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/api/dto"
	"github.com/spec-kit/promoter-service/internal/auth"
	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/service"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// GuestsHandler manages the per-event guest ledger.
type GuestsHandler struct {
	service *service.GuestService
}

// NewGuestsHandler constructs handler.
func NewGuestsHandler(guestService *service.GuestService) *GuestsHandler {
	return &GuestsHandler{service: guestService}
}

// AddGuest POST /events/:id/guests.
func (h *GuestsHandler) AddGuest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.AddGuestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ClientID == 0 {
		return apperrors.NewValidationError("client_id required", nil)
	}
	entry, err := h.service.AddToGuestList(c.Context(), principal.User.ID, eventID, req.ClientID, req.Notes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": guestEntryResponse(entry)})
}

// ListGuests GET /events/:id/guests.
func (h *GuestsHandler) ListGuests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	entries, err := h.service.ListGuests(c.Context(), principal.User.ID, eventID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": guestEntryResponses(entries)})
}

// RecordAttendance POST /guests/:id/attendance.
func (h *GuestsHandler) RecordAttendance(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	entryID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.AttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.service.RecordAttendance(c.Context(), principal.User.ID, entryID, req.Attended)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": guestEntryResponse(entry)})
}

func guestEntryResponse(entry *domain.GuestEntry) dto.GuestEntryResponse {
	resp := dto.GuestEntryResponse{
		ID:          entry.ID,
		EventID:     entry.EventID,
		ClientID:    entry.ClientID,
		Attendance:  entry.Attendance,
		CheckInTime: entry.CheckInTime,
		Notes:       entry.Notes,
		Completion:  entry.Completion,
		Synthetic:   entry.Synthetic(),
	}
	if entry.Client != nil {
		client := clientResponse(entry.Client)
		resp.Client = &client
	}
	return resp
}

func guestEntryResponses(entries []domain.GuestEntry) []dto.GuestEntryResponse {
	items := make([]dto.GuestEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, guestEntryResponse(&entries[i]))
	}
	return items
}
