package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/api/dto"
	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/service"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// EventsHandler exposes the shared event registry. Reads are open to every
// role; lifecycle writes are wired behind the admin group in the router.
type EventsHandler struct {
	service *service.EventService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(eventService *service.EventService) *EventsHandler {
	return &EventsHandler{service: eventService}
}

// ListUpcoming GET /events.
func (h *EventsHandler) ListUpcoming(c *fiber.Ctx) error {
	events, err := h.service.ListUpcoming(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(events)})
}

// ListRecentClosed GET /events/closed.
func (h *EventsHandler) ListRecentClosed(c *fiber.Ctx) error {
	limit := parsePositiveInt(c.Query("limit"), 3)
	events, err := h.service.ListRecentClosed(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(events)})
}

// GetEvent GET /events/:id.
func (h *EventsHandler) GetEvent(c *fiber.Ctx) error {
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	event, err := h.service.GetEvent(c.Context(), eventID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// CreateEvent POST /admin/events.
func (h *EventsHandler) CreateEvent(c *fiber.Ctx) error {
	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	event, err := h.service.CreateEvent(c.Context(), service.EventCreateInput{
		Name:                req.Name,
		Date:                req.Date,
		CommissionPerTicket: req.CommissionPerTicket,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": eventResponse(event)})
}

// UpdateEvent PUT /admin/events/:id.
func (h *EventsHandler) UpdateEvent(c *fiber.Ctx) error {
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	event, err := h.service.UpdateEvent(c.Context(), eventID, service.EventCreateInput{
		Name:                req.Name,
		Date:                req.Date,
		CommissionPerTicket: req.CommissionPerTicket,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// Activate POST /admin/events/:id/activate.
func (h *EventsHandler) Activate(c *fiber.Ctx) error {
	return h.lifecycle(c, h.service.Activate)
}

// Close POST /admin/events/:id/close.
func (h *EventsHandler) Close(c *fiber.Ctx) error {
	return h.lifecycle(c, h.service.Close)
}

// Reactivate POST /admin/events/:id/reactivate.
func (h *EventsHandler) Reactivate(c *fiber.Ctx) error {
	return h.lifecycle(c, h.service.Reactivate)
}

func (h *EventsHandler) lifecycle(c *fiber.Ctx, op func(ctx context.Context, id int64) (*domain.Event, error)) error {
	eventID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	event, err := op(c.Context(), eventID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

func eventResponse(event *domain.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:                  event.ID,
		Name:                event.Name,
		Date:                event.Date,
		CommissionPerTicket: event.CommissionPerTicket,
		Status:              event.Status,
		CreatedAt:           event.CreatedAt,
		UpdatedAt:           event.UpdatedAt,
	}
}

func eventResponses(events []domain.Event) []dto.EventResponse {
	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, eventResponse(&events[i]))
	}
	return items
}
