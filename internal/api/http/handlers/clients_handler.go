package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/api/dto"
	"github.com/spec-kit/promoter-service/internal/auth"
	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/repository"
	"github.com/spec-kit/promoter-service/internal/service"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// ClientsHandler manages the promoter's relationship base.
type ClientsHandler struct {
	service *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{service: clientService}
}

// CreateClient POST /clients.
func (h *ClientsHandler) CreateClient(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	client, err := h.service.CreateClient(c.Context(), principal.User.ID, service.ClientCreateInput{
		Name:        req.Name,
		Nickname:    req.Nickname,
		WhatsApp:    req.WhatsApp,
		Instagram:   req.Instagram,
		Followers:   req.Followers,
		Gender:      req.Gender,
		MusicGenres: req.MusicGenres,
		PartyType:   req.PartyType,
		SpendBand:   req.SpendBand,
		Tier:        req.Tier,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": clientResponse(client)})
}

// ListClients GET /clients.
func (h *ClientsHandler) ListClients(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	filter := parseClientQuery(c)
	clients, err := h.service.ListClients(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, clientResponse(&clients[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetClient GET /clients/:id.
func (h *ClientsHandler) GetClient(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	clientID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	client, err := h.service.GetClient(c.Context(), principal.User.ID, clientID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// UpdateClient PUT /clients/:id.
func (h *ClientsHandler) UpdateClient(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	clientID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.UpdateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	client, err := h.service.UpdateClient(c.Context(), principal.User.ID, clientID, service.ClientUpdateInput{
		Name:        req.Name,
		Nickname:    req.Nickname,
		WhatsApp:    req.WhatsApp,
		Instagram:   req.Instagram,
		Followers:   req.Followers,
		Gender:      req.Gender,
		MusicGenres: req.MusicGenres,
		PartyType:   req.PartyType,
		SpendBand:   req.SpendBand,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// SetTier PUT /clients/:id/tier.
func (h *ClientsHandler) SetTier(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	clientID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.SetTierRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.SetTier(c.Context(), principal.User.ID, clientID, req.Tier); err != nil {
		return err
	}
	client, err := h.service.GetClient(c.Context(), principal.User.ID, clientID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// History GET /clients/:id/history.
func (h *ClientsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	clientID, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	records, err := h.service.InteractionHistory(c.Context(), principal.User.ID, clientID)
	if err != nil {
		return err
	}
	items := make([]dto.InteractionResponse, 0, len(records))
	for _, record := range records {
		item := dto.InteractionResponse{
			EntryID:    record.Entry.ID,
			EventName:  record.EventName,
			EventDate:  record.EventDate,
			Attendance: record.Entry.Attendance,
			Completion: record.Entry.Completion,
		}
		if record.Entry.Evaluation != nil {
			item.Rating = record.Entry.Evaluation.Rating
			item.Feedback = record.Entry.Evaluation.Feedback
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseClientQuery(c *fiber.Ctx) repository.ClientFilter {
	filter := repository.ClientFilter{}
	if tierStr := c.Query("tier"); tierStr != "" {
		for _, part := range strings.Split(tierStr, ",") {
			filter.Tiers = append(filter.Tiers, domain.ClientTier(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parsePositiveInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseID(val string) (int64, error) {
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": val})
	}
	return id, nil
}

func clientResponse(client *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:          client.ID,
		Name:        client.Name,
		Nickname:    client.Nickname,
		WhatsApp:    client.WhatsApp,
		Instagram:   client.Instagram,
		Followers:   client.Followers,
		Gender:      client.Gender,
		MusicGenres: client.MusicGenres,
		PartyType:   client.PartyType,
		SpendBand:   client.SpendBand,
		Tier:        client.Tier,
		IsRecurrent: client.IsRecurrent,
		CreatedAt:   client.CreatedAt,
		UpdatedAt:   client.UpdatedAt,
	}
}
