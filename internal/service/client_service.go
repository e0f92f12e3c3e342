package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/events"
	"github.com/spec-kit/promoter-service/internal/repository"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// ClientService manages the promoter's relationship base.
type ClientService struct {
	clients    repository.ClientRepository
	guests     repository.GuestRepository
	dispatcher events.Dispatcher
}

// ClientDependencies bundles repositories for the client service.
type ClientDependencies struct {
	ClientRepo repository.ClientRepository
	GuestRepo  repository.GuestRepository
	Dispatcher events.Dispatcher
}

// ClientCreateInput describes a client registration.
type ClientCreateInput struct {
	Name        string
	Nickname    *string
	WhatsApp    string
	Instagram   *string
	Followers   int
	Gender      *string
	MusicGenres []string
	PartyType   domain.PartyType
	SpendBand   domain.SpendBand
	Tier        domain.ClientTier
}

// NewClientService constructs the service.
func NewClientService(deps ClientDependencies) *ClientService {
	return &ClientService{
		clients:    deps.ClientRepo,
		guests:     deps.GuestRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateClient registers a client in the promoter's base. is_recurrent is
// derived from the tier, never accepted from the caller.
func (s *ClientService) CreateClient(ctx context.Context, ownerID string, input ClientCreateInput) (*domain.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if strings.TrimSpace(input.WhatsApp) == "" {
		return nil, apperrors.NewValidationError("whatsapp required", nil)
	}
	tier := input.Tier
	if tier == "" {
		tier = domain.TierCold
	}
	if !tier.IsValid() {
		return nil, apperrors.NewValidationError("invalid tier", map[string]any{"tier": input.Tier})
	}

	client := &domain.Client{
		OwnerID:     ownerID,
		Name:        name,
		Nickname:    input.Nickname,
		WhatsApp:    strings.TrimSpace(input.WhatsApp),
		Instagram:   input.Instagram,
		Followers:   input.Followers,
		Gender:      input.Gender,
		MusicGenres: input.MusicGenres,
		PartyType:   input.PartyType,
		SpendBand:   input.SpendBand,
		Tier:        tier,
		IsRecurrent: tier.Recurrent(),
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:   events.EventClientRegistered,
		UserID: ownerID,
		Payload: events.ClientRegisteredPayload{
			ClientID: client.ID,
			Tier:     client.Tier,
		},
	})
	return client, nil
}

// GetClient loads a client owned by the promoter.
func (s *ClientService) GetClient(ctx context.Context, ownerID string, clientID int64) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("client", map[string]any{"client_id": clientID})
		}
		return nil, err
	}
	if client.OwnerID != ownerID {
		return nil, apperrors.NewNotFound("client", map[string]any{"client_id": clientID})
	}
	return client, nil
}

// ClientUpdateInput carries the editable contact and consumption fields.
// Tier is excluded on purpose; it only moves through SetTier.
type ClientUpdateInput struct {
	Name        string
	Nickname    *string
	WhatsApp    string
	Instagram   *string
	Followers   int
	Gender      *string
	MusicGenres []string
	PartyType   domain.PartyType
	SpendBand   domain.SpendBand
}

// UpdateClient rewrites the client's editable fields.
func (s *ClientService) UpdateClient(ctx context.Context, ownerID string, clientID int64, input ClientUpdateInput) (*domain.Client, error) {
	client, err := s.GetClient(ctx, ownerID, clientID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if strings.TrimSpace(input.WhatsApp) == "" {
		return nil, apperrors.NewValidationError("whatsapp required", nil)
	}

	client.Name = name
	client.Nickname = input.Nickname
	client.WhatsApp = strings.TrimSpace(input.WhatsApp)
	client.Instagram = input.Instagram
	client.Followers = input.Followers
	client.Gender = input.Gender
	client.MusicGenres = input.MusicGenres
	client.PartyType = input.PartyType
	client.SpendBand = input.SpendBand
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// ListClients returns the promoter's base.
func (s *ClientService) ListClients(ctx context.Context, ownerID string, filter repository.ClientFilter) ([]domain.Client, error) {
	return s.clients.ListByOwner(ctx, ownerID, filter)
}

// SetTier stores a new strategic tier for the client, always recomputing
// is_recurrent so the derived flag can never drift from the tier.
func (s *ClientService) SetTier(ctx context.Context, ownerID string, clientID int64, tier domain.ClientTier) error {
	if !tier.IsValid() {
		return apperrors.NewValidationError("invalid tier", map[string]any{"tier": tier})
	}
	client, err := s.GetClient(ctx, ownerID, clientID)
	if err != nil {
		return err
	}
	if client.Tier == tier {
		return nil
	}
	if err := s.clients.SetTier(ctx, clientID, tier, tier.Recurrent()); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:   events.EventClientTierChanged,
		UserID: ownerID,
		Payload: events.ClientTierChangedPayload{
			ClientID: clientID,
			OldTier:  client.Tier,
			NewTier:  tier,
		},
	})
	return nil
}

// InteractionHistory returns the client's guest ledger timeline, newest
// first.
func (s *ClientService) InteractionHistory(ctx context.Context, ownerID string, clientID int64) ([]repository.InteractionRecord, error) {
	if _, err := s.GetClient(ctx, ownerID, clientID); err != nil {
		return nil, err
	}
	return s.guests.ListByClient(ctx, clientID)
}

func (s *ClientService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
