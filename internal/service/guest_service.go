package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/repository"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// GuestService manages the per-event guest ledger: who was invited, who
// showed up.
type GuestService struct {
	guests  repository.GuestRepository
	clients repository.ClientRepository
	events  repository.EventRepository
}

// GuestDependencies bundles repositories for the guest service.
type GuestDependencies struct {
	GuestRepo  repository.GuestRepository
	ClientRepo repository.ClientRepository
	EventRepo  repository.EventRepository
}

// NewGuestService constructs the service.
func NewGuestService(deps GuestDependencies) *GuestService {
	return &GuestService{
		guests:  deps.GuestRepo,
		clients: deps.ClientRepo,
		events:  deps.EventRepo,
	}
}

// AddToGuestList creates the (event, client) ledger entry. A duplicate key
// means the pair is already listed, possibly materialized by another path;
// that is non-fatal and the stored entry is returned.
func (s *GuestService) AddToGuestList(ctx context.Context, ownerID string, eventID, clientID int64, notes *string) (*domain.GuestEntry, error) {
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
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, err
	}

	entry := &domain.GuestEntry{
		EventID:    eventID,
		ClientID:   clientID,
		OwnerID:    ownerID,
		Attendance: domain.AttendanceConfirmed,
		Completion: domain.CompletionPending,
		Notes:      notes,
	}
	if err := s.guests.Insert(ctx, entry); err != nil {
		if isPgCode(err, pgCodeUniqueViolation) {
			return s.guests.GetByEventClient(ctx, eventID, clientID)
		}
		return nil, err
	}
	entry.Client = client
	return entry, nil
}

// ListGuests returns the promoter's guest list for an event.
func (s *GuestService) ListGuests(ctx context.Context, ownerID string, eventID int64) ([]domain.GuestEntry, error) {
	return s.guests.ListByEvent(ctx, eventID, ownerID)
}

// RecordAttendance resolves the entry to checked-in or no-show. It does not
// close the evaluation.
func (s *GuestService) RecordAttendance(ctx context.Context, ownerID string, entryID int64, attended bool) (*domain.GuestEntry, error) {
	entry, err := s.guests.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("guest entry", map[string]any{"entry_id": entryID})
		}
		return nil, err
	}
	if entry.OwnerID != ownerID {
		return nil, apperrors.NewNotFound("guest entry", map[string]any{"entry_id": entryID})
	}

	status := domain.AttendanceNoShow
	var checkInTime *time.Time
	if attended {
		status = domain.AttendanceCheckedIn
		now := time.Now()
		checkInTime = &now
	}
	if err := s.guests.SetAttendance(ctx, entryID, status, checkInTime); err != nil {
		return nil, err
	}
	entry.Attendance = status
	entry.CheckInTime = checkInTime
	return entry, nil
}
