package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/events"
	"github.com/spec-kit/promoter-service/internal/repository"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// ReminderScheduler enqueues delayed evaluation reminders. The asynq-backed
// implementation lives in the worker package; a nil scheduler disables
// reminders.
type ReminderScheduler interface {
	ScheduleEvaluationReminder(ctx context.Context, eventID int64) error
}

// EventService manages the shared event registry. Promoters read it; writes
// come only from admin flows.
type EventService struct {
	eventsRepo repository.EventRepository
	dispatcher events.Dispatcher
	reminders  ReminderScheduler
	logger     *zap.Logger
}

// EventDependencies bundles requirements for the event service.
type EventDependencies struct {
	EventRepo  repository.EventRepository
	Dispatcher events.Dispatcher
	Reminders  ReminderScheduler
	Logger     *zap.Logger
}

// EventCreateInput describes an admin event registration.
type EventCreateInput struct {
	Name                string
	Date                time.Time
	CommissionPerTicket float64
}

// NewEventService constructs the service.
func NewEventService(deps EventDependencies) *EventService {
	return &EventService{
		eventsRepo: deps.EventRepo,
		dispatcher: deps.Dispatcher,
		reminders:  deps.Reminders,
		logger:     deps.Logger,
	}
}

// CreateEvent registers an upcoming event.
func (s *EventService) CreateEvent(ctx context.Context, input EventCreateInput) (*domain.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if input.CommissionPerTicket < 0 {
		return nil, apperrors.NewValidationError("commission cannot be negative", nil)
	}

	event := &domain.Event{
		Name:                name,
		Date:                input.Date,
		CommissionPerTicket: input.CommissionPerTicket,
		Status:              domain.EventStatusUpcoming,
	}
	if err := s.eventsRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent rewrites the event's details. Status is untouched; it only
// moves through the lifecycle transitions.
func (s *EventService) UpdateEvent(ctx context.Context, id int64, input EventCreateInput) (*domain.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if input.CommissionPerTicket < 0 {
		return nil, apperrors.NewValidationError("commission cannot be negative", nil)
	}

	event.Name = name
	event.Date = input.Date
	event.CommissionPerTicket = input.CommissionPerTicket
	if err := s.eventsRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetEvent loads a single event.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	event, err := s.eventsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": id})
		}
		return nil, err
	}
	return event, nil
}

// ListUpcoming returns active and upcoming events, soonest first.
func (s *EventService) ListUpcoming(ctx context.Context) ([]domain.Event, error) {
	return s.eventsRepo.List(ctx, repository.EventFilter{
		Statuses:  []domain.EventStatus{domain.EventStatusActive, domain.EventStatusUpcoming},
		Ascending: true,
	})
}

// ListRecentClosed returns the most recently closed events, bounded for the
// post-event panel.
func (s *EventService) ListRecentClosed(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 3
	}
	return s.eventsRepo.List(ctx, repository.EventFilter{
		Statuses: []domain.EventStatus{domain.EventStatusClosed},
		Limit:    limit,
	})
}

// Activate opens ticket sales for an upcoming event.
func (s *EventService) Activate(ctx context.Context, id int64) (*domain.Event, error) {
	return s.transition(ctx, id, domain.EventStatusActive, false)
}

// Close ends the event and schedules the evaluation reminder.
func (s *EventService) Close(ctx context.Context, id int64) (*domain.Event, error) {
	event, err := s.transition(ctx, id, domain.EventStatusClosed, false)
	if err != nil {
		return nil, err
	}
	if s.reminders != nil {
		if err := s.reminders.ScheduleEvaluationReminder(ctx, id); err != nil {
			s.logger.Warn("could not schedule evaluation reminder",
				zap.Int64("event_id", id), zap.Error(err))
		}
	}
	return event, nil
}

// Reactivate is the admin escape hatch that reopens a closed event. It is
// the single exception to the monotonic lifecycle and is logged whenever
// used.
func (s *EventService) Reactivate(ctx context.Context, id int64) (*domain.Event, error) {
	event, err := s.transition(ctx, id, domain.EventStatusActive, true)
	if err != nil {
		return nil, err
	}
	s.logger.Warn("event reactivated", zap.Int64("event_id", id))
	return event, nil
}

func (s *EventService) transition(ctx context.Context, id int64, next domain.EventStatus, force bool) (*domain.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status == next {
		return event, nil
	}
	if !force && !event.CanTransition(next) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": event.Status,
			"to":   next,
		})
	}
	if err := s.eventsRepo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}

	old := event.Status
	event.Status = next
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type: events.EventEventStatusChanged,
			Payload: events.EventStatusChangedPayload{
				EventID:   id,
				OldStatus: old,
				NewStatus: next,
			},
		})
	}
	return event, nil
}
