package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/config"
	"github.com/spec-kit/promoter-service/internal/repository"
)

// Server consumes background tasks. Only the evaluation reminder is handled
// today.
type Server struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// ServerDependencies bundles what the task handlers need.
type ServerDependencies struct {
	GuestRepo repository.GuestRepository
	EventRepo repository.EventRepository
	Logger    *zap.Logger
}

// NewServer builds the asynq consumer.
func NewServer(redisCfg config.RedisConfig, workerCfg config.WorkerConfig, deps ServerDependencies) *Server {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		asynq.Config{
			Concurrency: workerCfg.Concurrency,
		},
	)

	handler := &reminderHandler{
		guests: deps.GuestRepo,
		events: deps.EventRepo,
		logger: deps.Logger,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEvaluationReminder, handler.handleEvaluationReminder)

	return &Server{srv: srv, mux: mux, logger: deps.Logger}
}

// Start runs the consumer in the background.
func (s *Server) Start() error {
	s.logger.Info("background worker starting")
	return s.srv.Start(s.mux)
}

// Shutdown stops the consumer, waiting for in-flight tasks.
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

type reminderHandler struct {
	guests repository.GuestRepository
	events repository.EventRepository
	logger *zap.Logger
}

// handleEvaluationReminder notifies every promoter that still has open
// evaluations for the event. An event with nothing pending completes
// silently.
func (h *reminderHandler) handleEvaluationReminder(ctx context.Context, task *asynq.Task) error {
	var payload EvaluationReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal reminder payload: %w", err)
	}

	event, err := h.events.GetByID(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("load event %d: %w", payload.EventID, err)
	}

	owners, err := h.guests.PendingOwnerIDs(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("list pending owners: %w", err)
	}
	for _, ownerID := range owners {
		h.logger.Info("evaluation reminder",
			zap.String("owner_id", ownerID),
			zap.Int64("event_id", event.ID),
			zap.String("event_name", event.Name),
		)
	}
	return nil
}
