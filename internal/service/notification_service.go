package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/config"
	"github.com/spec-kit/promoter-service/internal/events"
)

// NotificationService reacts to domain events with outbound notifications.
// Delivery is a logging stub until real email/webhook providers are wired;
// the subscription surface is the part that matters.
type NotificationService struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{cfg: cfg, logger: logger}
}

// Register subscribes the notification handlers.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventSaleRecorded, s.onSaleRecorded)
	dispatcher.Subscribe(events.EventEvaluationSubmitted, s.onEvaluationSubmitted)
	dispatcher.Subscribe(events.EventEventStatusChanged, s.onEventStatusChanged)
}

func (s *NotificationService) onSaleRecorded(_ context.Context, event events.Event) error {
	s.logger.Info("notify: sale recorded",
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload),
		zap.String("email_from", s.cfg.EmailFrom),
	)
	return nil
}

func (s *NotificationService) onEvaluationSubmitted(_ context.Context, event events.Event) error {
	s.logger.Info("notify: evaluation submitted",
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload),
	)
	return nil
}

func (s *NotificationService) onEventStatusChanged(_ context.Context, event events.Event) error {
	if s.cfg.WebhookURL == "" {
		return nil
	}
	s.logger.Info("notify: event status changed",
		zap.String("webhook_url", s.cfg.WebhookURL),
		zap.Any("payload", event.Payload),
	)
	return nil
}
