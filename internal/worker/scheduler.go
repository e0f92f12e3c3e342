package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/config"
)

// Scheduler enqueues delayed tasks through asynq. It satisfies the event
// service's ReminderScheduler interface.
type Scheduler struct {
	client *asynq.Client
	delay  time.Duration
	logger *zap.Logger
}

// NewScheduler builds a scheduler backed by the shared Redis instance.
func NewScheduler(cfg config.RedisConfig, delay time.Duration, logger *zap.Logger) *Scheduler {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Scheduler{client: client, delay: delay, logger: logger}
}

// ScheduleEvaluationReminder enqueues the reminder to fire after the
// configured delay.
func (s *Scheduler) ScheduleEvaluationReminder(ctx context.Context, eventID int64) error {
	task, err := NewEvaluationReminderTask(eventID)
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task, asynq.ProcessIn(s.delay), asynq.MaxRetry(3))
	if err != nil {
		return err
	}
	s.logger.Info("evaluation reminder scheduled",
		zap.Int64("event_id", eventID),
		zap.String("task_id", info.ID),
		zap.Duration("delay", s.delay),
	)
	return nil
}

// Close releases the underlying client.
func (s *Scheduler) Close() error {
	return s.client.Close()
}
