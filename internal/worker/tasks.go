package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TypeEvaluationReminder nudges promoters who still have open evaluations
// some time after an event closes.
const TypeEvaluationReminder = "evaluation:remind"

// EvaluationReminderPayload identifies the closed event to remind about.
type EvaluationReminderPayload struct {
	EventID int64 `json:"event_id"`
}

// NewEvaluationReminderTask builds the reminder task for an event.
func NewEvaluationReminderTask(eventID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(EvaluationReminderPayload{EventID: eventID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEvaluationReminder, payload), nil
}
