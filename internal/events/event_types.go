package events

import (
	"time"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventClientRegistered    EventType = "client_registered"
	EventClientTierChanged   EventType = "client_tier_changed"
	EventSaleRecorded        EventType = "sale_recorded"
	EventEvaluationSubmitted EventType = "evaluation_submitted"
	EventEventStatusChanged  EventType = "event_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ClientRegisteredPayload payload.
type ClientRegisteredPayload struct {
	ClientID int64             `json:"client_id"`
	Tier     domain.ClientTier `json:"tier"`
}

// ClientTierChangedPayload payload.
type ClientTierChangedPayload struct {
	ClientID int64             `json:"client_id"`
	OldTier  domain.ClientTier `json:"old_tier"`
	NewTier  domain.ClientTier `json:"new_tier"`
}

// SaleRecordedPayload payload.
type SaleRecordedPayload struct {
	SaleID     int64   `json:"sale_id"`
	EventID    int64   `json:"event_id"`
	Quantity   int     `json:"quantity"`
	Commission float64 `json:"commission"`
}

// EvaluationSubmittedPayload payload.
type EvaluationSubmittedPayload struct {
	EntryID  int64 `json:"entry_id"`
	EventID  int64 `json:"event_id"`
	ClientID int64 `json:"client_id"`
	Attended bool  `json:"attended"`
}

// EventStatusChangedPayload payload.
type EventStatusChangedPayload struct {
	EventID   int64              `json:"event_id"`
	OldStatus domain.EventStatus `json:"old_status"`
	NewStatus domain.EventStatus `json:"new_status"`
}
