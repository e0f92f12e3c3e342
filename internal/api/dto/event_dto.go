package dto

import (
	"time"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// CreateEventRequest payload for admin event registration.
type CreateEventRequest struct {
	Name                string    `json:"name"`
	Date                time.Time `json:"date"`
	CommissionPerTicket float64   `json:"commission_per_ticket"`
}

// EventResponse is the shared registry view of an event.
type EventResponse struct {
	ID                  int64              `json:"id"`
	Name                string             `json:"name"`
	Date                time.Time          `json:"date"`
	CommissionPerTicket float64            `json:"commission_per_ticket"`
	Status              domain.EventStatus `json:"status"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
