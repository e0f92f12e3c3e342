package domain

import "time"

// EventStatus enumerates the event lifecycle. Transitions are monotonic
// (upcoming -> active -> closed); Reactivate is the admin-only exception.
type EventStatus string

const (
	EventStatusUpcoming EventStatus = "UPCOMING"
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusClosed   EventStatus = "CLOSED"
)

// Event is a party the promoters sell tickets for. Events are shared across
// all promoters and writable only by admins.
type Event struct {
	ID                  int64
	Name                string
	Date                time.Time
	CommissionPerTicket float64
	Status              EventStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CanTransition reports whether moving from the current status to next
// follows the monotonic lifecycle.
func (e *Event) CanTransition(next EventStatus) bool {
	switch e.Status {
	case EventStatusUpcoming:
		return next == EventStatusActive || next == EventStatusClosed
	case EventStatusActive:
		return next == EventStatusClosed
	default:
		return false
	}
}
