package dto

import (
	"time"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// AddGuestRequest payload.
type AddGuestRequest struct {
	ClientID int64   `json:"client_id"`
	Notes    *string `json:"notes"`
}

// AttendanceRequest payload for the check-in flow.
type AttendanceRequest struct {
	Attended bool `json:"attended"`
}

// GuestEntryResponse is one guest-ledger row, with the joined client when
// the query loaded it. Negative ids mark synthesized entries that have not
// been persisted yet.
type GuestEntryResponse struct {
	ID          int64                   `json:"id"`
	EventID     int64                   `json:"event_id"`
	ClientID    int64                   `json:"client_id"`
	Attendance  domain.AttendanceStatus `json:"attendance"`
	CheckInTime *time.Time              `json:"check_in_time,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
	Completion  domain.Completion       `json:"completion"`
	Synthetic   bool                    `json:"synthetic"`
	Client      *ClientResponse         `json:"client,omitempty"`
}
