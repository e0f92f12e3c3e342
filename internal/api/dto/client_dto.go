package dto

import (
	"time"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// CreateClientRequest payload.
type CreateClientRequest struct {
	Name        string            `json:"name"`
	Nickname    *string           `json:"nickname"`
	WhatsApp    string            `json:"whatsapp"`
	Instagram   *string           `json:"instagram"`
	Followers   int               `json:"followers"`
	Gender      *string           `json:"gender"`
	MusicGenres []string          `json:"music_genres"`
	PartyType   domain.PartyType  `json:"party_type"`
	SpendBand   domain.SpendBand  `json:"spend_band"`
	Tier        domain.ClientTier `json:"tier"`
}

// UpdateClientRequest payload. Tier changes go through their own endpoint.
type UpdateClientRequest struct {
	Name        string           `json:"name"`
	Nickname    *string          `json:"nickname"`
	WhatsApp    string           `json:"whatsapp"`
	Instagram   *string          `json:"instagram"`
	Followers   int              `json:"followers"`
	Gender      *string          `json:"gender"`
	MusicGenres []string         `json:"music_genres"`
	PartyType   domain.PartyType `json:"party_type"`
	SpendBand   domain.SpendBand `json:"spend_band"`
}

// SetTierRequest payload.
type SetTierRequest struct {
	Tier domain.ClientTier `json:"tier"`
}

// ClientResponse is the roster record returned to the promoter.
type ClientResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Nickname    *string           `json:"nickname,omitempty"`
	WhatsApp    string            `json:"whatsapp"`
	Instagram   *string           `json:"instagram,omitempty"`
	Followers   int               `json:"followers"`
	Gender      *string           `json:"gender,omitempty"`
	MusicGenres []string          `json:"music_genres"`
	PartyType   domain.PartyType  `json:"party_type"`
	SpendBand   domain.SpendBand  `json:"spend_band"`
	Tier        domain.ClientTier `json:"tier"`
	IsRecurrent bool              `json:"is_recurrent"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// InteractionResponse is one entry of the client's event timeline.
type InteractionResponse struct {
	EntryID    int64                   `json:"entry_id"`
	EventName  string                  `json:"event_name"`
	EventDate  time.Time               `json:"event_date"`
	Attendance domain.AttendanceStatus `json:"attendance"`
	Completion domain.Completion       `json:"completion"`
	Rating     *int                    `json:"rating,omitempty"`
	Feedback   *string                 `json:"feedback,omitempty"`
}
