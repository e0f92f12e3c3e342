package dto

import (
	"time"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// RegisterRequest payload for new promoters.
type RegisterRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	WhatsApp  *string `json:"whatsapp"`
	Instagram *string `json:"instagram"`
	City      *string `json:"city"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileResponse is the resolved identity attached to auth responses.
type ProfileResponse struct {
	UserID              string       `json:"user_id"`
	Role                domain.Role  `json:"role"`
	Level               domain.Level `json:"level"`
	WhatsApp            *string      `json:"whatsapp,omitempty"`
	Instagram           *string      `json:"instagram,omitempty"`
	City                *string      `json:"city,omitempty"`
	Active              bool         `json:"active"`
	OnboardingCompleted bool         `json:"onboarding_completed"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm payload.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
