package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the account record behind a promoter, coordinator or admin.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role distinguishes the three dashboard variants.
type Role string

const (
	RolePromoter    Role = "PROMOTER"
	RoleCoordinator Role = "COORDINATOR"
	RoleAdmin       Role = "ADMIN"
)

// Level is the promoter progression track shown on the dashboard.
type Level string

const (
	LevelBeginner     Level = "BEGINNER"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelAdvanced     Level = "ADVANCED"
	LevelCoordinator  Level = "COORDINATOR"
)

// Profile carries application-level data layered on top of a User.
// Profile storage may be missing entirely on legacy deployments; resolvers
// fall back to DefaultProfile instead of failing login.
type Profile struct {
	UserID              string
	Role                Role
	Level               Level
	WhatsApp            *string
	Instagram           *string
	City                *string
	Active              bool
	OnboardingCompleted bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DefaultProfile is the minimal profile applied when profile storage is
// unreachable or the row is absent. Legacy accounts are assumed to have
// completed onboarding.
func DefaultProfile(userID string) *Profile {
	return &Profile{
		UserID:              userID,
		Role:                RolePromoter,
		Level:               LevelBeginner,
		Active:              true,
		OnboardingCompleted: true,
	}
}
