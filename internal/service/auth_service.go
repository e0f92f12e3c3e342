package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/auth"
	"github.com/spec-kit/promoter-service/internal/config"
	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/repository"
)

const (
	pgCodeUniqueViolation = "23505"
	pgCodeUndefinedTable  = "42P01"
)

// AuthService resolves authenticated sessions into application users and
// coordinates registration, login and password flows.
type AuthService struct {
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	ProfileRepo       repository.ProfileRepository
	PasswordResetRepo repository.PasswordResetRepository
	Logger            *zap.Logger
}

// RegisterInput describes a promoter signup.
type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	WhatsApp  *string
	Instagram *string
	City      *string
	Level     domain.Level
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		profiles:   deps.ProfileRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new promoter account. The profile insert is best
// effort: a missing table or a duplicate row (a trigger may have created it
// already) must not block the signup.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Profile, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, "", time.Time{}, errors.New("email already registered")
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, "", time.Time{}, err
	}

	level := input.Level
	if level == "" {
		level = domain.LevelBeginner
	}
	profile := &domain.Profile{
		UserID:              user.ID,
		Role:                domain.RolePromoter,
		Level:               level,
		WhatsApp:            input.WhatsApp,
		Instagram:           input.Instagram,
		City:                input.City,
		Active:              true,
		OnboardingCompleted: false,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if !isPgCode(err, pgCodeUniqueViolation) {
			s.logger.Warn("could not create profile record; continuing with defaults",
				zap.String("user_id", user.ID), zap.Error(err))
		}
		profile = s.ResolveProfile(ctx, user.ID)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, profile.Role)
	if err != nil {
		return nil, nil, "", time.Time{}, err
	}
	return user, profile, token, exp, nil
}

// Login authenticates an account and resolves its profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Profile, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, "", time.Time{}, errors.New("invalid credentials")
		}
		return nil, nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, "", time.Time{}, errors.New("invalid credentials")
	}

	profile := s.ResolveProfile(ctx, user.ID)

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, profile.Role)
	if err != nil {
		return nil, nil, "", time.Time{}, err
	}
	return user, profile, token, exp, nil
}

// ResolveProfile loads the application profile for an account, degrading to
// a minimal default (promoter, beginner, onboarding completed) when the
// profile table is absent, the row is missing, or the read fails. Login
// never fails on profile data alone.
func (s *AuthService) ResolveProfile(ctx context.Context, userID string) *domain.Profile {
	profile, err := s.profiles.Get(ctx, userID)
	if err == nil {
		return profile
	}
	switch {
	case isPgCode(err, pgCodeUndefinedTable):
		s.logger.Warn("profile table missing; run migrations", zap.Error(err))
	case errors.Is(err, pgx.ErrNoRows):
		// Legacy account without a profile row.
	default:
		s.logger.Warn("profile fetch failed; using defaults",
			zap.String("user_id", userID), zap.Error(err))
	}
	return domain.DefaultProfile(userID)
}

// Logout currently no-ops for the stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// CompleteOnboarding marks the introduction flow as finished.
func (s *AuthService) CompleteOnboarding(ctx context.Context, userID string) error {
	if err := s.profiles.SetOnboardingCompleted(ctx, userID); err != nil {
		if isPgCode(err, pgCodeUndefinedTable) || errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("onboarding flag not persisted", zap.String("user_id", userID), zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

// ChangePassword verifies the old password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return errors.New("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// RequestPasswordReset persists a single-use reset token for the account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return errors.New("token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
