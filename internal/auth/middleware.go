package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/repository"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller: the account plus its
// resolved application profile.
type Principal struct {
	User    *domain.User
	Profile *domain.Profile
}

// Role returns the caller's resolved role.
func (p *Principal) Role() domain.Role {
	if p.Profile == nil {
		return domain.RolePromoter
	}
	return p.Profile.Role
}

// ProfileResolver turns an account id into an application profile. The
// resolver must not fail hard when profile storage is unavailable; it falls
// back to a default profile instead.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, userID string) *domain.Profile
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	users    repository.UserRepository
	profiles ProfileResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, profiles ProfileResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, profiles: profiles}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return apperrors.NewForbidden("account suspended")
	}

	profile := m.profiles.ResolveProfile(c.Context(), user.ID)
	if !profile.Active {
		return apperrors.NewForbidden("account deactivated")
	}

	c.Locals(principalKey, &Principal{User: user, Profile: profile})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
