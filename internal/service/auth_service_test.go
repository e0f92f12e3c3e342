package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/promoter-service/internal/config"
	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/repository"
)

type fakeResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
	nextID int
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (f *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	f.nextID++
	token.ID = string(rune('a' + f.nextID))
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := f.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return token, nil
}

func (f *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	now := time.Now()
	for _, token := range f.tokens {
		if token.ID == id {
			token.UsedAt = &now
		}
	}
	return nil
}

// missingProfileTableRepo simulates a deployment where the profile
// migration never ran.
type missingProfileTableRepo struct {
	repository.ProfileRepository
}

func (missingProfileTableRepo) Get(_ context.Context, _ string) (*domain.Profile, error) {
	return nil, &pgconn.PgError{Code: "42P01"}
}

func newAuthFixture(profiles repository.ProfileRepository) (*AuthService, *fakeUserRepo) {
	users := &fakeUserRepo{users: make(map[string]*domain.User)}
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLMinutes:   15,
		PasswordResetTTLMinutes: 30,
		BcryptCost:              bcrypt.MinCost,
	}}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:          users,
		ProfileRepo:       profiles,
		PasswordResetRepo: newFakeResetRepo(),
		Logger:            zap.NewNop(),
	})
	return svc, users
}

func TestRegisterCreatesPromoterProfile(t *testing.T) {
	svc, _ := newAuthFixture(&fakeProfileRepo{profiles: make(map[string]*domain.Profile)})

	user, profile, token, exp, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Lena",
		Email:    "lena@example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected assigned user id")
	}
	if profile.Role != domain.RolePromoter || profile.Level != domain.LevelBeginner {
		t.Fatalf("unexpected profile defaults: %s %s", profile.Role, profile.Level)
	}
	if profile.OnboardingCompleted {
		t.Fatal("fresh signup must start before onboarding")
	}
	if token == "" || exp.Before(time.Now()) {
		t.Fatalf("expected a live token, got %q expiring %v", token, exp)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(&fakeProfileRepo{profiles: make(map[string]*domain.Profile)})

	input := RegisterInput{Name: "Lena", Email: "lena@example.com", Password: "hunter22"}
	if _, _, _, _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, _, _, _, err := svc.Register(context.Background(), input); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(&fakeProfileRepo{profiles: make(map[string]*domain.Profile)})

	if _, _, _, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Lena", Email: "lena@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, _, _, err := svc.Login(context.Background(), "lena@example.com", "wrong"); err == nil {
		t.Fatal("expected login to fail on a bad password")
	}
	if _, _, token, _, err := svc.Login(context.Background(), "lena@example.com", "hunter22"); err != nil || token == "" {
		t.Fatalf("expected login to succeed, got token %q err %v", token, err)
	}
}

func TestResolveProfileDefaultsWhenTableMissing(t *testing.T) {
	svc, users := newAuthFixture(missingProfileTableRepo{})
	users.users["u1"] = &domain.User{ID: "u1", Email: "lena@example.com"}

	profile := svc.ResolveProfile(context.Background(), "u1")
	if profile.Role != domain.RolePromoter || !profile.OnboardingCompleted {
		t.Fatalf("expected minimal promoter default, got %+v", profile)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(&fakeProfileRepo{profiles: make(map[string]*domain.Profile)})

	ctx := context.Background()
	if _, _, _, _, err := svc.Register(ctx, RegisterInput{
		Name: "Lena", Email: "lena@example.com", Password: "hunter22",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := svc.RequestPasswordReset(ctx, "lena@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, token.Token, "sw0rdfish"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
	if _, _, _, _, err := svc.Login(ctx, "lena@example.com", "sw0rdfish"); err != nil {
		t.Fatalf("login with the new password: %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, token.Token, "again"); err == nil {
		t.Fatal("expected a used token to be rejected")
	}
}
