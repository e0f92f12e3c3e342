package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// ProfileRepository persists application-level profile data keyed by user id.
// Deployments predating the profile migration lack the table entirely; the
// identity resolver handles the resulting undefined-table errors.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	SetOnboardingCompleted(ctx context.Context, userID string) error
	SetActive(ctx context.Context, userID string, active bool) error
	ListByRole(ctx context.Context, role domain.Role, activeOnly bool) ([]domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `
        SELECT user_id, role, level, whatsapp, instagram, city, active,
               onboarding_completed, created_at, updated_at
        FROM user_profiles WHERE user_id=$1`

	var (
		profile    domain.Profile
		onboarding *bool
	)
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Role,
		&profile.Level,
		&profile.WhatsApp,
		&profile.Instagram,
		&profile.City,
		&profile.Active,
		&onboarding,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	// Legacy rows predate the onboarding column; treat NULL as completed.
	profile.OnboardingCompleted = onboarding == nil || *onboarding
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO user_profiles (user_id, role, level, whatsapp, instagram, city, active, onboarding_completed)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.Role,
		profile.Level,
		profile.WhatsApp,
		profile.Instagram,
		profile.City,
		profile.Active,
		profile.OnboardingCompleted,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	const query = `
        UPDATE user_profiles SET role=$1, level=$2, whatsapp=$3, instagram=$4, city=$5,
            active=$6, onboarding_completed=$7, updated_at=NOW()
        WHERE user_id=$8`

	cmd, err := r.pool.Exec(ctx, query,
		profile.Role,
		profile.Level,
		profile.WhatsApp,
		profile.Instagram,
		profile.City,
		profile.Active,
		profile.OnboardingCompleted,
		profile.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) SetOnboardingCompleted(ctx context.Context, userID string) error {
	const query = `
        UPDATE user_profiles SET onboarding_completed=TRUE, updated_at=NOW()
        WHERE user_id=$1`

	cmd, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) SetActive(ctx context.Context, userID string, active bool) error {
	const query = `
        UPDATE user_profiles SET active=$1, updated_at=NOW()
        WHERE user_id=$2`

	cmd, err := r.pool.Exec(ctx, query, active, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role, activeOnly bool) ([]domain.Profile, error) {
	query := `
        SELECT user_id, role, level, whatsapp, instagram, city, active,
               onboarding_completed, created_at, updated_at
        FROM user_profiles WHERE role=$1`
	if activeOnly {
		query += ` AND active=TRUE`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Profile
	for rows.Next() {
		var (
			profile    domain.Profile
			onboarding *bool
		)
		if err := rows.Scan(
			&profile.UserID,
			&profile.Role,
			&profile.Level,
			&profile.WhatsApp,
			&profile.Instagram,
			&profile.City,
			&profile.Active,
			&onboarding,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profile.OnboardingCompleted = onboarding == nil || *onboarding
		result = append(result, profile)
	}
	return result, rows.Err()
}
