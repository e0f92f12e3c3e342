package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// ClientFilter captures roster listing parameters.
type ClientFilter struct {
	Tiers      []domain.ClientTier
	SearchTerm *string
	Limit      int
	Offset     int
}

// TierCounts summarizes a promoter's base by strategic tier.
type TierCounts struct {
	Total     int
	Recurrent int
	ByTier    map[domain.ClientTier]int
}

// ClientRepository encapsulates roster persistence.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	ListByOwner(ctx context.Context, ownerID string, filter ClientFilter) ([]domain.Client, error)
	SetTier(ctx context.Context, id int64, tier domain.ClientTier, recurrent bool) error
	CountByOwner(ctx context.Context, ownerID string) (TierCounts, error)
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository instantiates repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientColumns = `id, owner_id, name, nickname, whatsapp, instagram, followers, gender,
               music_genres, party_type, spend_band, tier, is_recurrent, created_at, updated_at`

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (owner_id, name, nickname, whatsapp, instagram, followers, gender,
                             music_genres, party_type, spend_band, tier, is_recurrent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		client.OwnerID,
		client.Name,
		client.Nickname,
		client.WhatsApp,
		client.Instagram,
		client.Followers,
		client.Gender,
		client.MusicGenres,
		client.PartyType,
		client.SpendBand,
		client.Tier,
		client.IsRecurrent,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `
        UPDATE clients SET name=$1, nickname=$2, whatsapp=$3, instagram=$4, followers=$5,
            gender=$6, music_genres=$7, party_type=$8, spend_band=$9, tier=$10,
            is_recurrent=$11, updated_at=NOW()
        WHERE id=$12`

	cmd, err := r.pool.Exec(ctx, query,
		client.Name,
		client.Nickname,
		client.WhatsApp,
		client.Instagram,
		client.Followers,
		client.Gender,
		client.MusicGenres,
		client.PartyType,
		client.SpendBand,
		client.Tier,
		client.IsRecurrent,
		client.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id=$1`

	var client domain.Client
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.OwnerID,
		&client.Name,
		&client.Nickname,
		&client.WhatsApp,
		&client.Instagram,
		&client.Followers,
		&client.Gender,
		&client.MusicGenres,
		&client.PartyType,
		&client.SpendBand,
		&client.Tier,
		&client.IsRecurrent,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) ListByOwner(ctx context.Context, ownerID string, filter ClientFilter) ([]domain.Client, error) {
	clauses := []string{"owner_id=$1"}
	args := []any{ownerID}

	if len(filter.Tiers) > 0 {
		placeholders := make([]string, len(filter.Tiers))
		for i, tier := range filter.Tiers {
			args = append(args, tier)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("tier IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		clientColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClients(rows)
}

func (r *clientRepository) SetTier(ctx context.Context, id int64, tier domain.ClientTier, recurrent bool) error {
	const query = `
        UPDATE clients SET tier=$1, is_recurrent=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, tier, recurrent, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clientRepository) CountByOwner(ctx context.Context, ownerID string) (TierCounts, error) {
	const query = `SELECT tier, COUNT(*) FROM clients WHERE owner_id=$1 GROUP BY tier`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return TierCounts{}, err
	}
	defer rows.Close()

	counts := TierCounts{ByTier: make(map[domain.ClientTier]int)}
	for rows.Next() {
		var (
			tier domain.ClientTier
			n    int
		)
		if err := rows.Scan(&tier, &n); err != nil {
			return TierCounts{}, err
		}
		counts.ByTier[tier] = n
		counts.Total += n
		if tier.Recurrent() {
			counts.Recurrent += n
		}
	}
	return counts, rows.Err()
}

func scanClients(rows pgx.Rows) ([]domain.Client, error) {
	var result []domain.Client
	for rows.Next() {
		var client domain.Client
		if err := rows.Scan(
			&client.ID,
			&client.OwnerID,
			&client.Name,
			&client.Nickname,
			&client.WhatsApp,
			&client.Instagram,
			&client.Followers,
			&client.Gender,
			&client.MusicGenres,
			&client.PartyType,
			&client.SpendBand,
			&client.Tier,
			&client.IsRecurrent,
			&client.CreatedAt,
			&client.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, client)
	}
	return result, rows.Err()
}
