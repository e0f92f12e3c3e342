package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// SaleRepository encapsulates the append-only sales ledger.
type SaleRepository interface {
	Insert(ctx context.Context, sale *domain.Sale) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Sale, error)
	TotalsByUser(ctx context.Context, userID string) (domain.SaleTotals, error)
	Totals(ctx context.Context) (domain.SaleTotals, error)
}

type saleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository instantiates repository.
func NewSaleRepository(pool *pgxpool.Pool) SaleRepository {
	return &saleRepository{pool: pool}
}

func (r *saleRepository) Insert(ctx context.Context, sale *domain.Sale) error {
	const query = `
        INSERT INTO sales (user_id, event_id, quantity, commission_amount)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		sale.UserID,
		sale.EventID,
		sale.Quantity,
		sale.CommissionAmount,
	).Scan(&sale.ID, &sale.CreatedAt)
}

func (r *saleRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Sale, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, event_id, quantity, commission_amount, created_at
        FROM sales WHERE user_id=$1
        ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(
			&sale.ID,
			&sale.UserID,
			&sale.EventID,
			&sale.Quantity,
			&sale.CommissionAmount,
			&sale.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sale)
	}
	return result, rows.Err()
}

func (r *saleRepository) TotalsByUser(ctx context.Context, userID string) (domain.SaleTotals, error) {
	const query = `
        SELECT COALESCE(SUM(quantity),0), COALESCE(SUM(commission_amount),0)
        FROM sales WHERE user_id=$1`

	var totals domain.SaleTotals
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&totals.Tickets, &totals.Commission); err != nil {
		return domain.SaleTotals{}, err
	}
	return totals, nil
}

func (r *saleRepository) Totals(ctx context.Context) (domain.SaleTotals, error) {
	const query = `
        SELECT COALESCE(SUM(quantity),0), COALESCE(SUM(commission_amount),0) FROM sales`

	var totals domain.SaleTotals
	if err := r.pool.QueryRow(ctx, query).Scan(&totals.Tickets, &totals.Commission); err != nil {
		return domain.SaleTotals{}, err
	}
	return totals, nil
}
