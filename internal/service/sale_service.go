package service

import (
	"context"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/events"
	"github.com/spec-kit/promoter-service/internal/repository"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// SaleService records ticket sales. The ledger is append-only; commission is
// computed from the event's per-ticket rate at record time.
type SaleService struct {
	sales      repository.SaleRepository
	eventsRepo repository.EventRepository
	dispatcher events.Dispatcher
}

// SaleDependencies bundles repositories for the sale service.
type SaleDependencies struct {
	SaleRepo   repository.SaleRepository
	EventRepo  repository.EventRepository
	Dispatcher events.Dispatcher
}

// NewSaleService constructs the service.
func NewSaleService(deps SaleDependencies) *SaleService {
	return &SaleService{
		sales:      deps.SaleRepo,
		eventsRepo: deps.EventRepo,
		dispatcher: deps.Dispatcher,
	}
}

// RecordSale appends a sale for an active event.
func (s *SaleService) RecordSale(ctx context.Context, userID string, eventID int64, quantity int) (*domain.Sale, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}

	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if event.Status != domain.EventStatusActive {
		return nil, apperrors.NewConflict("event not open for sales", map[string]any{
			"event_id": eventID,
			"status":   event.Status,
		})
	}

	sale := &domain.Sale{
		UserID:           userID,
		EventID:          eventID,
		Quantity:         quantity,
		CommissionAmount: float64(quantity) * event.CommissionPerTicket,
	}
	if err := s.sales.Insert(ctx, sale); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:   events.EventSaleRecorded,
			UserID: userID,
			Payload: events.SaleRecordedPayload{
				SaleID:     sale.ID,
				EventID:    eventID,
				Quantity:   quantity,
				Commission: sale.CommissionAmount,
			},
		})
	}
	return sale, nil
}

// ListSales returns the promoter's recent sales.
func (s *SaleService) ListSales(ctx context.Context, userID string, limit int) ([]domain.Sale, error) {
	return s.sales.ListByUser(ctx, userID, limit)
}

// Totals returns the promoter's accumulated tickets and commission.
func (s *SaleService) Totals(ctx context.Context, userID string) (domain.SaleTotals, error) {
	return s.sales.TotalsByUser(ctx, userID)
}
