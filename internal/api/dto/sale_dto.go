package dto

import "time"

// RecordSaleRequest payload.
type RecordSaleRequest struct {
	EventID  int64 `json:"event_id"`
	Quantity int   `json:"quantity"`
}

// SaleResponse is one sales-ledger row.
type SaleResponse struct {
	ID               int64     `json:"id"`
	EventID          int64     `json:"event_id"`
	Quantity         int       `json:"quantity"`
	CommissionAmount float64   `json:"commission_amount"`
	CreatedAt        time.Time `json:"created_at"`
}

// SaleTotalsResponse aggregates the promoter's ledger.
type SaleTotalsResponse struct {
	Tickets    int     `json:"tickets"`
	Commission float64 `json:"commission"`
}
