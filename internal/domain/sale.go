package domain

import "time"

// Sale is one ticket-sale record for a promoter and event. Sales are
// append-only; commission is computed from the event's per-ticket rate at
// record time.
type Sale struct {
	ID               int64
	UserID           string
	EventID          int64
	Quantity         int
	CommissionAmount float64
	CreatedAt        time.Time
}

// SaleTotals aggregates a promoter's sales for dashboard display.
type SaleTotals struct {
	Tickets    int
	Commission float64
}
