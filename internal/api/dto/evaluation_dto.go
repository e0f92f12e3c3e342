package dto

import "github.com/spec-kit/promoter-service/internal/domain"

// SelectEntryRequest picks a pending entry for evaluation.
type SelectEntryRequest struct {
	EntryID int64 `json:"entry_id"`
}

// SetAttendanceRequest records whether the guest showed up.
type SetAttendanceRequest struct {
	Attended bool `json:"attended"`
}

// SetDetailsRequest captures the attended-guest follow-up fields.
type SetDetailsRequest struct {
	PurchaseSource domain.PurchaseSource `json:"purchase_source"`
	Accompaniment  domain.Accompaniment  `json:"accompaniment"`
	Rating         int                   `json:"rating"`
	Feedback       string                `json:"feedback"`
}

// OverrideTierRequest replaces the suggested tier.
type OverrideTierRequest struct {
	Tier domain.ClientTier `json:"tier"`
}

// SessionResponse is the live workflow state for the promoter's session.
type SessionResponse struct {
	EventID   int64                `json:"event_id"`
	State     string               `json:"state"`
	Pending   []GuestEntryResponse `json:"pending"`
	Selected  *GuestEntryResponse  `json:"selected,omitempty"`
	Form      *FormResponse        `json:"form,omitempty"`
	Remaining int                  `json:"remaining"`
}

// FormResponse mirrors the in-session capture for the selected entry.
type FormResponse struct {
	Attended       *bool                 `json:"attended,omitempty"`
	PurchaseSource domain.PurchaseSource `json:"purchase_source,omitempty"`
	Accompaniment  domain.Accompaniment  `json:"accompaniment,omitempty"`
	Rating         int                   `json:"rating,omitempty"`
	Feedback       string                `json:"feedback,omitempty"`
	SuggestedTier  domain.ClientTier     `json:"suggested_tier"`
	ChosenTier     domain.ClientTier     `json:"chosen_tier"`
}

// SubmitResponse reports the outcome of closing one evaluation.
type SubmitResponse struct {
	Entry       GuestEntryResponse `json:"entry"`
	Attended    bool               `json:"attended"`
	TierChanged bool               `json:"tier_changed"`
	FinalTier   domain.ClientTier  `json:"final_tier"`
	Done        bool               `json:"done"`
	Remaining   int                `json:"remaining"`
}
