package domain

import "time"

// AttendanceStatus tracks a guest through the pre/during-event phases.
type AttendanceStatus string

const (
	AttendanceConfirmed AttendanceStatus = "CONFIRMED"
	AttendanceCheckedIn AttendanceStatus = "CHECKED_IN"
	AttendanceNoShow    AttendanceStatus = "NO_SHOW"
)

// Resolved reports whether attendance has been settled one way or the other.
// An evaluation may only close against a resolved status.
func (s AttendanceStatus) Resolved() bool {
	return s == AttendanceCheckedIn || s == AttendanceNoShow
}

// Completion is the tri-state evaluation flag. Legacy rows predate the
// post-event column and carry NULL there; they must never be confused with
// pending rows.
type Completion string

const (
	CompletionPending Completion = "PENDING"
	CompletionDone    Completion = "DONE"
	CompletionLegacy  Completion = "LEGACY"
)

// CompletionFromFlag converts the nullable stored flag into the typed
// tri-state. Policy: a NULL flag means a legacy row, and legacy rows are
// treated as already completed so they never re-enter pending queues.
func CompletionFromFlag(flag *bool) Completion {
	switch {
	case flag == nil:
		return CompletionLegacy
	case *flag:
		return CompletionDone
	default:
		return CompletionPending
	}
}

// Closed reports whether the entry is excluded from pending-evaluation
// queries.
func (c Completion) Closed() bool {
	return c != CompletionPending
}

// PurchaseSource records how the guest got their ticket.
type PurchaseSource string

const (
	SourcePromoter  PurchaseSource = "VIA_PROMOTER"
	SourceFriend    PurchaseSource = "FRIEND"
	SourceBoxOffice PurchaseSource = "BOX_OFFICE"
	SourceVIPList   PurchaseSource = "VIP_LIST"
	SourceOther     PurchaseSource = "OTHER"
)

// Accompaniment records who the guest came with.
type Accompaniment string

const (
	AccompanimentAlone      Accompaniment = "ALONE"
	AccompanimentFriends    Accompaniment = "FRIENDS"
	AccompanimentLargeGroup Accompaniment = "LARGE_GROUP"
)

// Evaluation is the post-event payload captured once per guest entry.
// Purchase, accompaniment and feedback fields are only meaningful when the
// guest attended.
type Evaluation struct {
	PurchasedTicket bool
	PurchaseSource  *PurchaseSource
	Accompaniment   *Accompaniment
	Rating          *int
	Feedback        *string
}

// GuestEntry joins one client to one event for one promoter. Exactly one
// entry exists per (event, client) pair. Entries are never hard-deleted;
// evaluated entries simply drop out of pending queries.
//
// Entries with a negative ID are synthesized placeholders that have not been
// persisted yet; the first evaluation submitted for one must insert rather
// than update.
type GuestEntry struct {
	ID          int64
	EventID     int64
	ClientID    int64
	OwnerID     string
	Attendance  AttendanceStatus
	CheckInTime *time.Time
	Notes       *string
	Completion  Completion
	Evaluation  *Evaluation
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Client is the joined roster record when the query asked for it.
	Client *Client
}

// Synthetic reports whether the entry is a placeholder materialized from the
// client roster rather than a persisted row.
func (g *GuestEntry) Synthetic() bool {
	return g.ID < 0
}

// SyntheticEntry materializes a placeholder entry for a client that has no
// ledger row for the event yet. The id is the negative of the client id,
// stable within a session and unambiguous as not-yet-persisted.
func SyntheticEntry(eventID int64, client *Client) GuestEntry {
	return GuestEntry{
		ID:         -client.ID,
		EventID:    eventID,
		ClientID:   client.ID,
		OwnerID:    client.OwnerID,
		Attendance: AttendanceConfirmed,
		Completion: CompletionPending,
		Client:     client,
	}
}
