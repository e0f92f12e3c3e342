package workflow

import (
	"errors"
	"sync"

	"github.com/spec-kit/promoter-service/internal/domain"
)

// State identifies where the session stands for its currently selected entry.
type State string

const (
	// StateUnselected: entries remain but none is picked.
	StateUnselected State = "UNSELECTED"
	// StateSelected: an entry is picked, attendance not yet recorded.
	StateSelected State = "SELECTED"
	// StateAttendanceSet: attendance recorded, submit is allowed.
	StateAttendanceSet State = "ATTENDANCE_SET"
	// StateDone: no pending entries remain; the session is finished.
	StateDone State = "DONE"
)

var (
	ErrSessionDone      = errors.New("evaluation session already finished")
	ErrNoSuchEntry      = errors.New("entry not in pending list")
	ErrNoSelection      = errors.New("no entry selected")
	ErrAttendanceNotSet = errors.New("attendance not recorded yet")
	ErrNotAttended      = errors.New("details only apply to attended guests")
	ErrInvalidTier      = errors.New("invalid client tier")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrInvalidDetail    = errors.New("invalid purchase source or accompaniment")
)

// Form holds the in-session capture for the selected entry. Nothing here is
// persisted until submission succeeds.
type Form struct {
	Attended       *bool
	PurchaseSource domain.PurchaseSource
	Accompaniment  domain.Accompaniment
	Rating         int
	Feedback       string
	SuggestedTier  domain.ClientTier
	ChosenTier     domain.ClientTier
}

// Submission is the write request produced by a session once an entry is
// ready to close. The orchestrator performs the ledger and tier writes and
// calls Complete only when they succeed, so a failed write leaves the entry
// pending.
type Submission struct {
	Entry       domain.GuestEntry
	Attended    bool
	CurrentTier domain.ClientTier
	FinalTier   domain.ClientTier
	Evaluation  domain.Evaluation
}

// Session is the explicit finite-state object for one promoter evaluating
// one event's pending guests. At most one entry is selected at a time.
type Session struct {
	mu sync.Mutex

	ownerID string
	eventID int64
	pending []domain.GuestEntry
	state   State
	current *domain.GuestEntry
	form    Form
}

// NewSession starts a session over the given pending entries. An empty list
// starts (and immediately finishes) in StateDone.
func NewSession(ownerID string, eventID int64, pending []domain.GuestEntry) *Session {
	s := &Session{
		ownerID: ownerID,
		eventID: eventID,
		pending: append([]domain.GuestEntry(nil), pending...),
		state:   StateUnselected,
	}
	if len(s.pending) == 0 {
		s.state = StateDone
	}
	return s
}

// OwnerID returns the promoter the session belongs to.
func (s *Session) OwnerID() string { return s.ownerID }

// EventID returns the event under evaluation.
func (s *Session) EventID() int64 { return s.eventID }

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns a copy of the not-yet-evaluated entries.
func (s *Session) Pending() []domain.GuestEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GuestEntry(nil), s.pending...)
}

// Selected returns a copy of the selected entry, if any.
func (s *Session) Selected() (domain.GuestEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.GuestEntry{}, false
	}
	return *s.current, true
}

// Form returns the current form values.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Select picks a pending entry and resets the form: no attendance choice, no
// rating, tier pre-seeded to the client's current tier. Re-selecting while
// another entry is in progress discards that entry's unsaved form.
func (s *Session) Select(entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDone {
		return ErrSessionDone
	}
	for i := range s.pending {
		if s.pending[i].ID == entryID {
			entry := s.pending[i]
			s.current = &entry
			tier := s.clientTier(&entry)
			s.form = Form{SuggestedTier: tier, ChosenTier: tier}
			s.state = StateSelected
			return nil
		}
	}
	return ErrNoSuchEntry
}

// SetAttendance records whether the guest showed up and recomputes the
// suggested tier, pre-filling it as the editable default. Recording again
// overwrites the previous choice.
func (s *Session) SetAttendance(attended bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDone {
		return ErrSessionDone
	}
	if s.current == nil {
		return ErrNoSelection
	}
	s.form.Attended = &attended
	suggested := SuggestTier(s.clientTier(s.current), attended)
	s.form.SuggestedTier = suggested
	s.form.ChosenTier = suggested
	if !attended {
		// Purchase, accompaniment and feedback are meaningless for a
		// no-show; only the tier re-suggestion survives.
		s.form.PurchaseSource = ""
		s.form.Accompaniment = ""
		s.form.Rating = 0
		s.form.Feedback = ""
	}
	s.state = StateAttendanceSet
	return nil
}

// SetDetails captures purchase source, accompaniment, rating and feedback.
// Only valid once attendance is recorded as true.
func (s *Session) SetDetails(source domain.PurchaseSource, accompaniment domain.Accompaniment, rating int, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAttendanceSet {
		return ErrAttendanceNotSet
	}
	if s.form.Attended == nil || !*s.form.Attended {
		return ErrNotAttended
	}
	if !validSource(source) || !validAccompaniment(accompaniment) {
		return ErrInvalidDetail
	}
	if rating < 0 || rating > 5 {
		return ErrInvalidRating
	}
	s.form.PurchaseSource = source
	s.form.Accompaniment = accompaniment
	s.form.Rating = rating
	s.form.Feedback = feedback
	return nil
}

// OverrideTier replaces the suggested tier with the promoter's choice.
func (s *Session) OverrideTier(tier domain.ClientTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAttendanceSet {
		return ErrAttendanceNotSet
	}
	if !tier.IsValid() {
		return ErrInvalidTier
	}
	s.form.ChosenTier = tier
	return nil
}

// Submission builds the write request for the selected entry. The session
// state is unchanged; call Complete after the writes succeed.
func (s *Session) Submission() (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAttendanceSet || s.form.Attended == nil {
		return Submission{}, ErrAttendanceNotSet
	}
	attended := *s.form.Attended

	eval := domain.Evaluation{PurchasedTicket: attended}
	if attended {
		if s.form.PurchaseSource != "" {
			src := s.form.PurchaseSource
			eval.PurchaseSource = &src
		}
		if s.form.Accompaniment != "" {
			acc := s.form.Accompaniment
			eval.Accompaniment = &acc
		}
		if s.form.Rating > 0 {
			r := s.form.Rating
			eval.Rating = &r
		}
		if s.form.Feedback != "" {
			fb := s.form.Feedback
			eval.Feedback = &fb
		}
	}

	return Submission{
		Entry:       *s.current,
		Attended:    attended,
		CurrentTier: s.clientTier(s.current),
		FinalTier:   s.form.ChosenTier,
		Evaluation:  eval,
	}, nil
}

// Complete removes the submitted entry from the pending list and returns
// true when no entries remain, signalling "all done". The next entry starts
// from StateUnselected.
func (s *Session) Complete() (done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAttendanceSet || s.current == nil {
		return false, ErrAttendanceNotSet
	}
	kept := s.pending[:0]
	for i := range s.pending {
		if s.pending[i].ID != s.current.ID {
			kept = append(kept, s.pending[i])
		}
	}
	s.pending = kept
	s.current = nil
	s.form = Form{}
	if len(s.pending) == 0 {
		s.state = StateDone
		return true, nil
	}
	s.state = StateUnselected
	return false, nil
}

func (s *Session) clientTier(entry *domain.GuestEntry) domain.ClientTier {
	if entry.Client != nil && entry.Client.Tier.IsValid() {
		return entry.Client.Tier
	}
	return domain.TierCold
}

func validSource(s domain.PurchaseSource) bool {
	switch s {
	case domain.SourcePromoter, domain.SourceFriend, domain.SourceBoxOffice, domain.SourceVIPList, domain.SourceOther:
		return true
	}
	return false
}

func validAccompaniment(a domain.Accompaniment) bool {
	switch a {
	case domain.AccompanimentAlone, domain.AccompanimentFriends, domain.AccompanimentLargeGroup:
		return true
	}
	return false
}
