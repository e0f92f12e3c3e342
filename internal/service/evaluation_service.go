package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/events"
	"github.com/spec-kit/promoter-service/internal/repository"
	"github.com/spec-kit/promoter-service/internal/workflow"
	apperrors "github.com/spec-kit/promoter-service/pkg/util"
)

// ErrTierUpdateFailed marks a partial submit: the ledger entry closed but the
// tier write did not. The evaluation is durable; retrying the submit skips
// the already-closed ledger write and reattempts the tier.
var ErrTierUpdateFailed = errors.New("evaluation saved but tier update failed")

// EvaluationService orchestrates the post-event evaluation workflow: pending
// queues, in-memory sessions, and the ledger/tier writes on submit.
type EvaluationService struct {
	guests     repository.GuestRepository
	clients    repository.ClientRepository
	eventsRepo repository.EventRepository
	clientSvc  *ClientService
	sessions   *workflow.Manager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sampleMax  int
}

// EvaluationDependencies bundles everything the evaluation service needs.
type EvaluationDependencies struct {
	GuestRepo     repository.GuestRepository
	ClientRepo    repository.ClientRepository
	EventRepo     repository.EventRepository
	ClientService *ClientService
	Sessions      *workflow.Manager
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	SampleMax     int
}

// NewEvaluationService constructs the service.
func NewEvaluationService(deps EvaluationDependencies) *EvaluationService {
	sampleMax := deps.SampleMax
	if sampleMax <= 0 {
		sampleMax = 25
	}
	return &EvaluationService{
		guests:     deps.GuestRepo,
		clients:    deps.ClientRepo,
		eventsRepo: deps.EventRepo,
		clientSvc:  deps.ClientService,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		sampleMax:  sampleMax,
	}
}

// SubmitResult reports what a successful submit did.
type SubmitResult struct {
	Entry       *domain.GuestEntry
	Attended    bool
	TierChanged bool
	FinalTier   domain.ClientTier
	Done        bool
	Remaining   int
}

// ListPending returns the promoter's open evaluations for an event. When the
// ledger carries no rows at all for the promoter and event, a bounded sample
// of the client roster is synthesized so evaluation can proceed for events
// whose guest list was never materialized. Clients that already have a row
// for the event are never re-synthesized.
func (s *EvaluationService) ListPending(ctx context.Context, ownerID string, eventID int64) ([]domain.GuestEntry, error) {
	pending, err := s.guests.ListPending(ctx, eventID, ownerID)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return pending, nil
	}

	// No pending rows. Synthesize only when the ledger has no rows for this
	// promoter and event at all; an exhausted real list stays exhausted.
	existing, err := s.guests.ListByEvent(ctx, eventID, ownerID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	clients, err := s.clients.ListByOwner(ctx, ownerID, repository.ClientFilter{Limit: s.sampleMax})
	if err != nil {
		return nil, err
	}
	synthesized := make([]domain.GuestEntry, 0, len(clients))
	for i := range clients {
		synthesized = append(synthesized, domain.SyntheticEntry(eventID, &clients[i]))
	}
	return synthesized, nil
}

// StartSession begins (or restarts) the promoter's evaluation session for a
// closed event, loading the current pending queue. An existing session for
// the same promoter and event is replaced.
func (s *EvaluationService) StartSession(ctx context.Context, ownerID string, eventID int64) (*workflow.Session, error) {
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", map[string]any{"event_id": eventID})
		}
		return nil, err
	}
	if event.Status != domain.EventStatusClosed {
		return nil, apperrors.NewConflict("evaluation only applies to closed events", map[string]any{
			"event_id": eventID,
			"status":   event.Status,
		})
	}

	pending, err := s.ListPending(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	session := workflow.NewSession(ownerID, eventID, pending)
	s.sessions.Put(session)
	return session, nil
}

// Session returns the promoter's live session for the event.
func (s *EvaluationService) Session(ownerID string, eventID int64) (*workflow.Session, error) {
	session, ok := s.sessions.Get(ownerID, eventID)
	if !ok {
		return nil, apperrors.NewNotFound("evaluation session", map[string]any{"event_id": eventID})
	}
	return session, nil
}

// Submit closes the selected entry: it persists the evaluation to the guest
// ledger, applies the chosen tier when it differs from the client's current
// one, and only then advances the session. Ledger and tier are separate
// writes; if the tier write fails the ledger close stands and the error is
// ErrTierUpdateFailed so the caller can retry.
func (s *EvaluationService) Submit(ctx context.Context, ownerID string, eventID int64) (*SubmitResult, error) {
	session, err := s.Session(ownerID, eventID)
	if err != nil {
		return nil, err
	}
	sub, err := session.Submission()
	if err != nil {
		return nil, err
	}

	entry, err := s.closeLedger(ctx, sub)
	if err != nil {
		return nil, err
	}

	tierChanged := false
	if sub.FinalTier != sub.CurrentTier {
		if err := s.clientSvc.SetTier(ctx, ownerID, sub.Entry.ClientID, sub.FinalTier); err != nil {
			s.logger.Warn("tier update failed after evaluation close",
				zap.Int64("client_id", sub.Entry.ClientID),
				zap.String("tier", string(sub.FinalTier)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrTierUpdateFailed, err)
		}
		tierChanged = true
	}

	done, err := session.Complete()
	if err != nil {
		return nil, err
	}
	if done {
		s.sessions.Drop(ownerID, eventID)
	}

	s.publish(ctx, events.Event{
		Type:   events.EventEvaluationSubmitted,
		UserID: ownerID,
		Payload: events.EvaluationSubmittedPayload{
			EntryID:  entry.ID,
			EventID:  eventID,
			ClientID: entry.ClientID,
			Attended: sub.Attended,
		},
	})

	return &SubmitResult{
		Entry:       entry,
		Attended:    sub.Attended,
		TierChanged: tierChanged,
		FinalTier:   sub.FinalTier,
		Done:        done,
		Remaining:   len(session.Pending()),
	}, nil
}

// closeLedger makes the entry's evaluation durable. Synthetic entries insert
// a closed row; real entries update through the idempotence guard. A close
// that was already applied, on either path, is treated as done so a retried
// submit converges instead of erroring.
func (s *EvaluationService) closeLedger(ctx context.Context, sub workflow.Submission) (*domain.GuestEntry, error) {
	patch := s.buildPatch(sub)

	if sub.Entry.Synthetic() {
		entry := &domain.GuestEntry{
			EventID:     sub.Entry.EventID,
			ClientID:    sub.Entry.ClientID,
			OwnerID:     sub.Entry.OwnerID,
			Attendance:  patch.Attendance,
			CheckInTime: patch.CheckInTime,
			Completion:  domain.CompletionDone,
			Evaluation:  &sub.Evaluation,
		}
		err := s.guests.Insert(ctx, entry)
		if err == nil {
			return entry, nil
		}
		if !isPgCode(err, pgCodeUniqueViolation) {
			return nil, err
		}
		// A row materialized concurrently. Fall through to the guarded
		// update against the stored row.
		stored, getErr := s.guests.GetByEventClient(ctx, sub.Entry.EventID, sub.Entry.ClientID)
		if getErr != nil {
			return nil, getErr
		}
		return s.closeStored(ctx, stored.ID, patch)
	}

	return s.closeStored(ctx, sub.Entry.ID, patch)
}

func (s *EvaluationService) closeStored(ctx context.Context, entryID int64, patch repository.EvaluationPatch) (*domain.GuestEntry, error) {
	err := s.guests.CloseEvaluation(ctx, entryID, patch)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAlreadyEvaluated):
		// At most one tier mutation per pair is enforced by the store; the
		// payload that won stays.
	case errors.Is(err, pgx.ErrNoRows):
		return nil, apperrors.NewNotFound("guest entry", map[string]any{"entry_id": entryID})
	default:
		return nil, err
	}
	return s.guests.GetByID(ctx, entryID)
}

func (s *EvaluationService) buildPatch(sub workflow.Submission) repository.EvaluationPatch {
	patch := repository.EvaluationPatch{
		CheckInTime:     sub.Entry.CheckInTime,
		PurchasedTicket: sub.Evaluation.PurchasedTicket,
		PurchaseSource:  sub.Evaluation.PurchaseSource,
		Accompaniment:   sub.Evaluation.Accompaniment,
		Rating:          sub.Evaluation.Rating,
		Feedback:        sub.Evaluation.Feedback,
	}
	if sub.Attended {
		patch.Attendance = domain.AttendanceCheckedIn
		if patch.CheckInTime == nil {
			now := time.Now()
			patch.CheckInTime = &now
		}
	} else {
		patch.Attendance = domain.AttendanceNoShow
		patch.CheckInTime = nil
	}
	return patch
}

func (s *EvaluationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
