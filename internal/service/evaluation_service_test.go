package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/events"
	"github.com/spec-kit/promoter-service/internal/repository"
	"github.com/spec-kit/promoter-service/internal/workflow"
)

type fakeGuestRepo struct {
	entries map[int64]*domain.GuestEntry
	nextID  int64
	clients *fakeClientRepo
	closes  int
}

func newFakeGuestRepo(clients *fakeClientRepo) *fakeGuestRepo {
	return &fakeGuestRepo{entries: make(map[int64]*domain.GuestEntry), nextID: 1, clients: clients}
}

func (f *fakeGuestRepo) Insert(_ context.Context, entry *domain.GuestEntry) error {
	for _, existing := range f.entries {
		if existing.EventID == entry.EventID && existing.ClientID == entry.ClientID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	entry.ID = f.nextID
	f.nextID++
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	stored := *entry
	f.entries[entry.ID] = &stored
	// A row born closed is a durable close; synthesized entries take this
	// path instead of CloseEvaluation.
	if stored.Completion.Closed() {
		f.closes++
	}
	return nil
}

func (f *fakeGuestRepo) GetByID(_ context.Context, id int64) (*domain.GuestEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeGuestRepo) GetByEventClient(_ context.Context, eventID, clientID int64) (*domain.GuestEntry, error) {
	for _, entry := range f.entries {
		if entry.EventID == eventID && entry.ClientID == clientID {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeGuestRepo) ListByEvent(_ context.Context, eventID int64, ownerID string) ([]domain.GuestEntry, error) {
	var result []domain.GuestEntry
	for _, entry := range f.entries {
		if entry.EventID == eventID && entry.OwnerID == ownerID {
			result = append(result, f.joined(entry))
		}
	}
	return result, nil
}

func (f *fakeGuestRepo) ListPending(_ context.Context, eventID int64, ownerID string) ([]domain.GuestEntry, error) {
	var result []domain.GuestEntry
	for _, entry := range f.entries {
		if entry.EventID == eventID && entry.OwnerID == ownerID && entry.Completion == domain.CompletionPending {
			result = append(result, f.joined(entry))
		}
	}
	return result, nil
}

func (f *fakeGuestRepo) ListByClient(_ context.Context, clientID int64) ([]repository.InteractionRecord, error) {
	var result []repository.InteractionRecord
	for _, entry := range f.entries {
		if entry.ClientID == clientID {
			result = append(result, repository.InteractionRecord{Entry: *entry})
		}
	}
	return result, nil
}

func (f *fakeGuestRepo) SetAttendance(_ context.Context, id int64, status domain.AttendanceStatus, checkInTime *time.Time) error {
	entry, ok := f.entries[id]
	if !ok {
		return pgx.ErrNoRows
	}
	entry.Attendance = status
	entry.CheckInTime = checkInTime
	return nil
}

func (f *fakeGuestRepo) CloseEvaluation(_ context.Context, id int64, patch repository.EvaluationPatch) error {
	if !patch.Attendance.Resolved() {
		return repository.ErrAttendanceUnresolved
	}
	entry, ok := f.entries[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if entry.Completion.Closed() {
		return repository.ErrAlreadyEvaluated
	}
	f.closes++
	entry.Attendance = patch.Attendance
	entry.CheckInTime = patch.CheckInTime
	entry.Completion = domain.CompletionDone
	entry.Evaluation = &domain.Evaluation{
		PurchasedTicket: patch.PurchasedTicket,
		PurchaseSource:  patch.PurchaseSource,
		Accompaniment:   patch.Accompaniment,
		Rating:          patch.Rating,
		Feedback:        patch.Feedback,
	}
	return nil
}

func (f *fakeGuestRepo) PendingOwnerIDs(_ context.Context, eventID int64) ([]string, error) {
	seen := map[string]bool{}
	var result []string
	for _, entry := range f.entries {
		if entry.EventID == eventID && entry.Completion == domain.CompletionPending && !seen[entry.OwnerID] {
			seen[entry.OwnerID] = true
			result = append(result, entry.OwnerID)
		}
	}
	return result, nil
}

func (f *fakeGuestRepo) joined(entry *domain.GuestEntry) domain.GuestEntry {
	copied := *entry
	if f.clients != nil {
		if client, ok := f.clients.clients[entry.ClientID]; ok {
			joinedClient := *client
			copied.Client = &joinedClient
		}
	}
	return copied
}

type fakeClientRepo struct {
	clients    map[int64]*domain.Client
	nextID     int64
	setTierErr error
	tierWrites int
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[int64]*domain.Client), nextID: 1}
}

func (f *fakeClientRepo) add(ownerID string, tier domain.ClientTier) *domain.Client {
	client := &domain.Client{
		ID:          f.nextID,
		OwnerID:     ownerID,
		Name:        "client",
		WhatsApp:    "+5511999999999",
		Tier:        tier,
		IsRecurrent: tier.Recurrent(),
	}
	f.nextID++
	f.clients[client.ID] = client
	return client
}

func (f *fakeClientRepo) Create(_ context.Context, client *domain.Client) error {
	client.ID = f.nextID
	f.nextID++
	stored := *client
	f.clients[client.ID] = &stored
	return nil
}

func (f *fakeClientRepo) Update(_ context.Context, client *domain.Client) error {
	stored := *client
	f.clients[client.ID] = &stored
	return nil
}

func (f *fakeClientRepo) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	client, ok := f.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *client
	return &copied, nil
}

func (f *fakeClientRepo) ListByOwner(_ context.Context, ownerID string, filter repository.ClientFilter) ([]domain.Client, error) {
	var result []domain.Client
	for _, client := range f.clients {
		if client.OwnerID != ownerID {
			continue
		}
		result = append(result, *client)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func (f *fakeClientRepo) SetTier(_ context.Context, id int64, tier domain.ClientTier, recurrent bool) error {
	if f.setTierErr != nil {
		return f.setTierErr
	}
	client, ok := f.clients[id]
	if !ok {
		return pgx.ErrNoRows
	}
	f.tierWrites++
	client.Tier = tier
	client.IsRecurrent = recurrent
	return nil
}

func (f *fakeClientRepo) CountByOwner(_ context.Context, ownerID string) (repository.TierCounts, error) {
	counts := repository.TierCounts{ByTier: make(map[domain.ClientTier]int)}
	for _, client := range f.clients {
		if client.OwnerID != ownerID {
			continue
		}
		counts.Total++
		counts.ByTier[client.Tier]++
		if client.Tier.Recurrent() {
			counts.Recurrent++
		}
	}
	return counts, nil
}

type fakeEventRepo struct {
	events map[int64]*domain.Event
	nextID int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int64]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) add(status domain.EventStatus) *domain.Event {
	event := &domain.Event{ID: f.nextID, Name: "party", Date: time.Now(), Status: status}
	f.nextID++
	f.events[event.ID] = event
	return event
}

func (f *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	event.ID = f.nextID
	f.nextID++
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeEventRepo) Update(_ context.Context, event *domain.Event) error {
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEventRepo) List(_ context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	var result []domain.Event
	for _, event := range f.events {
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if event.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *event)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func (f *fakeEventRepo) UpdateStatus(_ context.Context, id int64, status domain.EventStatus) error {
	event, ok := f.events[id]
	if !ok {
		return pgx.ErrNoRows
	}
	event.Status = status
	return nil
}

func (f *fakeEventRepo) Count(_ context.Context) (int, error) {
	return len(f.events), nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) count(eventType events.EventType) int {
	n := 0
	for _, event := range d.published {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

type evaluationFixture struct {
	svc        *EvaluationService
	guests     *fakeGuestRepo
	clients    *fakeClientRepo
	eventsRepo *fakeEventRepo
	sessions   *workflow.Manager
	dispatcher *recordingDispatcher
}

func newEvaluationFixture() *evaluationFixture {
	clients := newFakeClientRepo()
	guests := newFakeGuestRepo(clients)
	eventsRepo := newFakeEventRepo()
	dispatcher := &recordingDispatcher{}
	sessions := workflow.NewManager()
	clientSvc := NewClientService(ClientDependencies{
		ClientRepo: clients,
		GuestRepo:  guests,
		Dispatcher: dispatcher,
	})
	svc := NewEvaluationService(EvaluationDependencies{
		GuestRepo:     guests,
		ClientRepo:    clients,
		EventRepo:     eventsRepo,
		ClientService: clientSvc,
		Sessions:      sessions,
		Dispatcher:    dispatcher,
		Logger:        zap.NewNop(),
		SampleMax:     10,
	})
	return &evaluationFixture{
		svc:        svc,
		guests:     guests,
		clients:    clients,
		eventsRepo: eventsRepo,
		sessions:   sessions,
		dispatcher: dispatcher,
	}
}

func TestListPendingReturnsRealEntries(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierCold)
	entry := &domain.GuestEntry{
		EventID:    event.ID,
		ClientID:   client.ID,
		OwnerID:    "promoter-1",
		Attendance: domain.AttendanceConfirmed,
		Completion: domain.CompletionPending,
	}
	if err := fx.guests.Insert(context.Background(), entry); err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending, err := fx.svc.ListPending(context.Background(), "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != entry.ID {
		t.Fatalf("pending = %+v, want the stored entry", pending)
	}
	if pending[0].Synthetic() {
		t.Fatal("stored entry must not be synthetic")
	}
}

func TestListPendingSynthesizesWhenLedgerEmpty(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierMedium)

	pending, err := fx.svc.ListPending(context.Background(), "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d entries, want 1 synthesized", len(pending))
	}
	got := pending[0]
	if !got.Synthetic() {
		t.Fatal("entry should be synthetic")
	}
	if got.ID != -client.ID {
		t.Fatalf("synthetic id = %d, want %d", got.ID, -client.ID)
	}
	if got.Client == nil || got.Client.Tier != domain.TierMedium {
		t.Fatal("synthetic entry should carry the joined client")
	}
}

func TestListPendingDoesNotResurrectEvaluatedClients(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierCold)
	entry := &domain.GuestEntry{
		EventID:    event.ID,
		ClientID:   client.ID,
		OwnerID:    "promoter-1",
		Attendance: domain.AttendanceCheckedIn,
		Completion: domain.CompletionDone,
		Evaluation: &domain.Evaluation{PurchasedTicket: true},
	}
	if err := fx.guests.Insert(context.Background(), entry); err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending, err := fx.svc.ListPending(context.Background(), "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want none: evaluated pair must not re-synthesize", pending)
	}
}

func TestStartSessionRequiresClosedEvent(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusActive)
	if _, err := fx.svc.StartSession(context.Background(), "promoter-1", event.ID); err == nil {
		t.Fatal("expected error starting session on an active event")
	}
}

func TestSubmitHonorsTierOverride(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierHot)
	ctx := context.Background()

	session, err := fx.svc.StartSession(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := session.Select(-client.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := session.SetAttendance(true); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}
	if err := session.SetDetails(domain.SourcePromoter, domain.AccompanimentAlone, 3, ""); err != nil {
		t.Fatalf("SetDetails: %v", err)
	}
	// Suggestion for an attending hot client is unchanged; the promoter
	// demotes anyway.
	if err := session.OverrideTier(domain.TierMedium); err != nil {
		t.Fatalf("OverrideTier: %v", err)
	}

	result, err := fx.svc.Submit(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.TierChanged || result.FinalTier != domain.TierMedium {
		t.Fatalf("tier change = %v/%s, want true/MEDIUM", result.TierChanged, result.FinalTier)
	}
	updated, _ := fx.clients.GetByID(ctx, client.ID)
	if updated.Tier != domain.TierMedium || updated.IsRecurrent {
		t.Fatalf("override not applied: tier=%s recurrent=%v", updated.Tier, updated.IsRecurrent)
	}
}

func TestSubmitSyntheticEntryInsertsAndPromotes(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierCold)
	ctx := context.Background()

	session, err := fx.svc.StartSession(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := session.Select(-client.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := session.SetAttendance(true); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}
	if err := session.SetDetails(domain.SourcePromoter, domain.AccompanimentFriends, 4, "solid"); err != nil {
		t.Fatalf("SetDetails: %v", err)
	}

	result, err := fx.svc.Submit(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Done {
		t.Fatal("single entry submitted, session should be done")
	}
	if !result.TierChanged || result.FinalTier != domain.TierMedium {
		t.Fatalf("tier change = %v/%s, want true/MEDIUM", result.TierChanged, result.FinalTier)
	}
	if result.Entry.Synthetic() {
		t.Fatal("persisted entry must have a real id")
	}
	if result.Entry.Completion != domain.CompletionDone {
		t.Fatalf("completion = %s, want DONE", result.Entry.Completion)
	}

	stored, err := fx.guests.GetByEventClient(ctx, event.ID, client.ID)
	if err != nil {
		t.Fatalf("stored entry: %v", err)
	}
	if stored.Attendance != domain.AttendanceCheckedIn {
		t.Fatalf("attendance = %s, want CHECKED_IN", stored.Attendance)
	}
	updated, _ := fx.clients.GetByID(ctx, client.ID)
	if updated.Tier != domain.TierMedium {
		t.Fatalf("client tier = %s, want MEDIUM", updated.Tier)
	}
	if _, ok := fx.sessions.Get("promoter-1", event.ID); ok {
		t.Fatal("finished session should be dropped")
	}
	if fx.dispatcher.count(events.EventEvaluationSubmitted) != 1 {
		t.Fatal("expected one evaluation_submitted event")
	}
	if fx.dispatcher.count(events.EventClientTierChanged) != 1 {
		t.Fatal("expected one tier_changed event")
	}

	// Next pending listing excludes the evaluated pair.
	pending, err := fx.svc.ListPending(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after submit = %+v, want none", pending)
	}
}

func TestSubmitNoShowKeepsUnchangedTierWriteFree(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierVIP)
	ctx := context.Background()

	session, err := fx.svc.StartSession(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := session.Select(-client.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := session.SetAttendance(false); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}

	result, err := fx.svc.Submit(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.TierChanged {
		t.Fatal("vip no-show is sticky, no tier write expected")
	}
	if fx.clients.tierWrites != 0 {
		t.Fatalf("tier writes = %d, want 0", fx.clients.tierWrites)
	}
	stored, err := fx.guests.GetByEventClient(ctx, event.ID, client.ID)
	if err != nil {
		t.Fatalf("stored entry: %v", err)
	}
	if stored.Attendance != domain.AttendanceNoShow {
		t.Fatalf("attendance = %s, want NO_SHOW", stored.Attendance)
	}
	if stored.Evaluation == nil || stored.Evaluation.PurchasedTicket {
		t.Fatal("no-show must not count as purchased")
	}
}

func TestCloseEvaluationRejectsUnresolvedAttendance(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierCold)
	ctx := context.Background()

	entry := &domain.GuestEntry{
		EventID:    event.ID,
		ClientID:   client.ID,
		OwnerID:    "promoter-1",
		Attendance: domain.AttendanceConfirmed,
		Completion: domain.CompletionPending,
	}
	if err := fx.guests.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	err := fx.guests.CloseEvaluation(ctx, entry.ID, repository.EvaluationPatch{
		Attendance: domain.AttendanceConfirmed,
	})
	if !errors.Is(err, repository.ErrAttendanceUnresolved) {
		t.Fatalf("CloseEvaluation = %v, want ErrAttendanceUnresolved", err)
	}
	stored, _ := fx.guests.GetByID(ctx, entry.ID)
	if stored.Completion.Closed() {
		t.Fatal("rejected close must leave the entry pending")
	}
}

func TestSubmitTierFailureKeepsLedgerAndRetries(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierCold)
	ctx := context.Background()

	session, err := fx.svc.StartSession(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := session.Select(-client.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := session.SetAttendance(true); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}

	fx.clients.setTierErr = errors.New("tier storage down")
	if _, err := fx.svc.Submit(ctx, "promoter-1", event.ID); !errors.Is(err, ErrTierUpdateFailed) {
		t.Fatalf("Submit = %v, want ErrTierUpdateFailed", err)
	}

	// The evaluation is durable even though the submit failed.
	stored, err := fx.guests.GetByEventClient(ctx, event.ID, client.ID)
	if err != nil {
		t.Fatalf("stored entry: %v", err)
	}
	if stored.Completion != domain.CompletionDone {
		t.Fatalf("completion = %s, want DONE", stored.Completion)
	}
	// The session still holds the entry so the promoter can retry.
	if _, ok := fx.sessions.Get("promoter-1", event.ID); !ok {
		t.Fatal("session should survive a failed submit")
	}

	fx.clients.setTierErr = nil
	result, err := fx.svc.Submit(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if !result.Done || !result.TierChanged {
		t.Fatalf("retry result = %+v, want done with tier change", result)
	}
	if fx.guests.closes != 1 {
		t.Fatalf("ledger closes = %d, want exactly 1 despite retry", fx.guests.closes)
	}
	updated, _ := fx.clients.GetByID(ctx, client.ID)
	if updated.Tier != domain.TierMedium {
		t.Fatalf("client tier = %s, want MEDIUM after retry", updated.Tier)
	}
}

func TestSubmitConcurrentInsertFallsBackToStoredRow(t *testing.T) {
	fx := newEvaluationFixture()
	event := fx.eventsRepo.add(domain.EventStatusClosed)
	client := fx.clients.add("promoter-1", domain.TierCold)
	ctx := context.Background()

	session, err := fx.svc.StartSession(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := session.Select(-client.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := session.SetAttendance(true); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}

	// Another device materializes the pair before this submit lands.
	raced := &domain.GuestEntry{
		EventID:    event.ID,
		ClientID:   client.ID,
		OwnerID:    "promoter-1",
		Attendance: domain.AttendanceConfirmed,
		Completion: domain.CompletionPending,
	}
	if err := fx.guests.Insert(ctx, raced); err != nil {
		t.Fatalf("raced insert: %v", err)
	}

	result, err := fx.svc.Submit(ctx, "promoter-1", event.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Entry.ID != raced.ID {
		t.Fatalf("submit closed entry %d, want the stored row %d", result.Entry.ID, raced.ID)
	}
	if result.Entry.Completion != domain.CompletionDone {
		t.Fatalf("completion = %s, want DONE", result.Entry.Completion)
	}
}
