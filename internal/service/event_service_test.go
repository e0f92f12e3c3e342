package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/domain"
)

type fakeScheduler struct {
	scheduled []int64
	err       error
}

func (f *fakeScheduler) ScheduleEvaluationReminder(_ context.Context, eventID int64) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, eventID)
	return nil
}

func newEventFixture() (*EventService, *fakeEventRepo, *fakeScheduler, *recordingDispatcher) {
	eventsRepo := newFakeEventRepo()
	scheduler := &fakeScheduler{}
	dispatcher := &recordingDispatcher{}
	svc := NewEventService(EventDependencies{
		EventRepo:  eventsRepo,
		Dispatcher: dispatcher,
		Reminders:  scheduler,
		Logger:     zap.NewNop(),
	})
	return svc, eventsRepo, scheduler, dispatcher
}

func TestCreateEventStartsUpcoming(t *testing.T) {
	svc, _, _, _ := newEventFixture()
	event, err := svc.CreateEvent(context.Background(), EventCreateInput{
		Name:                "Sunset Sessions",
		Date:                time.Now().Add(72 * time.Hour),
		CommissionPerTicket: 5,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.Status != domain.EventStatusUpcoming {
		t.Fatalf("status = %s, want UPCOMING", event.Status)
	}
}

func TestUpdateEventKeepsStatus(t *testing.T) {
	svc, eventsRepo, _, _ := newEventFixture()
	event := eventsRepo.add(domain.EventStatusActive)

	updated, err := svc.UpdateEvent(context.Background(), event.ID, EventCreateInput{
		Name:                "Sunset Sessions vol. 2",
		Date:                time.Now().Add(96 * time.Hour),
		CommissionPerTicket: 8,
	})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.Name != "Sunset Sessions vol. 2" || updated.CommissionPerTicket != 8 {
		t.Fatalf("details not applied: %+v", updated)
	}
	if updated.Status != domain.EventStatusActive {
		t.Fatal("edit must not move the lifecycle")
	}

	if _, err := svc.UpdateEvent(context.Background(), event.ID, EventCreateInput{Name: " "}); err == nil {
		t.Fatal("blank name should fail")
	}
}

func TestLifecycleIsMonotonic(t *testing.T) {
	svc, eventsRepo, _, _ := newEventFixture()
	ctx := context.Background()
	event := eventsRepo.add(domain.EventStatusUpcoming)

	if _, err := svc.Activate(ctx, event.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, err := svc.Close(ctx, event.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closed is terminal for the normal transitions.
	if _, err := svc.Activate(ctx, event.ID); err == nil {
		t.Fatal("activating a closed event must fail")
	}
	// Re-closing is an idempotent no-op, not an error.
	closed, err := svc.Close(ctx, event.ID)
	if err != nil {
		t.Fatalf("re-close: %v", err)
	}
	if closed.Status != domain.EventStatusClosed {
		t.Fatalf("status = %s, want CLOSED", closed.Status)
	}
}

func TestCloseSchedulesReminder(t *testing.T) {
	svc, eventsRepo, scheduler, _ := newEventFixture()
	event := eventsRepo.add(domain.EventStatusActive)

	if _, err := svc.Close(context.Background(), event.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(scheduler.scheduled) != 1 || scheduler.scheduled[0] != event.ID {
		t.Fatalf("scheduled = %v, want [%d]", scheduler.scheduled, event.ID)
	}
}

func TestCloseSurvivesSchedulerFailure(t *testing.T) {
	svc, eventsRepo, scheduler, _ := newEventFixture()
	scheduler.err = context.DeadlineExceeded
	event := eventsRepo.add(domain.EventStatusActive)

	closed, err := svc.Close(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Close with failing scheduler: %v", err)
	}
	if closed.Status != domain.EventStatusClosed {
		t.Fatalf("status = %s, want CLOSED despite reminder failure", closed.Status)
	}
}

func TestReactivateReopensClosedEvent(t *testing.T) {
	svc, eventsRepo, _, _ := newEventFixture()
	event := eventsRepo.add(domain.EventStatusClosed)

	reopened, err := svc.Reactivate(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if reopened.Status != domain.EventStatusActive {
		t.Fatalf("status = %s, want ACTIVE", reopened.Status)
	}
}
