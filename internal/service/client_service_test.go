package service

import (
	"context"
	"testing"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/events"
)

func newClientFixture() (*ClientService, *fakeClientRepo, *recordingDispatcher) {
	clients := newFakeClientRepo()
	guests := newFakeGuestRepo(clients)
	dispatcher := &recordingDispatcher{}
	svc := NewClientService(ClientDependencies{
		ClientRepo: clients,
		GuestRepo:  guests,
		Dispatcher: dispatcher,
	})
	return svc, clients, dispatcher
}

func TestCreateClientDerivesRecurrent(t *testing.T) {
	svc, _, dispatcher := newClientFixture()

	client, err := svc.CreateClient(context.Background(), "promoter-1", ClientCreateInput{
		Name:     "Ana",
		WhatsApp: "+5511988887777",
		Tier:     domain.TierHot,
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if !client.IsRecurrent {
		t.Fatal("hot client must be recurrent")
	}
	if client.OwnerID != "promoter-1" {
		t.Fatalf("owner = %s, want promoter-1", client.OwnerID)
	}
	if dispatcher.count(events.EventClientRegistered) != 1 {
		t.Fatal("expected client_registered event")
	}
}

func TestCreateClientValidation(t *testing.T) {
	svc, _, _ := newClientFixture()
	if _, err := svc.CreateClient(context.Background(), "promoter-1", ClientCreateInput{WhatsApp: "+55", Tier: domain.TierCold}); err == nil {
		t.Fatal("missing name should fail")
	}
	if _, err := svc.CreateClient(context.Background(), "promoter-1", ClientCreateInput{Name: "Ana", Tier: domain.TierCold}); err == nil {
		t.Fatal("missing whatsapp should fail")
	}
	if _, err := svc.CreateClient(context.Background(), "promoter-1", ClientCreateInput{Name: "Ana", WhatsApp: "+55", Tier: "WARM"}); err == nil {
		t.Fatal("unknown tier should fail")
	}
}

func TestUpdateClientKeepsTier(t *testing.T) {
	svc, _, _ := newClientFixture()

	client, err := svc.CreateClient(context.Background(), "promoter-1", ClientCreateInput{
		Name:     "Ana",
		WhatsApp: "+5511988887777",
		Tier:     domain.TierHot,
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	updated, err := svc.UpdateClient(context.Background(), "promoter-1", client.ID, ClientUpdateInput{
		Name:     "Ana Clara",
		WhatsApp: "+5511900001111",
	})
	if err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}
	if updated.Name != "Ana Clara" || updated.WhatsApp != "+5511900001111" {
		t.Fatalf("fields not applied: %+v", updated)
	}
	if updated.Tier != domain.TierHot || !updated.IsRecurrent {
		t.Fatal("update must not touch the tier or the derived flag")
	}

	if _, err := svc.UpdateClient(context.Background(), "intruder", client.ID, ClientUpdateInput{
		Name: "X", WhatsApp: "+55",
	}); err == nil {
		t.Fatal("foreign owner must not update the client")
	}
}

func TestGetClientEnforcesOwnerScope(t *testing.T) {
	svc, clients, _ := newClientFixture()
	other := clients.add("someone-else", domain.TierCold)

	if _, err := svc.GetClient(context.Background(), "promoter-1", other.ID); err == nil {
		t.Fatal("foreign client must read as not found")
	}
}

func TestSetTierRecomputesRecurrent(t *testing.T) {
	svc, clients, dispatcher := newClientFixture()
	client := clients.add("promoter-1", domain.TierHot)

	if err := svc.SetTier(context.Background(), "promoter-1", client.ID, domain.TierCold); err != nil {
		t.Fatalf("SetTier: %v", err)
	}
	updated, _ := clients.GetByID(context.Background(), client.ID)
	if updated.Tier != domain.TierCold || updated.IsRecurrent {
		t.Fatalf("client = %s recurrent=%v, want COLD non-recurrent", updated.Tier, updated.IsRecurrent)
	}
	if dispatcher.count(events.EventClientTierChanged) != 1 {
		t.Fatal("expected tier_changed event")
	}
}

func TestSetTierSameValueIsNoOp(t *testing.T) {
	svc, clients, dispatcher := newClientFixture()
	client := clients.add("promoter-1", domain.TierMedium)

	if err := svc.SetTier(context.Background(), "promoter-1", client.ID, domain.TierMedium); err != nil {
		t.Fatalf("SetTier: %v", err)
	}
	if clients.tierWrites != 0 {
		t.Fatalf("tier writes = %d, want 0 for unchanged tier", clients.tierWrites)
	}
	if dispatcher.count(events.EventClientTierChanged) != 0 {
		t.Fatal("unchanged tier must not publish")
	}
}
