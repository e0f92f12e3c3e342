package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/domain"
)

type fakeSaleRepo struct {
	sales  []domain.Sale
	nextID int64
}

func (f *fakeSaleRepo) Insert(_ context.Context, sale *domain.Sale) error {
	f.nextID++
	sale.ID = f.nextID
	f.sales = append(f.sales, *sale)
	return nil
}

func (f *fakeSaleRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.Sale, error) {
	var result []domain.Sale
	for _, sale := range f.sales {
		if sale.UserID == userID {
			result = append(result, sale)
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (f *fakeSaleRepo) TotalsByUser(_ context.Context, userID string) (domain.SaleTotals, error) {
	var totals domain.SaleTotals
	for _, sale := range f.sales {
		if sale.UserID == userID {
			totals.Tickets += sale.Quantity
			totals.Commission += sale.CommissionAmount
		}
	}
	return totals, nil
}

func (f *fakeSaleRepo) Totals(_ context.Context) (domain.SaleTotals, error) {
	var totals domain.SaleTotals
	for _, sale := range f.sales {
		totals.Tickets += sale.Quantity
		totals.Commission += sale.CommissionAmount
	}
	return totals, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(f.users), nil
}

type fakeProfileRepo struct {
	profiles map[string]*domain.Profile
}

func (f *fakeProfileRepo) Get(_ context.Context, userID string) (*domain.Profile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return profile, nil
}

func (f *fakeProfileRepo) Create(_ context.Context, profile *domain.Profile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func (f *fakeProfileRepo) Update(_ context.Context, profile *domain.Profile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func (f *fakeProfileRepo) SetOnboardingCompleted(_ context.Context, userID string) error {
	if profile, ok := f.profiles[userID]; ok {
		profile.OnboardingCompleted = true
	}
	return nil
}

func (f *fakeProfileRepo) SetActive(_ context.Context, userID string, active bool) error {
	if profile, ok := f.profiles[userID]; ok {
		profile.Active = active
	}
	return nil
}

func (f *fakeProfileRepo) ListByRole(_ context.Context, role domain.Role, activeOnly bool) ([]domain.Profile, error) {
	var result []domain.Profile
	for _, profile := range f.profiles {
		if profile.Role != role {
			continue
		}
		if activeOnly && !profile.Active {
			continue
		}
		result = append(result, *profile)
	}
	return result, nil
}

func newDashboardFixture() (*DashboardService, *fakeClientRepo, *fakeSaleRepo, *fakeEventRepo, *fakeGuestRepo) {
	clients := newFakeClientRepo()
	guests := newFakeGuestRepo(clients)
	sales := &fakeSaleRepo{}
	eventsRepo := newFakeEventRepo()
	svc := NewDashboardService(DashboardDependencies{
		ClientRepo:  clients,
		GuestRepo:   guests,
		SaleRepo:    sales,
		EventRepo:   eventsRepo,
		UserRepo:    &fakeUserRepo{users: map[string]*domain.User{}},
		ProfileRepo: &fakeProfileRepo{profiles: map[string]*domain.Profile{}},
		Logger:      zap.NewNop(),
	})
	return svc, clients, sales, eventsRepo, guests
}

func TestPromoterOverviewAggregates(t *testing.T) {
	svc, clients, sales, eventsRepo, guests := newDashboardFixture()
	ctx := context.Background()

	clients.add("promoter-1", domain.TierHot)
	clients.add("promoter-1", domain.TierHot)
	clients.add("promoter-1", domain.TierCold)
	clients.add("promoter-1", domain.TierCold)
	clients.add("someone-else", domain.TierVIP)

	_ = sales.Insert(ctx, &domain.Sale{UserID: "promoter-1", EventID: 1, Quantity: 8, CommissionAmount: 40})
	_ = sales.Insert(ctx, &domain.Sale{UserID: "promoter-1", EventID: 1, Quantity: 4, CommissionAmount: 20})

	closed := eventsRepo.add(domain.EventStatusClosed)
	pendingClient := clients.add("promoter-1", domain.TierMedium)
	entry := &domain.GuestEntry{
		EventID:    closed.ID,
		ClientID:   pendingClient.ID,
		OwnerID:    "promoter-1",
		Attendance: domain.AttendanceConfirmed,
		Completion: domain.CompletionPending,
	}
	if err := guests.Insert(ctx, entry); err != nil {
		t.Fatalf("insert: %v", err)
	}

	overview, err := svc.Overview(ctx, "promoter-1", domain.RolePromoter, domain.LevelBeginner)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Promoter == nil || overview.Coordinator != nil || overview.Admin != nil {
		t.Fatal("promoter role must produce exactly the promoter variant")
	}
	p := overview.Promoter
	if p.TotalClients != 5 {
		t.Fatalf("total clients = %d, want 5 (owner scoped)", p.TotalClients)
	}
	if p.RecurrentClients != 2 {
		t.Fatalf("recurrent = %d, want 2", p.RecurrentClients)
	}
	if p.RecurrenceRate != 0.4 {
		t.Fatalf("recurrence rate = %v, want 0.4", p.RecurrenceRate)
	}
	if p.TicketsSold != 12 || p.Commission != 60 {
		t.Fatalf("sales totals = %d/%v, want 12/60", p.TicketsSold, p.Commission)
	}
	if len(p.PendingByEvent) != 1 || p.PendingByEvent[0].PendingCount != 1 {
		t.Fatalf("pending summary = %+v, want one event with one open evaluation", p.PendingByEvent)
	}
}

func TestPromoterAchievements(t *testing.T) {
	svc, clients, sales, _, _ := newDashboardFixture()
	ctx := context.Background()

	clients.add("promoter-1", domain.TierCold)
	_ = sales.Insert(ctx, &domain.Sale{UserID: "promoter-1", EventID: 1, Quantity: 3, CommissionAmount: 15})

	overview, err := svc.Overview(ctx, "promoter-1", domain.RolePromoter, domain.LevelBeginner)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	unlocked := map[string]bool{}
	for _, achievement := range overview.Promoter.Achievements {
		unlocked[achievement.Code] = achievement.Unlocked
	}
	if !unlocked["first_client"] || !unlocked["first_sale"] {
		t.Fatalf("first_client/first_sale should unlock: %+v", unlocked)
	}
	if unlocked["ten_tickets"] || unlocked["five_recurrent"] {
		t.Fatalf("ten_tickets/five_recurrent should stay locked: %+v", unlocked)
	}
}

func TestLevelProgressCapsAtOne(t *testing.T) {
	if got := levelProgress(domain.LevelBeginner, 10); got != 0.4 {
		t.Fatalf("progress(10/25) = %v, want 0.4", got)
	}
	if got := levelProgress(domain.LevelBeginner, 100); got != 1 {
		t.Fatalf("progress over threshold = %v, want capped 1", got)
	}
	if got := levelProgress(domain.LevelCoordinator, 0); got != 1 {
		t.Fatalf("coordinator progress = %v, want 1 (outside the track)", got)
	}
}

func TestAdminOverviewVariant(t *testing.T) {
	svc, _, sales, eventsRepo, _ := newDashboardFixture()
	ctx := context.Background()

	eventsRepo.add(domain.EventStatusActive)
	eventsRepo.add(domain.EventStatusClosed)
	_ = sales.Insert(ctx, &domain.Sale{UserID: "promoter-1", EventID: 1, Quantity: 5, CommissionAmount: 25})

	overview, err := svc.Overview(ctx, "admin-1", domain.RoleAdmin, domain.LevelCoordinator)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Admin == nil || overview.Promoter != nil {
		t.Fatal("admin role must produce the admin variant")
	}
	if overview.Admin.TotalEvents != 2 {
		t.Fatalf("total events = %d, want 2", overview.Admin.TotalEvents)
	}
	if len(overview.Admin.ActiveEvents) != 1 {
		t.Fatalf("active events = %d, want 1", len(overview.Admin.ActiveEvents))
	}
	if overview.Admin.TicketsSold != 5 {
		t.Fatalf("tickets = %d, want 5", overview.Admin.TicketsSold)
	}
}
