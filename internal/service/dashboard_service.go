package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/promoter-service/internal/domain"
	"github.com/spec-kit/promoter-service/internal/events"
	"github.com/spec-kit/promoter-service/internal/persistence"
	"github.com/spec-kit/promoter-service/internal/repository"
)

// Achievement is a named milestone shown on the promoter dashboard.
type Achievement struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
}

// PendingEventSummary is a recently closed event with the promoter's open
// evaluation count.
type PendingEventSummary struct {
	Event        domain.Event `json:"event"`
	PendingCount int          `json:"pending_count"`
}

// PromoterOverview is the promoter dashboard payload.
type PromoterOverview struct {
	TotalClients     int                       `json:"total_clients"`
	RecurrentClients int                       `json:"recurrent_clients"`
	RecurrenceRate   float64                   `json:"recurrence_rate"`
	TierBreakdown    map[domain.ClientTier]int `json:"tier_breakdown"`
	TicketsSold      int                       `json:"tickets_sold"`
	Commission       float64                   `json:"commission"`
	Level            domain.Level              `json:"level"`
	LevelProgress    float64                   `json:"level_progress"`
	NextEvent        *domain.Event             `json:"next_event,omitempty"`
	PendingByEvent   []PendingEventSummary     `json:"pending_by_event"`
	Achievements     []Achievement             `json:"achievements"`
}

// CoordinatorOverview is the coordinator dashboard payload.
type CoordinatorOverview struct {
	TeamSize       int              `json:"team_size"`
	UpcomingEvents []domain.Event   `json:"upcoming_events"`
	TeamTickets    int              `json:"team_tickets"`
	TeamCommission float64          `json:"team_commission"`
	Promoters      []domain.Profile `json:"promoters"`
}

// AdminOverview is the admin dashboard payload.
type AdminOverview struct {
	TotalUsers      int               `json:"total_users"`
	TotalEvents     int               `json:"total_events"`
	TicketsSold     int               `json:"tickets_sold"`
	TotalCommission float64           `json:"total_commission"`
	ActiveEvents    []domain.Event    `json:"active_events"`
	SaleTotals      domain.SaleTotals `json:"sale_totals"`
}

// Overview is the role-dispatched dashboard response. Exactly one variant is
// set, matching Role.
type Overview struct {
	Role        domain.Role          `json:"role"`
	Promoter    *PromoterOverview    `json:"promoter,omitempty"`
	Coordinator *CoordinatorOverview `json:"coordinator,omitempty"`
	Admin       *AdminOverview       `json:"admin,omitempty"`
}

// DashboardService aggregates dashboard figures per role, fronted by a
// short-lived Redis cache. A missing or unreachable cache is silently
// skipped and figures are computed fresh.
type DashboardService struct {
	clients    repository.ClientRepository
	guests     repository.GuestRepository
	sales      repository.SaleRepository
	eventsRepo repository.EventRepository
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	cache      *persistence.Redis
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// DashboardDependencies bundles repositories and the cache.
type DashboardDependencies struct {
	ClientRepo  repository.ClientRepository
	GuestRepo   repository.GuestRepository
	SaleRepo    repository.SaleRepository
	EventRepo   repository.EventRepository
	UserRepo    repository.UserRepository
	ProfileRepo repository.ProfileRepository
	Cache       *persistence.Redis
	CacheTTL    time.Duration
	Logger      *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		clients:    deps.ClientRepo,
		guests:     deps.GuestRepo,
		sales:      deps.SaleRepo,
		eventsRepo: deps.EventRepo,
		users:      deps.UserRepo,
		profiles:   deps.ProfileRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		logger:     deps.Logger,
	}
}

// RegisterInvalidationHooks drops a user's cached dashboard whenever one of
// their aggregated figures changes.
func (s *DashboardService) RegisterInvalidationHooks(dispatcher events.Dispatcher) {
	invalidate := func(ctx context.Context, event events.Event) error {
		s.Invalidate(ctx, event.UserID)
		return nil
	}
	for _, t := range []events.EventType{
		events.EventClientRegistered,
		events.EventClientTierChanged,
		events.EventSaleRecorded,
		events.EventEvaluationSubmitted,
	} {
		dispatcher.Subscribe(t, invalidate)
	}
}

// Overview builds the dashboard for the principal, dispatching on role.
func (s *DashboardService) Overview(ctx context.Context, userID string, role domain.Role, level domain.Level) (*Overview, error) {
	if cached := s.fromCache(ctx, userID, role); cached != nil {
		return cached, nil
	}

	overview := &Overview{Role: role}
	var err error
	switch role {
	case domain.RoleAdmin:
		overview.Admin, err = s.adminOverview(ctx)
	case domain.RoleCoordinator:
		overview.Coordinator, err = s.coordinatorOverview(ctx)
	default:
		overview.Promoter, err = s.promoterOverview(ctx, userID, level)
	}
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, userID, role, overview)
	return overview, nil
}

// Invalidate drops every cached variant for the user.
func (s *DashboardService) Invalidate(ctx context.Context, userID string) {
	if !s.cacheReady() {
		return
	}
	keys := []string{
		cacheKey(userID, domain.RolePromoter),
		cacheKey(userID, domain.RoleCoordinator),
		cacheKey(userID, domain.RoleAdmin),
	}
	if err := s.cache.Client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Debug("dashboard cache invalidation skipped", zap.Error(err))
	}
}

func (s *DashboardService) promoterOverview(ctx context.Context, userID string, level domain.Level) (*PromoterOverview, error) {
	counts, err := s.clients.CountByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	totals, err := s.sales.TotalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	overview := &PromoterOverview{
		TotalClients:     counts.Total,
		RecurrentClients: counts.Recurrent,
		TierBreakdown:    counts.ByTier,
		TicketsSold:      totals.Tickets,
		Commission:       totals.Commission,
		Level:            level,
		LevelProgress:    levelProgress(level, totals.Tickets),
		Achievements:     achievements(counts, totals),
	}
	if counts.Total > 0 {
		overview.RecurrenceRate = float64(counts.Recurrent) / float64(counts.Total)
	}

	upcoming, err := s.eventsRepo.List(ctx, repository.EventFilter{
		Statuses:  []domain.EventStatus{domain.EventStatusUpcoming, domain.EventStatusActive},
		Ascending: true,
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}
	if len(upcoming) > 0 {
		next := upcoming[0]
		overview.NextEvent = &next
	}

	closed, err := s.eventsRepo.List(ctx, repository.EventFilter{
		Statuses: []domain.EventStatus{domain.EventStatusClosed},
		Limit:    3,
	})
	if err != nil {
		return nil, err
	}
	for _, event := range closed {
		pending, err := s.guests.ListPending(ctx, event.ID, userID)
		if err != nil {
			return nil, err
		}
		if len(pending) == 0 {
			continue
		}
		overview.PendingByEvent = append(overview.PendingByEvent, PendingEventSummary{
			Event:        event,
			PendingCount: len(pending),
		})
	}
	return overview, nil
}

func (s *DashboardService) coordinatorOverview(ctx context.Context) (*CoordinatorOverview, error) {
	promoters, err := s.profiles.ListByRole(ctx, domain.RolePromoter, true)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.eventsRepo.List(ctx, repository.EventFilter{
		Statuses:  []domain.EventStatus{domain.EventStatusUpcoming, domain.EventStatusActive},
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}
	totals, err := s.sales.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return &CoordinatorOverview{
		TeamSize:       len(promoters),
		UpcomingEvents: upcoming,
		TeamTickets:    totals.Tickets,
		TeamCommission: totals.Commission,
		Promoters:      promoters,
	}, nil
}

func (s *DashboardService) adminOverview(ctx context.Context) (*AdminOverview, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	eventCount, err := s.eventsRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.sales.Totals(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.eventsRepo.List(ctx, repository.EventFilter{
		Statuses:  []domain.EventStatus{domain.EventStatusActive},
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}
	return &AdminOverview{
		TotalUsers:      userCount,
		TotalEvents:     eventCount,
		TicketsSold:     totals.Tickets,
		TotalCommission: totals.Commission,
		ActiveEvents:    active,
		SaleTotals:      totals,
	}, nil
}

// achievements evaluates the fixed milestone set against current figures.
func achievements(counts repository.TierCounts, totals domain.SaleTotals) []Achievement {
	return []Achievement{
		{Code: "first_client", Name: "First client registered", Unlocked: counts.Total >= 1},
		{Code: "first_sale", Name: "First sale recorded", Unlocked: totals.Tickets >= 1},
		{Code: "ten_tickets", Name: "Ten tickets sold", Unlocked: totals.Tickets >= 10},
		{Code: "five_recurrent", Name: "Five recurrent clients", Unlocked: counts.Recurrent >= 5},
	}
}

// Tickets needed to reach the next level. Coordinator level sits outside the
// promoter sales track.
var levelThresholds = map[domain.Level]int{
	domain.LevelBeginner:     25,
	domain.LevelIntermediate: 100,
}

func levelProgress(level domain.Level, tickets int) float64 {
	threshold, ok := levelThresholds[level]
	if !ok {
		return 1
	}
	progress := float64(tickets) / float64(threshold)
	if progress > 1 {
		return 1
	}
	return progress
}

func cacheKey(userID string, role domain.Role) string {
	return fmt.Sprintf("dashboard:v1:%s:%s", role, userID)
}

func (s *DashboardService) cacheReady() bool {
	return s.cache != nil && s.cache.Client != nil && s.cacheTTL > 0
}

func (s *DashboardService) fromCache(ctx context.Context, userID string, role domain.Role) *Overview {
	if !s.cacheReady() {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, cacheKey(userID, role)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("dashboard cache read skipped", zap.Error(err))
		}
		return nil
	}
	var overview Overview
	if err := json.Unmarshal(raw, &overview); err != nil {
		return nil
	}
	return &overview
}

func (s *DashboardService) toCache(ctx context.Context, userID string, role domain.Role, overview *Overview) {
	if !s.cacheReady() {
		return
	}
	raw, err := json.Marshal(overview)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, cacheKey(userID, role), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("dashboard cache write skipped", zap.Error(err))
	}
}
