package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/promoter-service/internal/api/http"
	"github.com/spec-kit/promoter-service/internal/api/http/handlers"
	"github.com/spec-kit/promoter-service/internal/auth"
	"github.com/spec-kit/promoter-service/internal/config"
	"github.com/spec-kit/promoter-service/internal/events"
	"github.com/spec-kit/promoter-service/internal/observability"
	"github.com/spec-kit/promoter-service/internal/persistence"
	"github.com/spec-kit/promoter-service/internal/repository"
	"github.com/spec-kit/promoter-service/internal/service"
	"github.com/spec-kit/promoter-service/internal/worker"
	"github.com/spec-kit/promoter-service/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	clientRepo := repository.NewClientRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	guestRepo := repository.NewGuestRepository(pool)
	saleRepo := repository.NewSaleRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	sessions := workflow.NewManager()

	var reminders service.ReminderScheduler
	var reminderScheduler *worker.Scheduler
	var workerServer *worker.Server
	if cfg.Worker.Enabled {
		reminderScheduler = worker.NewScheduler(cfg.Redis, cfg.Worker.ReminderDelay(), logger)
		defer reminderScheduler.Close() //nolint:errcheck
		reminders = reminderScheduler

		workerServer = worker.NewServer(cfg.Redis, cfg.Worker, worker.ServerDependencies{
			GuestRepo: guestRepo,
			EventRepo: eventRepo,
			Logger:    logger,
		})
		if err := workerServer.Start(); err != nil {
			logger.Fatal("failed to start worker", zap.Error(err))
		}
		defer workerServer.Shutdown()
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		ProfileRepo:       profileRepo,
		PasswordResetRepo: resetRepo,
		Logger:            logger,
	})
	clientService := service.NewClientService(service.ClientDependencies{
		ClientRepo: clientRepo,
		GuestRepo:  guestRepo,
		Dispatcher: dispatcher,
	})
	eventService := service.NewEventService(service.EventDependencies{
		EventRepo:  eventRepo,
		Dispatcher: dispatcher,
		Reminders:  reminders,
		Logger:     logger,
	})
	guestService := service.NewGuestService(service.GuestDependencies{
		GuestRepo:  guestRepo,
		ClientRepo: clientRepo,
		EventRepo:  eventRepo,
	})
	saleService := service.NewSaleService(service.SaleDependencies{
		SaleRepo:   saleRepo,
		EventRepo:  eventRepo,
		Dispatcher: dispatcher,
	})
	evaluationService := service.NewEvaluationService(service.EvaluationDependencies{
		GuestRepo:     guestRepo,
		ClientRepo:    clientRepo,
		EventRepo:     eventRepo,
		ClientService: clientService,
		Sessions:      sessions,
		Dispatcher:    dispatcher,
		Logger:        logger,
		SampleMax:     cfg.Dashboard.PendingSampleMax,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		ClientRepo:  clientRepo,
		GuestRepo:   guestRepo,
		SaleRepo:    saleRepo,
		EventRepo:   eventRepo,
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Cache:       redis,
		CacheTTL:    cfg.Dashboard.CacheTTL(),
		Logger:      logger,
	})
	dashboardService.RegisterInvalidationHooks(dispatcher)

	notificationService := service.NewNotificationService(cfg.Notification, logger)
	notificationService.Register(dispatcher)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, authService)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Clients:        handlers.NewClientsHandler(clientService),
		Events:         handlers.NewEventsHandler(eventService),
		Guests:         handlers.NewGuestsHandler(guestService),
		Sales:          handlers.NewSalesHandler(saleService),
		Evaluations:    handlers.NewEvaluationsHandler(evaluationService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
