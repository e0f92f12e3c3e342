package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/promoter-service/internal/api/http/handlers"
	"github.com/spec-kit/promoter-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Clients        *handlers.ClientsHandler
	Events         *handlers.EventsHandler
	Guests         *handlers.GuestsHandler
	Sales          *handlers.SalesHandler
	Evaluations    *handlers.EvaluationsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	account := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	account.Get("/me", cfg.Auth.Me)
	account.Post("/logout", cfg.Auth.Logout)
	account.Post("/onboarding/complete", cfg.Auth.CompleteOnboarding)
	account.Post("/password/change", cfg.Auth.ChangePassword)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	clients := api.Group("/clients")
	clients.Post("", cfg.Clients.CreateClient)
	clients.Get("", cfg.Clients.ListClients)
	clients.Get("/:id", cfg.Clients.GetClient)
	clients.Put("/:id", cfg.Clients.UpdateClient)
	clients.Put("/:id/tier", cfg.Clients.SetTier)
	clients.Get("/:id/history", cfg.Clients.History)

	events := api.Group("/events")
	events.Get("", cfg.Events.ListUpcoming)
	events.Get("/closed", cfg.Events.ListRecentClosed)
	events.Get("/:id", cfg.Events.GetEvent)
	events.Post("/:id/guests", cfg.Guests.AddGuest)
	events.Get("/:id/guests", cfg.Guests.ListGuests)

	evaluations := events.Group("/:id/evaluations")
	evaluations.Get("/pending", cfg.Evaluations.ListPending)
	evaluations.Post("/session", cfg.Evaluations.StartSession)
	evaluations.Get("/session", cfg.Evaluations.GetSession)
	evaluations.Post("/session/select", cfg.Evaluations.SelectEntry)
	evaluations.Post("/session/attendance", cfg.Evaluations.SetAttendance)
	evaluations.Post("/session/details", cfg.Evaluations.SetDetails)
	evaluations.Post("/session/tier", cfg.Evaluations.OverrideTier)
	evaluations.Post("/session/submit", cfg.Evaluations.Submit)

	api.Post("/guests/:id/attendance", cfg.Guests.RecordAttendance)

	sales := api.Group("/sales")
	sales.Post("", cfg.Sales.RecordSale)
	sales.Get("", cfg.Sales.ListSales)
	sales.Get("/totals", cfg.Sales.Totals)

	api.Get("/dashboard", cfg.Dashboard.Overview)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/events", cfg.Events.CreateEvent)
	admin.Put("/events/:id", cfg.Events.UpdateEvent)
	admin.Post("/events/:id/activate", cfg.Events.Activate)
	admin.Post("/events/:id/close", cfg.Events.Close)
	admin.Post("/events/:id/reactivate", cfg.Events.Reactivate)
}
