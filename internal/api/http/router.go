package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/api/http/handlers"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Tickets      *handlers.TicketsHandler
	Users        *handlers.UsersHandler
	Views        *handlers.ViewsHandler
	Guard        *auth.Guard
	LoginLimiter *LoginRateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Post("/auth", cfg.LoginLimiter.Handler(), cfg.Auth.Login)
	api.Post("/auth/logout", cfg.Auth.Logout)

	protected := api.Group("", cfg.Guard.API())

	tickets := protected.Group("/tickets")
	tickets.Get("", auth.Permit(auth.ResourceTicket, auth.ActionList), cfg.Tickets.ListTickets)
	tickets.Post("", auth.Permit(auth.ResourceTicket, auth.ActionCreate), cfg.Tickets.CreateTicket)
	tickets.Patch("", cfg.Tickets.UpdateTicket)

	users := protected.Group("/usuarios")
	users.Get("", auth.Permit(auth.ResourceUser, auth.ActionList), cfg.Users.ListUsers)
	users.Post("", auth.Permit(auth.ResourceUser, auth.ActionCreate), cfg.Users.CreateUser)
	users.Patch("/:id", auth.Permit(auth.ResourceUser, auth.ActionUpdate), cfg.Users.UpdateUser)
	users.Delete("/:id", auth.Permit(auth.ResourceUser, auth.ActionDelete), cfg.Users.DeleteUser)

	app.Get("/", cfg.Guard.Optional(), cfg.Views.Root)
	app.Get("/login", cfg.Guard.Optional(), cfg.Views.Login)

	admin := app.Group("/admin", cfg.Guard.Pages(auth.ResourceAdminViews))
	admin.Get("/tickets", cfg.Views.AdminTickets)
	admin.Get("/usuarios", cfg.Views.AdminUsers)

	app.Get("/employee/tickets", cfg.Guard.Pages(auth.ResourceEmployeeViews), cfg.Views.EmployeeTickets)
	app.Get("/requester/tickets", cfg.Guard.Pages(auth.ResourceRequesterViews), cfg.Views.RequesterTickets)
}
