package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trackdesk/trackdesk/internal/api/http/handlers"
	"github.com/trackdesk/trackdesk/internal/auth"
	"github.com/trackdesk/trackdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Role gating mirrors the dashboard
// guard: anonymous callers land on /login, callers with the wrong role
// are sent to their own dashboard.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	app.Get("/dashboard", cfg.AuthMiddleware.Handle, cfg.Dashboard.Resolve)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("", auth.RequireRoles(domain.RoleClient), cfg.Tickets.Create)
	tickets.Get("", auth.RequireRoles(domain.RoleClient, domain.RoleClientHead, domain.RoleEmployee, domain.RoleProjectManager), cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/assign", auth.RequireRoles(domain.RoleProjectManager), cfg.Tickets.Assign)
	tickets.Patch("/:id/status", auth.RequireRoles(domain.RoleEmployee, domain.RoleClientHead), cfg.Tickets.SetStatus)
	tickets.Post("/:id/comments", auth.RequireRoles(domain.RoleEmployee), cfg.Tickets.AddComment)

	api.Get("/employees", auth.RequireRoles(domain.RoleProjectManager, domain.RoleAdmin), cfg.Tickets.ListEmployees)

	users := api.Group("/users", auth.RequireRoles(domain.RoleAdmin))
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
}
