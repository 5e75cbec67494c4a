package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Ticket and comment reads are public
// (identity, when present, scopes the "mine" filter and internal-comment
// visibility); every mutation requires a session, and destructive or
// roster operations additionally require the admin role.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.AuthMiddleware.HandleOptional, cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.AuthMiddleware.Handle, cfg.Tickets.CreateTicket)
	tickets.Post("/bulk-delete", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Tickets.BulkDelete)
	tickets.Get("/:id", cfg.AuthMiddleware.HandleOptional, cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.AuthMiddleware.Handle, cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Tickets.DeleteTicket)

	tickets.Get("/:id/comments", cfg.AuthMiddleware.HandleOptional, cfg.Comments.ListComments)
	tickets.Post("/:id/comments", cfg.AuthMiddleware.Handle, cfg.Comments.AddComment)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	users.Get("/", cfg.Users.ListUsers)
	users.Post("/", cfg.Users.CreateUser)
	users.Patch("/:id", cfg.Users.UpdateUser)
	users.Delete("/:id", cfg.Users.DeleteUser)
}
