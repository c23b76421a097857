package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sukritx/roommatebase/internal/api/http/handlers"
	"github.com/sukritx/roommatebase/internal/auth"
	"github.com/sukritx/roommatebase/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Rooms          *handlers.RoomsHandler
	Inquiries      *handlers.InquiriesHandler
	Payments       *handlers.PaymentsHandler
	AuthMiddleware *auth.AuthMiddleware
	WriteLimiter   fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	limit := cfg.WriteLimiter
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	authn := cfg.AuthMiddleware.Handle
	owner := auth.RequireRole(domain.RoleOwner)
	student := auth.RequireRole(domain.RoleStudent)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", limit, cfg.Users.Register)
	authGroup.Post("/users/login", limit, cfg.Users.Login)

	users := app.Group("/users/me", authn)
	users.Get("", cfg.Users.Me)
	users.Put("/profile", cfg.Users.UpdateProfile)
	users.Get("/favorites", cfg.Users.ListFavorites)
	users.Post("/favorites/:roomId", cfg.Users.AddFavorite)
	users.Delete("/favorites/:roomId", cfg.Users.RemoveFavorite)

	rooms := app.Group("/rooms")
	rooms.Get("", cfg.Rooms.ListRooms)
	rooms.Post("", authn, owner, limit, cfg.Rooms.CreateRoom)
	rooms.Get("/mine", authn, owner, cfg.Rooms.ListMine)
	rooms.Get("/:id", cfg.Rooms.GetRoom)
	rooms.Put("/:id", authn, owner, cfg.Rooms.UpdateRoom)
	rooms.Post("/:id/fill", authn, owner, cfg.Rooms.MarkFilled)
	rooms.Delete("/:id", authn, owner, cfg.Rooms.DeleteRoom)
	rooms.Get("/:id/inquiries", authn, owner, cfg.Rooms.ListInquiries)

	inquiries := app.Group("/inquiries", authn)
	inquiries.Post("", student, limit, cfg.Inquiries.CreateInquiry)
	inquiries.Get("/mine", student, cfg.Inquiries.ListMine)
	inquiries.Get("/:id", cfg.Inquiries.GetInquiry)
	inquiries.Get("/:id/history", cfg.Inquiries.History)
	inquiries.Patch("/:id/status", cfg.Inquiries.SetStatus)
	inquiries.Post("/:id/withdraw", student, cfg.Inquiries.Withdraw)
	inquiries.Post("/:id/match", student, cfg.Inquiries.ProposeMatch)

	app.Post("/payments/webhook", cfg.Payments.Webhook)
}
