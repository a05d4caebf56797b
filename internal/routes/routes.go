package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/inkpress/backoffice/internal/config"
	"github.com/inkpress/backoffice/internal/handlers"
	"github.com/inkpress/backoffice/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	logsHandler *handlers.LogsHandler,
	bookHandler *handlers.BookHandler,
	contactHandler *handlers.ContactHandler,
	mediaHandler *handlers.MediaHandler,
	systemHandler *handlers.SystemHandler,
) {
	// Throttle for unauthenticated write endpoints (contact form,
	// browser log relay).
	publicLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	})

	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/api/books", bookHandler.ListPublicBooks)
	app.Post("/api/contact", publicLimiter, contactHandler.Submit)
	app.Post("/api/logs/client", publicLimiter, logsHandler.ClientLog)

	// ─── Auth ────────────────────────────────────────────────────────────
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)
	app.Get("/api/auth/me", middleware.JWTProtected(cfg.JWTSecret), authHandler.Me)

	// ─── Admin (protected) ───────────────────────────────────────────────
	admin := app.Group("/api/admin", middleware.JWTProtected(cfg.JWTSecret))

	// Audit logs
	admin.Get("/logs", logsHandler.ListLogs)
	admin.Delete("/logs", logsHandler.DeleteLogs)
	admin.Get("/logs/stats", logsHandler.Stats)

	// Books
	admin.Get("/books", bookHandler.ListBooks)
	admin.Post("/books", bookHandler.CreateBook)
	admin.Get("/books/:id", bookHandler.GetBook)
	admin.Put("/books/:id", bookHandler.UpdateBook)
	admin.Delete("/books/:id", bookHandler.DeleteBook)

	// Contact inbox
	admin.Get("/contact", contactHandler.ListMessages)
	admin.Put("/contact/:id/read", contactHandler.MarkRead)
	admin.Delete("/contact/:id", contactHandler.DeleteMessage)

	// Media library; disabled when object storage is not configured
	if mediaHandler != nil {
		admin.Post("/media", mediaHandler.Upload)
		admin.Get("/media", mediaHandler.List)
	} else {
		admin.All("/media", func(c *fiber.Ctx) error {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   true,
				"message": "Object storage is not configured",
			})
		})
	}
}
