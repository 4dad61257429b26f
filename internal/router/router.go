package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/deployeval/internal/config"
	"github.com/noah-isme/deployeval/internal/handler"
	"github.com/noah-isme/deployeval/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	NotificationHandler *handler.NotificationHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.NotificationHandler != nil {
		app.Get("/", deps.NotificationHandler.Root)
		deps.NotificationHandler.Register(app)
	}
}
