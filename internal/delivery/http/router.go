package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/smartcity/incidentmap/internal/metrics"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, publicDir string) {
	// Health check
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Snapshot endpoints
		api.Get("/incidents", handler.GetIncidents)
		api.Get("/incidents/filter", handler.FilterIncidents)
		api.Get("/vocabularies", handler.GetVocabularies)
		api.Get("/boundaries", handler.GetBoundaries)

		// Filter sessions
		sessions := api.Group("/sessions")
		sessions.Post("/", handler.CreateSession)
		sessions.Get("/:id", handler.GetSession)
		sessions.Post("/:id/events", handler.HandleEvent)
		sessions.Patch("/:id/filter", handler.UpdateFilter)
		sessions.Delete("/:id", handler.CloseSession)
	}

	// Map page
	if publicDir != "" {
		app.Static("/", publicDir)
	}
}

// ErrorHandler renders errors as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
