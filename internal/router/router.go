package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/seoblog-api/internal/config"
	"github.com/noah-isme/seoblog-api/internal/handler"
	"github.com/noah-isme/seoblog-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TitleHandler      *handler.TitleHandler
	ProjectHandler    *handler.ProjectHandler
	ProgressHandler   *handler.ProgressHandler
	ChatHandler       *handler.ChatHandler
	JWTMiddleware     fiber.Handler
	GenerationLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.TitleHandler != nil {
		titles := api.Group("/titles", jwtMiddleware)
		if deps.GenerationLimiter != nil {
			titles.Use(deps.GenerationLimiter)
		}
		deps.TitleHandler.Register(titles)
	}

	if deps.ProjectHandler != nil {
		projects := api.Group("/projects", jwtMiddleware)
		deps.ProjectHandler.Register(projects)
		deps.ProjectHandler.RegisterGeneration(projects, deps.GenerationLimiter)

		if deps.ProgressHandler != nil {
			deps.ProgressHandler.Register(projects)
		}
		if deps.ChatHandler != nil {
			deps.ChatHandler.Register(projects, deps.GenerationLimiter)
		}
	}
}
