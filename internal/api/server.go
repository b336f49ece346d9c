package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// NewApp builds the fiber application with middleware and every route.
func NewApp(handler *Handler, log *zap.Logger) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "rehab360",
		DisableStartupMessage: true,
		BodyLimit:             1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${status} ${method} ${path} ${latency}\n",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
		Output:     zap.NewStdLog(log.Named("http")).Writer(),
	}))

	RegisterRoutes(app, handler)
	app.Use(func(c *fiber.Ctx) error {
		return apiError(c, fiber.StatusNotFound, "not found")
	})
	return app
}
