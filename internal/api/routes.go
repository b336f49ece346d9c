package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	registerAPIRoutes(app, handler)
	registerFunctionRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/change-password", handler.AuthRequired, handler.ChangePassword)

	dailyLogs := api.Group("/daily-logs", handler.AuthRequired, handler.PasswordChangeGate)
	dailyLogs.Get("", handler.ListDailyLogs)
	dailyLogs.Put("", handler.UpsertDailyLog)
	dailyLogs.Patch("/:id", handler.UpdateDailyLog)
	dailyLogs.Delete("", handler.DeleteDailyLogs)
}

func registerFunctionRoutes(app *fiber.App, handler *Handler) {
	functions := app.Group("/functions/v1", handler.AuthRequired, handler.PasswordChangeGate)
	functions.Post("/chat", handler.Chat)
	functions.Post("/predict", handler.Predict)
}
