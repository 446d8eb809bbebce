package handlers

import "github.com/gofiber/fiber/v2"

// Register mounts the API routes on app
func Register(app *fiber.App, dashboard *DashboardHandler, health *HealthHandler) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": serviceName,
			"version": serviceVersion,
			"status":  "running",
		})
	})

	app.Get("/health", health.Health)
	app.Get("/health/ready", health.Ready)

	v1 := app.Group("/v1")
	v1.Get("/catalog", dashboard.GetCatalog)
	v1.Get("/series", dashboard.GetSeries)
	v1.Get("/forecasts", dashboard.GetForecasts)
	v1.Get("/dashboard", dashboard.GetDashboard)

	v1.Post("/sessions", dashboard.CreateSession)
	v1.Delete("/sessions/:id", dashboard.DeleteSession)
	v1.Put("/sessions/:id/selection", dashboard.PutSelection)
	v1.Get("/sessions/:id/dashboard", dashboard.GetSessionDashboard)

	v1.Post("/admin/refresh", dashboard.RefreshCache)
}
