package routes

import (
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Setup registers every route of the API on app.
func Setup(app *fiber.App, h *handlers.Handler, gatherer prometheus.Gatherer) {
	PublicRoutes(app, gatherer)

	api := app.Group("/api/v1")
	AuthRoutes(api, h)
	ProfileRoutes(api, h)
	AdminRoutes(api, h)
	SessionRequestRoutes(api, h)
	CalendarRoutes(api, h)
	WebSocketRoutes(api, h)
}
