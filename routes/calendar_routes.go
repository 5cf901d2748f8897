package routes

import (
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/gofiber/fiber/v2"
)

func CalendarRoutes(api fiber.Router, h *handlers.Handler) {
	cal := api.Group("/calendar")

	// Google redirects here without a bearer token; the state parameter carries the user.
	cal.Get("/callback", h.CalendarCallback)

	protected := middleware.Protected(h.Secret())
	cal.Get("/connect", protected, h.ConnectCalendar)
	cal.Post("/refresh", protected, h.RefreshCalendar)
	cal.Delete("", protected, h.UnlinkCalendar)
}
