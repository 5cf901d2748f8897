package routes

import (
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(api fiber.Router, h *handlers.Handler) {
	api.Get("/me", middleware.Protected(h.Secret()), h.Me)
}
