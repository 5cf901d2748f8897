package routes

import (
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(api fiber.Router, h *handlers.Handler) {
	admin := api.Group("/admin", middleware.Protected(h.Secret()), middleware.RoleRequired(models.RoleAdmin))

	tutors := admin.Group("/tutors")
	tutors.Get("", h.ListTutors)
	tutors.Post("", h.CreateTutor)

	admin.Put("/users/:userId/status", h.SetUserStatus)
}
