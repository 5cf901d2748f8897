package routes

import (
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/gofiber/fiber/v2"
)

func SessionRequestRoutes(api fiber.Router, h *handlers.Handler) {
	requests := api.Group("/session-requests", middleware.Protected(h.Secret()))

	student := middleware.RoleRequired(models.RoleStudent)
	admin := middleware.RoleRequired(models.RoleAdmin)
	staff := middleware.RoleRequired(models.RoleAdmin, models.RoleTutor)

	// Static paths first so they are not captured by /:id.
	requests.Post("", student, h.CreateSessionRequest)
	requests.Get("/my-requests", middleware.RoleRequired(models.RoleStudent, models.RoleTutor), h.MySessionRequests)
	requests.Get("", staff, h.ListSessionRequests)

	requests.Get("/:id", h.GetSessionRequest)
	requests.Get("/:id/calendar.ics", h.ExportCalendar)
	requests.Put("/:id/assign", admin, h.AssignSessionRequest)
	requests.Put("/:id/status", staff, h.UpdateSessionRequestStatus)
	requests.Put("/:id/cancel", student, h.CancelSessionRequest)
	requests.Put("/:id/admin-cancel", admin, h.AdminCancelSessionRequest)
}
