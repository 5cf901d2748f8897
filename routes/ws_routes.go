package routes

import (
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func WebSocketRoutes(api fiber.Router, h *handlers.Handler) {
	api.Use("/ws", handlers.WebSocketUpgrade)
	api.Get("/ws", websocket.New(h.ServeWs))
}
