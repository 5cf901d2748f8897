package handlers

import (
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/SHREYANK007/LMS-sub003/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// WebSocketUpgrade rejects plain HTTP requests on the websocket route.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocketcontrib.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ServeWs authenticates the connection with its first message, then keeps it
// registered with the hub until the client goes away.
func (h *Handler) ServeWs(c *websocketcontrib.Conn) {
	var auth wsAuthMessage
	if err := c.ReadJSON(&auth); err != nil || auth.Type != "auth" {
		h.logger.Debug("WebSocket auth failed: invalid or missing auth message", zap.Error(err))
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		_ = c.Close()
		return
	}

	actor, err := middleware.ParseToken(h.jwtSecret, auth.Token)
	if err != nil {
		h.logger.Debug("WebSocket auth failed: invalid token", zap.Error(err))
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		_ = c.Close()
		return
	}

	client := &websocket.Client{UserID: actor.ID, Conn: c}
	if !h.hub.Register(client) {
		_ = c.Close()
		return
	}
	defer func() {
		h.hub.Unregister(client)
		_ = c.Close()
	}()

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.String("user_id", actor.ID.String()), zap.Error(err))
			}
			return
		}
	}
}
