package websocket

import (
	"context"
	"sync"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EventSessionRequestUpdated = "session_request.updated"

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

// SessionRequestEvent is pushed to participants after a status change.
type SessionRequestEvent struct {
	Type      string               `json:"type"`
	RequestID uuid.UUID            `json:"requestId"`
	Status    models.SessionStatus `json:"status"`
	Version   int                  `json:"version"`
}

type delivery struct {
	recipients []uuid.UUID
	payload    any
}

// Hub fans events out to connected users. A user may hold several connections.
type Hub struct {
	logger *zap.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan delivery
	done       chan struct{}

	mu      sync.RWMutex
	clients map[uuid.UUID]map[Conn]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan delivery, 64),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]map[Conn]struct{}),
	}
}

// Register adds c to the hub. It reports false once the hub has stopped; the
// caller then owns closing the connection.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c. After the hub has stopped it returns immediately.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishSessionRequest notifies the student and the assigned tutor of req's new state.
func (h *Hub) PublishSessionRequest(req *models.SessionRequest) {
	recipients := []uuid.UUID{req.StudentID}
	if req.TutorID != nil {
		recipients = append(recipients, *req.TutorID)
	}
	event := SessionRequestEvent{
		Type:      EventSessionRequestUpdated,
		RequestID: req.ID,
		Status:    req.Status,
		Version:   req.Version,
	}

	select {
	case h.broadcast <- delivery{recipients: recipients, payload: event}:
	default:
		h.logger.Warn("WebSocket broadcast queue full, dropping event", zap.String("request_id", req.ID.String()))
	}
}

// Connected reports how many connections the user currently holds.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Run processes registrations and deliveries until ctx is done. It must be
// called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.logger.Debug("WebSocket client registered", zap.String("user_id", client.UserID.String()))
			h.mu.Lock()
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[Conn]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client.Conn] = struct{}{}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.logger.Debug("WebSocket client unregistered", zap.String("user_id", client.UserID.String()))
			h.remove(client.UserID, client.Conn)
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	type target struct {
		userID uuid.UUID
		conn   Conn
	}

	h.mu.RLock()
	var targets []target
	for _, userID := range d.recipients {
		for conn := range h.clients[userID] {
			targets = append(targets, target{userID, conn})
		}
	}
	h.mu.RUnlock()

	for _, t := range targets {
		if err := t.conn.WriteJSON(d.payload); err != nil {
			h.logger.Warn("Error sending message to client",
				zap.String("user_id", t.userID.String()),
				zap.Error(err),
			)
			_ = t.conn.Close()
			h.remove(t.userID, t.conn)
		}
	}
}

func (h *Hub) remove(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for conn := range conns {
			_ = conn.Close()
		}
		delete(h.clients, userID)
	}
}
