package handlers

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/middleware"
)

// Event types sent over WebSocket besides the store events.
const (
	EventMemberJoined = "member_joined"
	EventNotification = "notification"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type      string      `json:"type"`
	CompanyID string      `json:"companyId"`
	UserID    string      `json:"userId"`
	Data      interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with its user ID. Writes are
// serialised per connection.
type connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
	mu     sync.Mutex
}

func (c *connection) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub manages WebSocket connections per company
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool // companyID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[*connection]bool)}
}

// Global hub instance
var WS = NewHub()

func (h *Hub) register(companyID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[companyID] == nil {
		h.rooms[companyID] = make(map[*connection]bool)
	}
	h.rooms[companyID][conn] = true
	logging.GetLogger().WithFields(logrus.Fields{
		"user":    conn.userID,
		"company": companyID,
		"total":   len(h.rooms[companyID]),
	}).Debug("ws register")
}

func (h *Hub) unregister(companyID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[companyID]; ok {
		delete(conns, conn)
		logging.GetLogger().WithFields(logrus.Fields{
			"user":      conn.userID,
			"company":   companyID,
			"remaining": len(conns),
		}).Debug("ws unregister")
		if len(conns) == 0 {
			delete(h.rooms, companyID)
		}
	}
}

// Broadcast sends an event to everyone connected for the company, excluding the sender
func (h *Hub) Broadcast(companyID uuid.UUID, excludeUserID uuid.UUID, event WSEvent) {
	h.send(companyID, event, func(c *connection) bool { return c.userID != excludeUserID })
}

// SendToUser delivers an event to every open connection of one user.
func (h *Hub) SendToUser(companyID, userID uuid.UUID, eventType string, data interface{}) {
	h.send(companyID, WSEvent{
		Type:      eventType,
		CompanyID: companyID.String(),
		UserID:    userID.String(),
		Data:      data,
	}, func(c *connection) bool { return c.userID == userID })
}

func (h *Hub) send(companyID uuid.UUID, event WSEvent, match func(*connection) bool) {
	h.mu.RLock()
	var targets []*connection
	for c := range h.rooms[companyID] {
		if match(c) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		logging.LogError("handlers", "Hub.send", "marshal event", event.Type, err)
		return
	}
	for _, c := range targets {
		if err := c.write(msg); err != nil {
			logging.GetLogger().WithError(err).Warn("ws write failed")
		}
	}
}

// connections counts open connections for a company.
func (h *Hub) connections(companyID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[companyID])
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("userId", claims.UserID)
		c.Locals("companyId", claims.CompanyID)
		return c.Next()
	}
}

// HandleWebSocket keeps one client subscribed to its company's events.
func HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}
	companyID, ok := c.Locals("companyId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	WS.register(companyID, conn)
	defer WS.unregister(companyID, conn)

	// Keep connection alive: read messages (client sends pings/keepalives)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
