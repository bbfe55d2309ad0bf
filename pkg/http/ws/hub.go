package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub manages WebSocket connections and fans events out to room members.
// Rooms are plain topics: coordinators subscribe a connection on create/join
// and publish room-scoped events without touching sockets directly.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection // connection_id -> connection
	rooms       map[string][]uuid.UUID    // room_id -> []connection_id
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		rooms:       make(map[string][]uuid.UUID),
		logger:      logger,
	}
}

// Register adds a connection under a fresh connection ID.
func (h *Hub) Register(conn *Connection) uuid.UUID {
	id := uuid.New()

	h.mu.Lock()
	h.connections[id] = conn
	h.mu.Unlock()

	h.logger.Info().Str("conn_id", id.String()).Msg("connection registered")
	return id
}

// Unregister removes a connection and drops its room subscriptions.
func (h *Hub) Unregister(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[connID]; exists {
		conn.Close()
		delete(h.connections, connID)
		h.logger.Info().Str("conn_id", connID.String()).Msg("connection unregistered")
	}

	for roomID, members := range h.rooms {
		for i, id := range members {
			if id == connID {
				h.rooms[roomID] = append(members[:i], members[i+1:]...)
				break
			}
		}
	}
}

// Subscribe adds a connection to a room topic for targeted broadcasts.
func (h *Hub) Subscribe(roomID string, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[roomID]
	for _, id := range members {
		if id == connID {
			return // already subscribed
		}
	}
	h.rooms[roomID] = append(members, connID)
}

// DropRoom deletes a room topic and all its subscriptions. Coordinators call
// it when a room leaves the registry so finished rooms do not leak topic
// entries.
func (h *Hub) DropRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms, roomID)
}

// Publish sends a message to every subscriber of a room.
func (h *Hub) Publish(roomID string, msg Message) {
	h.mu.RLock()
	members := append([]uuid.UUID(nil), h.rooms[roomID]...)
	h.mu.RUnlock()

	for _, connID := range members {
		if err := h.Send(connID, msg); err != nil {
			h.logger.Warn().Err(err).Str("room_id", roomID).Str("conn_id", connID.String()).Msg("publish send failed")
		}
	}
}

// PublishExcept sends a message to every room subscriber except one.
// Used for peer-only events such as redacted opponent results.
func (h *Hub) PublishExcept(roomID string, except uuid.UUID, msg Message) {
	h.mu.RLock()
	members := append([]uuid.UUID(nil), h.rooms[roomID]...)
	h.mu.RUnlock()

	for _, connID := range members {
		if connID == except {
			continue
		}
		if err := h.Send(connID, msg); err != nil {
			h.logger.Warn().Err(err).Str("room_id", roomID).Str("conn_id", connID.String()).Msg("publish send failed")
		}
	}
}

// Send delivers a message to a specific connection.
func (h *Hub) Send(connID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[connID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}

	return conn.Send(msg)
}

// Subscribers returns the current subscriber count for a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}

// Keepalive timing: the server pings on pingPeriod and expects a pong (or
// any read) within pongWait. pingPeriod must stay below pongWait or idle
// connections get dropped between pings.
const (
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = (defaultPongWait * 9) / 10
)

// Connection represents a WebSocket connection with a buffered send queue.
type Connection struct {
	conn       *websocket.Conn
	sendCh     chan Message
	mu         sync.Mutex
	closed     bool
	logger     zerolog.Logger
	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:       conn,
		sendCh:     make(chan Message, 256),
		logger:     logger,
		pongWait:   defaultPongWait,
		pingPeriod: defaultPingPeriod,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump sends messages from the send queue and keeps the connection
// alive with periodic pings. Clients waiting for an opponent can sit idle
// indefinitely; the ping/pong exchange is what extends their read deadline.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
