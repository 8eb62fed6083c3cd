package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware does not cover upgrades; rooms are gated by trip membership
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection in a trip room.
type Client struct {
	ID       string
	TripID   int64
	UserID   int64
	JoinedAt time.Time
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// TokenValidator resolves a session token to a user id.
type TokenValidator func(token string) (userID int64, err error)

// MembershipChecker reports whether a user belongs to a trip.
type MembershipChecker func(ctx context.Context, tripID, userID int64) (bool, error)

// ServeWs handles the WebSocket upgrade for GET /ws?trip_id=&token= and runs the client loop.
func ServeWs(hub *Hub, logger *zap.Logger, validate TokenValidator, isMember MembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		tripID, err := strconv.ParseInt(c.Query("trip_id"), 10, 64)
		if err != nil || tripID <= 0 || token == "" {
			response.BadRequest(c, "trip_id and token required")
			return
		}
		userID, err := validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		ok, err := isMember(c.Request.Context(), tripID, userID)
		if err != nil {
			logger.Error("check trip membership", zap.Error(err), zap.Int64("trip_id", tripID))
			response.Internal(c, "failed to join trip")
			return
		}
		if !ok {
			response.Forbidden(c, "not a participant of this trip")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			TripID:   tripID,
			UserID:   userID,
			JoinedAt: time.Now(),
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 64),
			logger:   logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
		c.hub.BroadcastToTripAndPublish(c.TripID, EventPresence, c.presence("leave"))
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "join":
			c.hub.BroadcastToTripAndPublish(c.TripID, EventPresence, c.presence("join"))
		default:
			// rooms are server-push only
		}
	}
}

func (c *Client) presence(action string) map[string]interface{} {
	return map[string]interface{}{
		"action":  action,
		"user_id": c.UserID,
		"online":  c.hub.RoomSize(c.TripID),
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
