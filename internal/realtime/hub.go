package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Trip room events.
const (
	EventPresence         = "presence"
	EventVoteRecorded     = "vote_recorded"
	EventProposalResolved = "proposal_resolved"
)

// Hub maintains trip_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// tripID -> map[clientID]*Client
	rooms    map[int64]map[string]*Client
	subs     map[int64]func() // cancel Redis subscription per trip
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishTripEvent(tripID int64, event string, payload []byte) error
}

// RedisSubscriber subscribes to trip channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeTrip(tripID int64, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Either Redis side may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[int64]map[string]*Client),
		subs:     make(map[int64]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a trip room. Starts Redis subscription for this trip if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.TripID] == nil {
		h.rooms[c.TripID] = make(map[string]*Client)
		if h.redisSub != nil {
			tripID := c.TripID
			cancel, err := h.redisSub.SubscribeTrip(tripID, func(event string, payload []byte) {
				h.BroadcastToTrip(tripID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("trip subscription failed", zap.Int64("trip_id", tripID), zap.Error(err))
			} else {
				h.subs[tripID] = cancel
			}
		}
	}
	h.rooms[c.TripID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined trip", zap.String("client_id", c.ID), zap.Int64("trip_id", c.TripID))
}

// Unregister removes a client from a trip room. Cancels Redis subscription when last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.TripID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.TripID)
			if cancel, ok := h.subs[c.TripID]; ok {
				cancel()
				delete(h.subs, c.TripID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left trip", zap.String("client_id", c.ID), zap.Int64("trip_id", c.TripID))
}

// BroadcastToTrip sends a message to all clients in a trip (local only).
func (h *Hub) BroadcastToTrip(tripID int64, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[tripID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToTripAndPublish sends to local clients and publishes to Redis for other instances.
func (h *Hub) BroadcastToTripAndPublish(tripID int64, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.BroadcastToTrip(tripID, event, json.RawMessage(data))
	if h.redis != nil {
		if err := h.redis.PublishTripEvent(tripID, event, data); err != nil {
			h.logger.Warn("publish trip event", zap.Int64("trip_id", tripID), zap.String("event", event), zap.Error(err))
		}
	}
}

// PublishToTripOnly publishes to Redis only (no local broadcast), so the subscriber callback
// delivers once on every instance including this one. Without Redis it broadcasts locally.
func (h *Hub) PublishToTripOnly(tripID int64, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishTripEvent(tripID, event, data); err != nil {
			h.logger.Warn("publish trip event", zap.Int64("trip_id", tripID), zap.String("event", event), zap.Error(err))
		}
		return
	}
	h.BroadcastToTrip(tripID, event, json.RawMessage(data))
}

// RoomSize returns the number of connected clients in a trip.
func (h *Hub) RoomSize(tripID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tripID])
}
