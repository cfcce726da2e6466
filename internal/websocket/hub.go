package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/logger"
)

// EventType names what happened in a room.
type EventType string

const (
	EventMessageCreated    EventType = "message_created"
	EventMessageDeleted    EventType = "message_deleted"
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventRoomUpdated       EventType = "room_updated"
	EventRoomDeleted       EventType = "room_deleted"
)

const broadcastBuffer = 256

// Event is the frame sent to every subscriber of a room.
type Event struct {
	Type      EventType       `json:"type"`
	RoomID    uuid.UUID       `json:"room_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type broadcast struct {
	roomID  uuid.UUID
	payload []byte
	// closeRoom drops the room's subscribers after delivery.
	closeRoom bool
}

// Hub fans room events out to the websocket clients watching that room.
type Hub struct {
	clients map[uuid.UUID]*Client
	rooms   map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcast, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case b := <-h.broadcast:
			h.deliver(b)
		}
	}
}

func (h *Hub) stop() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for id, client := range h.clients {
			close(client.Send)
			client.closeConn()
			delete(h.clients, id)
		}
		h.rooms = make(map[uuid.UUID]map[uuid.UUID]*Client)
	})
}

// Register subscribes client to its room. It is a no-op once the hub stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for the subscribers of roomID. It never blocks;
// events are dropped when the queue is full or the hub stopped.
func (h *Hub) Publish(roomID uuid.UUID, eventType EventType, data interface{}) {
	ev := Event{Type: eventType, RoomID: roomID, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Error().Err(err).Str("event", string(eventType)).Msg("Failed to encode room event")
			return
		}
		ev.Data = raw
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Str("event", string(eventType)).Msg("Failed to encode room event")
		return
	}

	b := broadcast{roomID: roomID, payload: payload, closeRoom: eventType == EventRoomDeleted}
	select {
	case <-h.done:
	case h.broadcast <- b:
	default:
		logger.Warn().Str("room_id", roomID.String()).Str("event", string(eventType)).Msg("Room event queue full, event dropped")
	}
}

// Subscribers counts the clients currently watching roomID.
func (h *Hub) Subscribers(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if _, ok := h.rooms[client.RoomID]; !ok {
		h.rooms[client.RoomID] = make(map[uuid.UUID]*Client)
	}
	h.rooms[client.RoomID][client.ID] = client

	logger.Debug().Str("client_id", client.ID.String()).Str("room_id", client.RoomID.String()).Msg("Websocket client subscribed")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeUnsafe(client)
}

func (h *Hub) removeUnsafe(client *Client) {
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if room, ok := h.rooms[client.RoomID]; ok {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)

	logger.Debug().Str("client_id", client.ID.String()).Str("room_id", client.RoomID.String()).Msg("Websocket client unsubscribed")
}

func (h *Hub) deliver(b broadcast) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.rooms[b.roomID] {
		select {
		case client.Send <- b.payload:
		default:
			logger.Warn().Str("client_id", client.ID.String()).Msg("Websocket client too slow, disconnecting")
			h.removeUnsafe(client)
		}
	}
	if b.closeRoom {
		for _, client := range h.rooms[b.roomID] {
			h.removeUnsafe(client)
		}
	}
}
