package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/middleware"
	ws "github.com/thereayou/studybud/internal/websocket"
)

// WebSocketHandler streams the live feed of a room.
type WebSocketHandler struct {
	db       *database.Database
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; "*" or an empty
// list accepts any origin.
func NewWebSocketHandler(db *database.Database, hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		db:  db,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := map[string]bool{}
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// HandleWebSocket subscribes the connection to room events. Viewing a room
// needs no account, so neither does its feed.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	roomID, ok := idParam(c, "id", roomNotFound)
	if !ok {
		return
	}
	if _, err := h.db.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, apperrors.NotFoundAs(err, roomNotFound))
		return
	}

	userID := uuid.Nil
	if id, ok := c.Get(middleware.UserIDKey); ok {
		userID = id.(uuid.UUID)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, roomID, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
