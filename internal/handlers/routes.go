package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/services"
	ws "github.com/thereayou/studybud/internal/websocket"
)

var apiRoutes = []string{
	"GET /api/",
	"GET /api/rooms",
	"GET /api/rooms/:id",
	"POST /api/rooms/create",
	"DELETE /api/rooms/:id",
	"POST /api/rooms/:id/join",
	"POST /api/rooms/:id/leave",
	"GET /api/topics",
	"GET /api/messages",
	"POST /api/rooms/:id/messages/create",
	"DELETE /api/messages/:id",
	"GET /api/users",
	"GET /api/users/:id",
	"PUT /api/profile",
	"POST /api/auth/register",
	"POST /api/auth/login",
	"POST /api/auth/logout",
	"GET /ws/rooms/:id",
}

// API bundles the JSON endpoints and the room feed.
type API struct {
	Rooms     *RoomHandler
	Topics    *TopicHandler
	Messages  *HTTPMessageHandler
	Users     *UserHandler
	Auth      *AuthHandler
	WebSocket *WebSocketHandler
}

func NewAPI(db *database.Database, svc *services.Community, sessions *middleware.Sessions, hub *ws.Hub, ser *dto.Serializer, allowedOrigins []string) *API {
	return &API{
		Rooms:     NewRoomHandler(db, svc, ser),
		Topics:    NewTopicHandler(db, ser),
		Messages:  NewHTTPMessageHandler(db, svc, ser),
		Users:     NewUserHandler(db, svc, ser),
		Auth:      NewAuthHandler(svc, sessions, ser),
		WebSocket: NewWebSocketHandler(db, hub, allowedOrigins),
	}
}

// Mount registers /api and /ws on r. The caller must already run
// Sessions.Identify.
func (a *API) Mount(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/", Routes)

	api.GET("/rooms", a.Rooms.ListRooms)
	api.GET("/rooms/:id", a.Rooms.GetRoom)
	api.GET("/topics", a.Topics.ListTopics)
	api.GET("/messages", a.Messages.ListMessages)
	api.GET("/users", a.Users.ListUsers)
	api.GET("/users/:id", a.Users.GetUser)

	api.POST("/auth/register", a.Auth.Register)
	api.POST("/auth/login", a.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("/auth/logout", a.Auth.Logout)
		authed.POST("/rooms/create", a.Rooms.CreateRoom)
		authed.DELETE("/rooms/:id", a.Rooms.DeleteRoom)
		authed.POST("/rooms/:id/join", a.Rooms.JoinRoom)
		authed.POST("/rooms/:id/leave", a.Rooms.LeaveRoom)
		authed.POST("/rooms/:id/messages/create", a.Messages.CreateMessage)
		authed.DELETE("/messages/:id", a.Messages.DeleteMessage)
		authed.PUT("/profile", a.Users.UpdateProfile)
	}

	r.GET("/ws/rooms/:id", a.WebSocket.HandleWebSocket)
}

// Routes lists the API endpoints.
func Routes(c *gin.Context) {
	c.JSON(http.StatusOK, apiRoutes)
}
