package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/services"
)

const roomNotFound = "Room not found"

type RoomHandler struct {
	db  *database.Database
	svc *services.Community
	ser *dto.Serializer
}

func NewRoomHandler(db *database.Database, svc *services.Community, ser *dto.Serializer) *RoomHandler {
	return &RoomHandler{db: db, svc: svc, ser: ser}
}

// ListRooms searches rooms by name, description or topic (?q=).
func (h *RoomHandler) ListRooms(c *gin.Context) {
	page, err := h.db.ListRooms(c.Request.Context(), database.RoomQuery{
		Search: c.Query("q"),
		Page:   pageRequest(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(c, page, h.ser.RoomList(page.Items)))
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := idParam(c, "id", roomNotFound)
	if !ok {
		return
	}
	h.writeRoom(c, http.StatusOK, roomID)
}

func (h *RoomHandler) writeRoom(c *gin.Context, status int, roomID uuid.UUID) {
	ctx := c.Request.Context()
	room, err := h.db.GetRoom(ctx, roomID)
	if err != nil {
		respondError(c, apperrors.NotFoundAs(err, roomNotFound))
		return
	}
	messages, err := h.db.RoomMessages(ctx, roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, h.ser.Room(room, messages))
}

// CreateRoom makes the caller host of a new room. Accepts JSON or multipart
// with an optional room_image.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var form forms.RoomForm
	if !bindForm(c, &form) {
		return
	}
	room, err := h.svc.CreateRoom(c.Request.Context(), userID, form, optionalFile(c, "room_image"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeRoom(c, http.StatusCreated, room.ID)
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := idParam(c, "id", roomNotFound)
	if !ok {
		return
	}
	if _, err := h.svc.DeleteRoom(c.Request.Context(), userID, roomID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := idParam(c, "id", roomNotFound)
	if !ok {
		return
	}
	if err := h.svc.JoinRoom(c.Request.Context(), userID, roomID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success", Message: "Joined room successfully!"})
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := idParam(c, "id", roomNotFound)
	if !ok {
		return
	}
	if err := h.svc.LeaveRoom(c.Request.Context(), userID, roomID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success", Message: "Left room successfully!"})
}
