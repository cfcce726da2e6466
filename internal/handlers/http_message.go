package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/services"
)

const messageNotFound = "Message not found"

type HTTPMessageHandler struct {
	db  *database.Database
	svc *services.Community
	ser *dto.Serializer
}

func NewHTTPMessageHandler(db *database.Database, svc *services.Community, ser *dto.Serializer) *HTTPMessageHandler {
	return &HTTPMessageHandler{db: db, svc: svc, ser: ser}
}

// ListMessages pages through recent messages, optionally of one room (?room=).
func (h *HTTPMessageHandler) ListMessages(c *gin.Context) {
	q := database.MessageQuery{Page: pageRequest(c)}
	if raw := c.Query("room"); raw != "" {
		roomID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusOK, dto.Paginated[dto.MessageResponse]{Results: []dto.MessageResponse{}})
			return
		}
		q.RoomID = &roomID
	}

	page, err := h.db.ListMessages(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(c, page, h.ser.Messages(page.Items)))
}

// CreateMessage posts to a room as the caller. Multipart requests may carry
// image, document and any number of attachments parts.
func (h *HTTPMessageHandler) CreateMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID, ok := idParam(c, "id", roomNotFound)
	if !ok {
		return
	}

	var form forms.MessageForm
	if !bindForm(c, &form) {
		return
	}
	msg, err := h.svc.PostMessage(c.Request.Context(), userID, roomID, form, services.Uploads{
		Image:    optionalFile(c, "image"),
		Document: optionalFile(c, "document"),
		Extra:    files(c, "attachments"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.ser.Message(msg))
}

func (h *HTTPMessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID, ok := idParam(c, "id", messageNotFound)
	if !ok {
		return
	}
	if _, err := h.svc.DeleteMessage(c.Request.Context(), userID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
