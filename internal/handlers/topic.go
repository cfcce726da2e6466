package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/handlers/dto"
)

type TopicHandler struct {
	db  *database.Database
	ser *dto.Serializer
}

func NewTopicHandler(db *database.Database, ser *dto.Serializer) *TopicHandler {
	return &TopicHandler{db: db, ser: ser}
}

// ListTopics returns every topic with its room count, unpaginated.
func (h *TopicHandler) ListTopics(c *gin.Context) {
	topics, err := h.db.ListTopics(c.Request.Context(), database.TopicQuery{Search: c.Query("q")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ser.Topics(topics))
}
