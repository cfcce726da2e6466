package admin

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/internal/services"
)

const pageSize = 100

// Branding is the console's fixed wording, set once at construction.
type Branding struct {
	SiteHeader string `json:"site_header"`
	SiteTitle  string `json:"site_title"`
	IndexTitle string `json:"index_title"`
}

// Console is the staff-only management API under /admin.
type Console struct {
	db       *database.Database
	svc      *services.Community
	ser      *dto.Serializer
	branding Branding
}

func NewConsole(db *database.Database, svc *services.Community, ser *dto.Serializer, branding Branding) *Console {
	return &Console{db: db, svc: svc, ser: ser, branding: branding}
}

func (a *Console) Branding() Branding {
	return a.branding
}

// Mount registers the console on r. The caller must already run
// Sessions.Identify.
func (a *Console) Mount(r gin.IRouter) {
	g := r.Group("/admin")
	g.Use(middleware.RequireStaff())

	g.GET("/", a.Index)

	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id", a.UpdateUserFlags)
	g.DELETE("/users/:id", a.DeleteUser)

	g.GET("/topics", a.ListTopics)
	g.DELETE("/topics/:id", a.DeleteTopic)

	g.GET("/rooms", a.ListRooms)
	g.GET("/rooms/:id", a.GetRoom)
	g.DELETE("/rooms/:id", a.DeleteRoom)

	g.GET("/messages", a.ListMessages)
	g.GET("/messages/:id", a.GetMessage)
	g.DELETE("/messages/:id", a.DeleteMessage)

	g.GET("/attachments", a.ListAttachments)
	g.DELETE("/attachments/:id", a.DeleteAttachment)
}

type section struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
	URL   string `json:"url"`
}

func (a *Console) Index(c *gin.Context) {
	counts, err := a.db.Counts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"site_header": a.branding.SiteHeader,
		"site_title":  a.branding.SiteTitle,
		"index_title": a.branding.IndexTitle,
		"models": []section{
			{Name: "users", Count: counts.Users, URL: "/admin/users"},
			{Name: "topics", Count: counts.Topics, URL: "/admin/topics"},
			{Name: "rooms", Count: counts.Rooms, URL: "/admin/rooms"},
			{Name: "messages", Count: counts.Messages, URL: "/admin/messages"},
			{Name: "attachments", Count: counts.Attachments, URL: "/admin/attachments"},
		},
	})
}

func (a *Console) ListUsers(c *gin.Context) {
	q := database.UserQuery{Search: c.Query("q"), Page: page(c)}
	var ok bool
	if q.IsActive, ok = boolFilter(c, "is_active"); !ok {
		return
	}
	if q.IsStaff, ok = boolFilter(c, "is_staff"); !ok {
		return
	}

	users, err := a.db.ListUsers(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing(users, rows(users.Items, userRow)))
}

func (a *Console) UpdateUserFlags(c *gin.Context) {
	id, ok := pathID(c, "User not found")
	if !ok {
		return
	}
	var req dto.FlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := a.db.SetUserFlags(ctx, id, req.IsStaff, req.IsActive); err != nil {
		fail(c, apperrors.NotFoundAs(err, "User not found"))
		return
	}
	user, err := a.db.GetUser(ctx, id)
	if err != nil {
		fail(c, apperrors.NotFoundAs(err, "User not found"))
		return
	}
	logger.Info().Str("user_id", id.String()).Str("by", actor(c)).Msg("User flags changed")
	c.JSON(http.StatusOK, userRow(user))
}

func (a *Console) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "User not found")
	if !ok {
		return
	}
	if err := a.svc.DeleteUser(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTopics is ordered by name and unpaginated.
func (a *Console) ListTopics(c *gin.Context) {
	topics, err := a.db.ListTopics(c.Request.Context(), database.TopicQuery{Search: c.Query("q")})
	if err != nil {
		fail(c, err)
		return
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	c.JSON(http.StatusOK, Listing[TopicRow]{
		Count:    int64(len(topics)),
		Page:     1,
		NumPages: 1,
		Results:  rows(topics, topicRow),
	})
}

func (a *Console) DeleteTopic(c *gin.Context) {
	id, ok := pathID(c, "Topic not found")
	if !ok {
		return
	}
	if err := a.db.DeleteTopic(c.Request.Context(), id); err != nil {
		fail(c, apperrors.NotFoundAs(err, "Topic not found"))
		return
	}
	logger.Info().Str("topic_id", id.String()).Str("by", actor(c)).Msg("Topic deleted")
	c.Status(http.StatusNoContent)
}

func (a *Console) ListRooms(c *gin.Context) {
	q := database.RoomQuery{HostSearch: c.Query("q"), Page: page(c)}
	var ok bool
	if q.TopicID, ok = uuidFilter(c, "topic"); !ok {
		return
	}

	rooms, err := a.db.ListRooms(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing(rooms, rows(rooms.Items, roomRow)))
}

// GetRoom is the room form with its messages inline.
func (a *Console) GetRoom(c *gin.Context) {
	id, ok := pathID(c, "Room not found")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	room, err := a.db.GetRoom(ctx, id)
	if err != nil {
		fail(c, apperrors.NotFoundAs(err, "Room not found"))
		return
	}
	messages, err := a.db.RoomMessages(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room":          a.ser.Room(room, messages),
		"message_count": len(messages),
	})
}

func (a *Console) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c, "Room not found")
	if !ok {
		return
	}
	if err := a.svc.RemoveRoom(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	logger.Info().Str("room_id", id.String()).Str("by", actor(c)).Msg("Room deleted")
	c.Status(http.StatusNoContent)
}

func (a *Console) ListMessages(c *gin.Context) {
	q := database.MessageQuery{Search: c.Query("q"), Page: page(c)}
	var ok bool
	if q.TopicID, ok = uuidFilter(c, "topic"); !ok {
		return
	}

	messages, err := a.db.ListMessages(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing(messages, rows(messages.Items, messageRow)))
}

// GetMessage is the message form with its attachments inline.
func (a *Console) GetMessage(c *gin.Context) {
	id, ok := pathID(c, "Message not found")
	if !ok {
		return
	}
	msg, err := a.db.GetMessage(c.Request.Context(), id)
	if err != nil {
		fail(c, apperrors.NotFoundAs(err, "Message not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": a.ser.Message(msg),
		"room":    msg.Room.Name,
	})
}

func (a *Console) DeleteMessage(c *gin.Context) {
	id, ok := pathID(c, "Message not found")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	msg, err := a.db.GetMessage(ctx, id)
	if err != nil {
		fail(c, apperrors.NotFoundAs(err, "Message not found"))
		return
	}
	if err := a.svc.RemoveMessage(ctx, msg.RoomID, msg.ID); err != nil {
		fail(c, err)
		return
	}
	logger.Info().Str("message_id", id.String()).Str("by", actor(c)).Msg("Message deleted")
	c.Status(http.StatusNoContent)
}

func (a *Console) ListAttachments(c *gin.Context) {
	q := database.AttachmentQuery{Search: c.Query("q"), Page: page(c)}
	if raw := c.Query("file_type"); raw != "" {
		ft := models.AttachmentType(raw)
		if !ft.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"file_type": []string{"Select a valid choice. " + raw + " is not one of the available choices."}})
			return
		}
		q.FileType = ft
	}

	attachments, err := a.db.ListAttachments(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing(attachments, rows(attachments.Items, attachmentRow)))
}

func (a *Console) DeleteAttachment(c *gin.Context) {
	id, ok := pathID(c, "Attachment not found")
	if !ok {
		return
	}
	if err := a.db.DeleteAttachment(c.Request.Context(), id); err != nil {
		fail(c, apperrors.NotFoundAs(err, "Attachment not found"))
		return
	}
	logger.Info().Str("attachment_id", id.String()).Str("by", actor(c)).Msg("Attachment deleted")
	c.Status(http.StatusNoContent)
}

func listing[M any, R any](p database.Page[M], results []R) Listing[R] {
	return Listing[R]{Count: p.Total, Page: p.Number, NumPages: p.NumPages, Results: results}
}

func page(c *gin.Context) database.PageRequest {
	return database.PageRequest{Number: database.ParsePageNumber(c.Query("p")), Size: pageSize}
}

func pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return uuid.Nil, false
	}
	return id, true
}

// boolFilter reads an optional boolean query filter. Unparsable values
// answer 400.
func boolFilter(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{name: []string{"Enter a valid boolean."}})
		return nil, false
	}
	return &v, true
}

func uuidFilter(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{name: []string{"Enter a valid UUID."}})
		return nil, false
	}
	return &id, true
}

func actor(c *gin.Context) string {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.Username
	}
	return ""
}

func fail(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.Message(err, "Not found.")})
		return
	}
	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Admin request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
