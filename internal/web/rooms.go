package web

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/internal/services"
)

const roomNotFound = "Room not found"

// Room shows the conversation of a room. Signed-in visitors may post to it.
func (s *Site) Room(c *gin.Context) {
	id, ok := s.pathID(c, roomNotFound)
	if !ok {
		return
	}
	room, err := s.db.GetRoom(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, apperrors.NotFoundAs(err, roomNotFound))
		return
	}

	data := gin.H{}
	if c.Request.Method == http.MethodPost {
		user := currentUser(c)
		if user == nil {
			redirectToLogin(c)
			return
		}

		var form forms.MessageForm
		if err := c.ShouldBind(&form); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		_, err := s.svc.PostMessage(c.Request.Context(), user.ID, room.ID, form, services.Uploads{
			Image:    upload(c, "image"),
			Document: upload(c, "document"),
			Extra:    uploads(c, "attachments"),
		})
		var ferrs forms.Errors
		switch {
		case err == nil:
			s.success(c, "Message sent successfully!")
			c.Redirect(http.StatusFound, "/room/"+room.ID.String())
			return
		case errors.As(err, &ferrs):
			data["Errors"] = errorMessages(ferrs, "")
			data["Body"] = form.Body
		default:
			s.renderError(c, err)
			return
		}
	}

	messages, err := s.db.RoomMessages(c.Request.Context(), room.ID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	data["Room"] = room
	data["Messages"] = messages
	data["Participants"] = room.Participants
	s.render(c, http.StatusOK, "room.html", data)
}

func (s *Site) CreateRoom(c *gin.Context) {
	topics, err := s.topicsByName(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	data := gin.H{"Topics": topics}

	if c.Request.Method == http.MethodPost {
		var form forms.RoomForm
		if err := c.ShouldBind(&form); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		room, err := s.svc.CreateRoom(c.Request.Context(), currentUser(c).ID, form, upload(c, "room_image"))
		if err == nil {
			s.success(c, `Room "`+room.Name+`" created successfully!`)
			c.Redirect(http.StatusFound, "/room/"+room.ID.String())
			return
		}
		if !s.formFailed(c, err, data) {
			return
		}
		data["Form"] = form
	}
	s.render(c, http.StatusOK, "room_form.html", data)
}

func (s *Site) UpdateRoom(c *gin.Context) {
	id, ok := s.pathID(c, roomNotFound)
	if !ok {
		return
	}
	room, err := s.db.GetRoom(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, apperrors.NotFoundAs(err, roomNotFound))
		return
	}
	user := currentUser(c)
	if !room.HostedBy(user.ID) {
		c.String(http.StatusForbidden, "You are not allowed to edit this room.")
		return
	}

	topics, err := s.topicsByName(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	data := gin.H{
		"Room":   room,
		"Topics": topics,
		"Form":   forms.RoomForm{Name: room.Name, Topic: room.TopicName(), Description: room.Description},
	}

	if c.Request.Method == http.MethodPost {
		var form forms.RoomForm
		if err := c.ShouldBind(&form); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		updated, err := s.svc.UpdateRoom(c.Request.Context(), user.ID, room.ID, form, upload(c, "room_image"))
		if err == nil {
			s.success(c, `Room "`+updated.Name+`" updated successfully!`)
			c.Redirect(http.StatusFound, "/room/"+updated.ID.String())
			return
		}
		if !s.formFailed(c, err, data) {
			return
		}
		data["Form"] = form
	}
	s.render(c, http.StatusOK, "room_form.html", data)
}

func (s *Site) DeleteRoom(c *gin.Context) {
	id, ok := s.pathID(c, roomNotFound)
	if !ok {
		return
	}
	room, err := s.db.GetRoom(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, apperrors.NotFoundAs(err, roomNotFound))
		return
	}
	user := currentUser(c)
	if !room.HostedBy(user.ID) {
		c.String(http.StatusForbidden, "You are not allowed to delete this room.")
		return
	}

	if c.Request.Method == http.MethodPost {
		if _, err := s.svc.DeleteRoom(c.Request.Context(), user.ID, room.ID); err != nil {
			s.renderError(c, err)
			return
		}
		s.success(c, `Room "`+room.Name+`" deleted successfully!`)
		c.Redirect(http.StatusFound, "/")
		return
	}
	s.render(c, http.StatusOK, "delete.html", gin.H{"Object": room.Name, "Back": "/room/" + room.ID.String()})
}

func (s *Site) DeleteMessage(c *gin.Context) {
	id, ok := s.pathID(c, "Message not found")
	if !ok {
		return
	}
	msg, err := s.db.GetMessage(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, apperrors.NotFoundAs(err, "Message not found"))
		return
	}
	user := currentUser(c)
	if msg.UserID != user.ID && !msg.Room.HostedBy(user.ID) {
		c.String(http.StatusForbidden, "You are not allowed to delete this message.")
		return
	}

	back := "/room/" + msg.RoomID.String()
	if c.Request.Method == http.MethodPost {
		if _, err := s.svc.DeleteMessage(c.Request.Context(), user.ID, msg.ID); err != nil {
			s.renderError(c, err)
			return
		}
		s.success(c, "Message deleted successfully!")
		c.Redirect(http.StatusFound, back)
		return
	}
	s.render(c, http.StatusOK, "delete.html", gin.H{"Object": msg.Preview(), "Back": back})
}

// JoinRoom and LeaveRoom answer the room page's script with JSON.
func (s *Site) JoinRoom(c *gin.Context) {
	s.membership(c, s.svc.JoinRoom, "Joined room successfully!")
}

func (s *Site) LeaveRoom(c *gin.Context) {
	s.membership(c, s.svc.LeaveRoom, "Left room successfully!")
}

func (s *Site) membership(c *gin.Context, change func(context.Context, uuid.UUID, uuid.UUID) error, done string) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Invalid request method."})
		return
	}
	id, ok := s.pathID(c, roomNotFound)
	if !ok {
		return
	}
	if err := change(c.Request.Context(), currentUser(c).ID, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": apperrors.Message(err, roomNotFound)})
			return
		}
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": done})
}

// formFailed adds validation errors to data for a re-render. Any other
// error is answered directly and false is returned.
func (s *Site) formFailed(c *gin.Context, err error, data gin.H) bool {
	var ferrs forms.Errors
	if errors.As(err, &ferrs) {
		data["Errors"] = errorMessages(ferrs, "")
		return true
	}
	s.renderError(c, err)
	return false
}

func (s *Site) topicsByName(ctx context.Context) ([]models.Topic, error) {
	topics, err := s.db.ListTopics(ctx, database.TopicQuery{})
	if err != nil {
		return nil, err
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics, nil
}
