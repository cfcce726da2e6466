package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
)

// Home lists rooms matching ?q with the busiest topics and the latest
// messages of matching topics alongside.
func (s *Site) Home(c *gin.Context) {
	ctx := c.Request.Context()
	q := strings.TrimSpace(c.Query("q"))

	rooms, err := s.db.ListRooms(ctx, database.RoomQuery{
		Search: q,
		Page:   database.PageRequest{Number: database.ParsePageNumber(c.Query("page")), Size: roomsPerPage},
	})
	if err != nil {
		s.renderError(c, err)
		return
	}
	topics, err := s.db.ListTopics(ctx, database.TopicQuery{Limit: 5})
	if err != nil {
		s.renderError(c, err)
		return
	}
	recent, err := s.db.RecentMessages(ctx, database.MessageQuery{TopicSearch: q}, 3)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.render(c, http.StatusOK, "home.html", gin.H{
		"Rooms":       rooms,
		"RoomCount":   rooms.Total,
		"Topics":      topics,
		"Messages":    recent,
		"SearchQuery": q,
	})
}

func (s *Site) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := s.pathID(c, "User not found")
	if !ok {
		return
	}
	user, err := s.db.GetUser(ctx, id)
	if err != nil {
		s.renderError(c, apperrors.NotFoundAs(err, "User not found"))
		return
	}
	rooms, err := s.db.UserHostedRooms(ctx, user.ID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	messages, err := s.db.RecentMessages(ctx, database.MessageQuery{UserID: &user.ID}, 10)
	if err != nil {
		s.renderError(c, err)
		return
	}
	topics, err := s.db.ListTopics(ctx, database.TopicQuery{})
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.render(c, http.StatusOK, "profile.html", gin.H{
		"Profile":  user,
		"Rooms":    rooms,
		"Messages": messages,
		"Topics":   topics,
	})
}

func (s *Site) Topics(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	topics, err := s.db.ListTopics(c.Request.Context(), database.TopicQuery{Search: q})
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.render(c, http.StatusOK, "topics.html", gin.H{"Topics": topics, "SearchQuery": q})
}

func (s *Site) Activity(c *gin.Context) {
	messages, err := s.db.RecentMessages(c.Request.Context(), database.MessageQuery{}, 20)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.render(c, http.StatusOK, "activity.html", gin.H{"Messages": messages})
}

// UpdateUser edits the signed-in account.
func (s *Site) UpdateUser(c *gin.Context) {
	user := currentUser(c)
	data := gin.H{"Form": forms.UserForm{Name: user.Name, Username: user.Username, Email: user.Email, Bio: user.Bio}}

	if c.Request.Method == http.MethodPost {
		var form forms.UserForm
		if err := c.ShouldBind(&form); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		_, err := s.svc.UpdateProfile(c.Request.Context(), user.ID, form, upload(c, "avatar"))
		var ferrs forms.Errors
		switch {
		case err == nil:
			s.success(c, "Profile updated successfully!")
			c.Redirect(http.StatusFound, "/profile/"+user.ID.String())
			return
		case errors.As(err, &ferrs):
			data["Errors"] = errorMessages(ferrs, "")
			data["Form"] = form
		default:
			s.renderError(c, err)
			return
		}
	}
	s.render(c, http.StatusOK, "update-user.html", data)
}
