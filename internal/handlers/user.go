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

const userNotFound = "User not found"

type UserHandler struct {
	db  *database.Database
	svc *services.Community
	ser *dto.Serializer
}

func NewUserHandler(db *database.Database, svc *services.Community, ser *dto.Serializer) *UserHandler {
	return &UserHandler{db: db, svc: svc, ser: ser}
}

// ListUsers searches users by username, name or email (?q=).
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := h.db.ListUsers(c.Request.Context(), database.UserQuery{
		Search: c.Query("q"),
		Page:   pageRequest(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(c, page, h.ser.Users(page.Items)))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := idParam(c, "id", userNotFound)
	if !ok {
		return
	}
	user, err := h.db.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, apperrors.NotFoundAs(err, userNotFound))
		return
	}
	c.JSON(http.StatusOK, h.ser.User(user))
}

// UpdateProfile edits the caller's profile; multipart requests may replace
// the avatar.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var form forms.UserForm
	if !bindForm(c, &form) {
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, form, optionalFile(c, "avatar"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ser.User(user))
}
