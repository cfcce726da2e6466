package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/internal/services"
)

type AuthHandler struct {
	svc      *services.Community
	sessions *middleware.Sessions
	ser      *dto.Serializer
}

func NewAuthHandler(svc *services.Community, sessions *middleware.Sessions, ser *dto.Serializer) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions, ser: ser}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var form forms.RegisterForm
	if !bindForm(c, &form) {
		return
	}
	user, err := h.svc.Register(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, user)
}

// Login exchanges an email and password for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var form forms.LoginForm
	if !bindForm(c, &form) {
		return
	}
	user, err := h.svc.Authenticate(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, http.StatusOK, user)
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User) {
	token, err := h.sessions.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, dto.TokenResponse{Token: token, ExpiresIn: h.sessions.TokenTTL(), User: h.ser.User(user)})
}

// Logout revokes the token the request was made with.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c); err != nil {
		logger.Error().Err(err).Msg("Failed to revoke token")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out successfully."})
}
