package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/models"
)

func (s *Site) LoginPage(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	next := c.Query("next")
	if next == "" {
		next = c.PostForm("next")
	}
	data := gin.H{"Page": "login", "Next": next}

	if c.Request.Method != http.MethodPost {
		s.render(c, http.StatusOK, "login.html", data)
		return
	}

	form := forms.LoginForm{Email: c.PostForm("email"), Password: c.PostForm("password")}
	data["Email"] = form.Email
	user, err := s.svc.Authenticate(c.Request.Context(), form)
	if err != nil {
		var ferrs forms.Errors
		switch {
		case errors.As(err, &ferrs):
			data["Errors"] = errorMessages(ferrs, "")
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			data["Errors"] = []string{apperrors.Message(err, "Invalid email or password.")}
		default:
			s.renderError(c, err)
			return
		}
		s.render(c, http.StatusOK, "login.html", data)
		return
	}

	if !s.startSession(c, user) {
		return
	}
	c.Redirect(http.StatusFound, safeNext(next))
}

func (s *Site) Logout(c *gin.Context) {
	if err := s.sessions.Revoke(c); err != nil {
		logger.Error().Err(err).Msg("Failed to revoke session token")
	}
	s.setSessionCookie(c, "", -1)
	s.success(c, "You have been logged out successfully.")
	c.Redirect(http.StatusFound, "/")
}

func (s *Site) RegisterPage(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if c.Request.Method != http.MethodPost {
		s.render(c, http.StatusOK, "register.html", gin.H{"Page": "register"})
		return
	}

	var form forms.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	data := gin.H{"Page": "register", "Form": form}

	user, err := s.svc.Register(c.Request.Context(), form)
	if err != nil {
		var ferrs forms.Errors
		switch {
		case errors.As(err, &ferrs):
			data["Errors"] = errorMessages(ferrs, "Registration error")
		case errors.Is(err, apperrors.ErrRegistrationFailed):
			data["Errors"] = []string{apperrors.Message(err, "Registration failed.")}
		default:
			s.renderError(c, err)
			return
		}
		s.render(c, http.StatusOK, "register.html", data)
		return
	}

	if !s.startSession(c, user) {
		return
	}
	s.success(c, "Welcome "+user.DisplayName()+"! Your account has been created.")
	c.Redirect(http.StatusFound, "/")
}

func (s *Site) startSession(c *gin.Context, user *models.User) bool {
	token, err := s.sessions.Issue(user)
	if err != nil {
		s.renderError(c, err)
		return false
	}
	s.setSessionCookie(c, token, s.sessions.TokenTTL())
	return true
}

func (s *Site) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.sessions.CookieName(), token, maxAge, "/", "", s.secure, true)
}
