package web

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/internal/services"
)

const roomsPerPage = 10

// Site serves the HTML pages. Browser sessions keep their token in an
// HttpOnly cookie read by Sessions.Identify.
type Site struct {
	db       *database.Database
	svc      *services.Community
	sessions *middleware.Sessions
	renderer *renderer
	secure   bool
}

func NewSite(db *database.Database, svc *services.Community, sessions *middleware.Sessions, media func(string) string, secureCookies bool) (*Site, error) {
	r, err := newRenderer(media)
	if err != nil {
		return nil, err
	}
	return &Site{db: db, svc: svc, sessions: sessions, renderer: r, secure: secureCookies}, nil
}

// Mount registers the pages on r. The caller must already run
// Sessions.Identify.
func (s *Site) Mount(r gin.IRouter) {
	r.GET("/login", s.LoginPage)
	r.POST("/login", s.LoginPage)
	r.GET("/logout", s.Logout)
	r.GET("/register", s.RegisterPage)
	r.POST("/register", s.RegisterPage)

	r.GET("/", s.Home)
	r.GET("/room/:id", s.Room)
	r.POST("/room/:id", s.Room)
	r.GET("/profile/:id", s.Profile)
	r.GET("/topics", s.Topics)
	r.GET("/activity", s.Activity)

	authed := r.Group("")
	authed.Use(LoginRequired())
	{
		authed.GET("/create-room", s.CreateRoom)
		authed.POST("/create-room", s.CreateRoom)
		authed.GET("/update-room/:id", s.UpdateRoom)
		authed.POST("/update-room/:id", s.UpdateRoom)
		authed.GET("/delete-room/:id", s.DeleteRoom)
		authed.POST("/delete-room/:id", s.DeleteRoom)
		authed.GET("/delete-message/:id", s.DeleteMessage)
		authed.POST("/delete-message/:id", s.DeleteMessage)
		authed.GET("/update-user", s.UpdateUser)
		authed.POST("/update-user", s.UpdateUser)
		authed.Any("/join-room/:id", s.JoinRoom)
		authed.Any("/leave-room/:id", s.LeaveRoom)
	}
}

// LoginRequired sends anonymous visitors to the login page, remembering
// where they were headed.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.CurrentUser(c); ok {
			c.Next()
			return
		}
		redirectToLogin(c)
		c.Abort()
	}
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}

func currentUser(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

// renderError answers a failed lookup or action with a plain-text page.
func (s *Site) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.String(http.StatusNotFound, apperrors.Message(err, "Not found."))
	case errors.Is(err, apperrors.ErrForbidden):
		c.String(http.StatusForbidden, apperrors.Message(err, "Forbidden"))
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Page failed")
		c.String(http.StatusInternalServerError, "Internal Server Error")
	}
}

// pathID parses a uuid path parameter. Malformed ids answer 404.
func (s *Site) pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, notFound)
		return uuid.Nil, false
	}
	return id, true
}

// errorMessages flattens validation errors into "Field name: message" lines.
// Form-wide errors carry prefix instead of a field name.
func errorMessages(errs forms.Errors, prefix string) []string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []string
	for _, f := range fields {
		for _, msg := range errs[f] {
			switch {
			case f != forms.NonField:
				out = append(out, fieldLabel(f)+": "+msg)
			case prefix != "":
				out = append(out, prefix+": "+msg)
			default:
				out = append(out, msg)
			}
		}
	}
	return out
}

func fieldLabel(field string) string {
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// upload returns the uploaded part named field, or nil.
func upload(c *gin.Context, field string) *multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

func uploads(c *gin.Context, field string) []*multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	return form.File[field]
}
