package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/cache"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/pkg/auth"
)

type userMap map[uuid.UUID]*models.User

func (m userMap) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessions(users userMap) *Sessions {
	return NewSessions(auth.NewJWTManager("test-secret", time.Hour), cache.NewMemoryBlacklist(), users, "session")
}

func whoami(s *Sessions, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(s.Identify())
	handlers := append(extra, func(c *gin.Context) {
		if u, ok := CurrentUser(c); ok {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/me", handlers...)
	r.POST("/logout", func(c *gin.Context) {
		if err := s.Revoke(c); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentifyFromHeaderAndCookie(t *testing.T) {
	alice := &models.User{ID: uuid.New(), Username: "alice", IsActive: true}
	s := newSessions(userMap{alice.ID: alice})
	token, err := s.Issue(alice)
	require.NoError(t, err)
	r := whoami(s)

	w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, "alice", w.Body.String())

	w = get(r, func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "session", Value: token}) })
	assert.Equal(t, "alice", w.Body.String())

	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer nonsense") })
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestIdentifyIgnoresInactiveAndRevoked(t *testing.T) {
	alice := &models.User{ID: uuid.New(), Username: "alice", IsActive: true}
	bob := &models.User{ID: uuid.New(), Username: "bob"}
	s := newSessions(userMap{alice.ID: alice, bob.ID: bob})
	r := whoami(s)

	bobToken, err := s.Issue(bob)
	require.NoError(t, err)
	w := get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+bobToken) })
	assert.Equal(t, "anonymous", w.Body.String())

	token, err := s.Issue(alice)
	require.NoError(t, err)
	logout := httptest.NewRequest(http.MethodPost, "/logout", nil)
	logout.Header.Set("Authorization", "Bearer "+token)
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, logout)
	require.Equal(t, http.StatusNoContent, lw.Code)

	w = get(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestRequireAuthAndStaff(t *testing.T) {
	staff := &models.User{ID: uuid.New(), Username: "root", IsActive: true, IsStaff: true}
	member := &models.User{ID: uuid.New(), Username: "member", IsActive: true}
	s := newSessions(userMap{staff.ID: staff, member.ID: member})

	authed := whoami(s, RequireAuth())
	assert.Equal(t, http.StatusUnauthorized, get(authed, nil).Code)

	admin := whoami(s, RequireStaff())
	memberToken, _ := s.Issue(member)
	w := get(admin, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+memberToken) })
	assert.Equal(t, http.StatusForbidden, w.Code)

	staffToken, _ := s.Issue(staff)
	w = get(admin, func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+staffToken) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "root", w.Body.String())
}

func TestMetricsRecordRoutes(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/rooms/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms/42", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `studybud_http_requests_total{method="GET",route="/rooms/:id",status="200"} 1`))
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("much longer than eight")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
