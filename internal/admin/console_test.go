package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/studybud/internal/cache"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/database/dbtest"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/middleware"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/internal/services"
	"github.com/thereayou/studybud/internal/storage"
	ws "github.com/thereayou/studybud/internal/websocket"
	"github.com/thereayou/studybud/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router   *gin.Engine
	db       *database.Database
	svc      *services.Community
	sessions *middleware.Sessions
	staff    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	files, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	svc := services.NewCommunity(db, files, ws.NewHub())
	sessions := middleware.NewSessions(auth.NewJWTManager("test-secret", time.Hour), cache.NewMemoryBlacklist(), db, "session")

	console := NewConsole(db, svc, dto.NewSerializer(files.URL), Branding{
		SiteHeader: "StudyBud Administration",
		SiteTitle:  "StudyBud Admin",
		IndexTitle: "Welcome to StudyBud Administration",
	})
	r := gin.New()
	r.Use(sessions.Identify())
	console.Mount(r)

	f := &fixture{router: r, db: db, svc: svc, sessions: sessions}
	admin := f.user(t, "admin")
	staff := true
	require.NoError(t, db.SetUserFlags(context.Background(), admin.ID, &staff, nil))
	f.staff = f.token(t, admin)
	return f
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), forms.RegisterForm{
		Username:  username,
		Email:     username + "@example.com",
		Password1: "s3cure-pass",
		Password2: "s3cure-pass",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) token(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := f.sessions.Issue(u)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStaffOnly(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/admin/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/admin/", f.token(t, f.user(t, "alice")), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIndex(t *testing.T) {
	f := newFixture(t)
	host := f.user(t, "host")
	_, err := f.svc.CreateRoom(context.Background(), host.ID, forms.RoomForm{Name: "Gophers", Topic: "Go"}, nil)
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/admin/", f.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	type indexPage struct {
		SiteHeader string    `json:"site_header"`
		IndexTitle string    `json:"index_title"`
		Models     []section `json:"models"`
	}
	index := decode[indexPage](t, w)
	assert.Equal(t, "StudyBud Administration", index.SiteHeader)
	assert.Equal(t, "Welcome to StudyBud Administration", index.IndexTitle)
	require.Len(t, index.Models, 5)
	assert.Equal(t, section{Name: "users", Count: 2, URL: "/admin/users"}, index.Models[0])
	assert.EqualValues(t, 1, index.Models[2].Count)
}

func TestUserFilters(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")
	inactive := false
	require.NoError(t, f.db.SetUserFlags(context.Background(), bob.ID, nil, &inactive))

	list := decode[Listing[UserRow]](t, f.do(http.MethodGet, "/admin/users?is_staff=true", f.staff, nil))
	require.Len(t, list.Results, 1)
	assert.Equal(t, "admin", list.Results[0].Username)

	list = decode[Listing[UserRow]](t, f.do(http.MethodGet, "/admin/users?is_active=false", f.staff, nil))
	require.Len(t, list.Results, 1)
	assert.Equal(t, "bob", list.Results[0].Username)

	w := f.do(http.MethodGet, "/admin/users?is_active=maybe", f.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserFlags(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")

	w := f.do(http.MethodPatch, "/admin/users/"+bob.ID.String(), f.staff, map[string]bool{"is_staff": true})
	require.Equal(t, http.StatusOK, w.Code)
	row := decode[UserRow](t, w)
	assert.True(t, row.IsStaff)
	assert.True(t, row.IsActive)

	w = f.do(http.MethodPatch, "/admin/users/"+bob.ID.String(), f.staff, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)
	row = decode[UserRow](t, w)
	assert.True(t, row.IsStaff)
	assert.False(t, row.IsActive)

	w = f.do(http.MethodPatch, "/admin/users/00000000-0000-0000-0000-000000000000", f.staff, map[string]bool{"is_active": false})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomsAndMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "host")
	alice := f.user(t, "alice")
	goRoom, err := f.svc.CreateRoom(ctx, host.ID, forms.RoomForm{Name: "Gophers", Topic: "Go"}, nil)
	require.NoError(t, err)
	_, err = f.svc.CreateRoom(ctx, alice.ID, forms.RoomForm{Name: "Snakes", Topic: "Python"}, nil)
	require.NoError(t, err)
	long := strings.Repeat("a", 60)
	msg, err := f.svc.PostMessage(ctx, alice.ID, goRoom.ID, forms.MessageForm{Body: long}, services.Uploads{})
	require.NoError(t, err)

	rooms := decode[Listing[RoomRow]](t, f.do(http.MethodGet, "/admin/rooms?q=host@example", f.staff, nil))
	require.Len(t, rooms.Results, 1)
	assert.Equal(t, "Gophers", rooms.Results[0].Name)
	assert.Equal(t, "host@example.com", rooms.Results[0].Host)
	assert.EqualValues(t, 1, rooms.Results[0].ParticipantCount)
	assert.EqualValues(t, 1, rooms.Results[0].MessageCount)

	rooms = decode[Listing[RoomRow]](t, f.do(http.MethodGet, "/admin/rooms?topic="+goRoom.TopicID.String(), f.staff, nil))
	require.Len(t, rooms.Results, 1)

	messages := decode[Listing[MessageRow]](t, f.do(http.MethodGet, "/admin/messages?q=gophers", f.staff, nil))
	require.Len(t, messages.Results, 1)
	assert.Equal(t, strings.Repeat("a", 50)+"...", messages.Results[0].Message)
	assert.False(t, messages.Results[0].HasAttachments)

	w := f.do(http.MethodGet, "/admin/rooms/"+goRoom.ID.String(), f.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), long)

	w = f.do(http.MethodGet, "/admin/messages/"+msg.ID.String(), f.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodDelete, "/admin/messages/"+msg.ID.String(), f.staff, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodGet, "/admin/messages/"+msg.ID.String(), f.staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodDelete, "/admin/rooms/"+goRoom.ID.String(), f.staff, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodDelete, "/admin/rooms/"+goRoom.ID.String(), f.staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTopics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "host")
	room, err := f.svc.CreateRoom(ctx, host.ID, forms.RoomForm{Name: "Snakes", Topic: "Python"}, nil)
	require.NoError(t, err)
	_, err = f.svc.CreateRoom(ctx, host.ID, forms.RoomForm{Name: "Gophers", Topic: "Go"}, nil)
	require.NoError(t, err)

	topics := decode[Listing[TopicRow]](t, f.do(http.MethodGet, "/admin/topics", f.staff, nil))
	require.Len(t, topics.Results, 2)
	assert.Equal(t, "Go", topics.Results[0].Name)
	assert.EqualValues(t, 1, topics.Results[1].RoomCount)

	w := f.do(http.MethodDelete, "/admin/topics/"+room.TopicID.String(), f.staff, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	kept, err := f.db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.TopicID)
}

func TestAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.user(t, "host")
	room, err := f.svc.CreateRoom(ctx, host.ID, forms.RoomForm{Name: "Gophers", Topic: "Go"}, nil)
	require.NoError(t, err)

	msg := &models.Message{UserID: host.ID, RoomID: room.ID, Document: "message_attachments/2026/10/notes.pdf"}
	msg.Attachments = []models.Attachment{
		{File: "message_attachments/2026/10/notes.pdf", FileType: models.AttachmentDocument, FileName: "notes.pdf", FileSize: 2048},
		{File: "message_attachments/2026/10/pic.png", FileType: models.AttachmentImage, FileName: "pic.png", FileSize: 10},
	}
	_, err = f.db.CreateMessage(ctx, msg)
	require.NoError(t, err)

	list := decode[Listing[AttachmentRow]](t, f.do(http.MethodGet, "/admin/attachments?file_type=document", f.staff, nil))
	require.Len(t, list.Results, 1)
	assert.Equal(t, "notes.pdf", list.Results[0].FileName)
	assert.Equal(t, "2.0 KB", list.Results[0].FileSizeDisplay)
	assert.Equal(t, "host", list.Results[0].User)
	assert.Equal(t, "Gophers", list.Results[0].Room)

	list = decode[Listing[AttachmentRow]](t, f.do(http.MethodGet, "/admin/attachments?q=gophers", f.staff, nil))
	assert.Len(t, list.Results, 2)

	w := f.do(http.MethodGet, "/admin/attachments?file_type=zip", f.staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/admin/messages/"+msg.ID.String(), f.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Message dto.MessageResponse `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail.Message.Attachments, 2)
	assert.True(t, detail.Message.HasAttachments)

	w = f.do(http.MethodDelete, "/admin/attachments/"+list.Results[0].ID.String(), f.staff, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")

	w := f.do(http.MethodDelete, "/admin/users/"+bob.ID.String(), f.staff, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodDelete, "/admin/users/"+bob.ID.String(), f.staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestBrandingIsFixed(t *testing.T) {
	b := Branding{SiteHeader: "h", SiteTitle: "t", IndexTitle: "i"}
	console := NewConsole(nil, nil, nil, b)
	got := console.Branding()
	got.SiteHeader = "changed"
	assert.Equal(t, "h", console.Branding().SiteHeader)
}
