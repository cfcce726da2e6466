package services

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/database/dbtest"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/internal/storage"
	ws "github.com/thereayou/studybud/internal/websocket"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type recordedEvent struct {
	room uuid.UUID
	typ  ws.EventType
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Publish(roomID uuid.UUID, eventType ws.EventType, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{roomID, eventType})
}

func (r *recorder) types() []ws.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ws.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.typ
	}
	return out
}

type fixture struct {
	svc    *Community
	db     *database.Database
	files  *storage.Local
	events *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	files, err := storage.NewLocal(t.TempDir(), "/media/")
	require.NoError(t, err)
	events := &recorder{}
	return &fixture{svc: NewCommunity(db, files, events), db: db, files: files, events: events}
}

func (f *fixture) register(t *testing.T, username string) *models.User {
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

func (f *fixture) room(t *testing.T, host *models.User, name string) *models.Room {
	t.Helper()
	r, err := f.svc.CreateRoom(context.Background(), host.ID, forms.RoomForm{Name: name, Topic: "Go"}, nil)
	require.NoError(t, err)
	return r
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func formErrors(t *testing.T, err error) forms.Errors {
	t.Helper()
	var errs forms.Errors
	require.True(t, errors.As(err, &errs), "expected form errors, got %v", err)
	return errs
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	first := f.register(t, "alice")
	assert.True(t, first.IsActive)
	assert.Equal(t, models.DefaultAvatar, first.Avatar)

	_, err := f.svc.Register(context.Background(), forms.RegisterForm{
		Username:  "alice2",
		Email:     "ALICE@example.com",
		Password1: "s3cure-pass",
		Password2: "s3cure-pass",
	})
	errs := formErrors(t, err)
	assert.Equal(t, []string{"A user with this email already exists."}, errs.Get("email"))
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	user, err := f.svc.Authenticate(ctx, forms.LoginForm{Email: "Alice@example.com", Password: "s3cure-pass"})
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)

	_, err = f.svc.Authenticate(ctx, forms.LoginForm{Email: "alice@example.com", Password: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password.", apperrors.Message(err, ""))

	_, err = f.svc.Authenticate(ctx, forms.LoginForm{Email: "bob@example.com", Password: "s3cure-pass"})
	assert.Equal(t, "User with this email does not exist.", apperrors.Message(err, ""))

	inactive := false
	require.NoError(t, f.db.SetUserFlags(ctx, user.ID, nil, &inactive))
	_, err = f.svc.Authenticate(ctx, forms.LoginForm{Email: "alice@example.com", Password: "s3cure-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestCreateRoomValidatesAndTrims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.register(t, "host")

	_, err := f.svc.CreateRoom(ctx, host.ID, forms.RoomForm{Name: "ab", Topic: "Go"}, nil)
	formErrors(t, err)

	room, err := f.svc.CreateRoom(ctx, host.ID, forms.RoomForm{Name: "  abc  ", Topic: "Go"}, fileHeader(t, "cover.png", pngBytes))
	require.NoError(t, err)

	stored, err := f.db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Name)
	assert.Equal(t, "Go", stored.TopicName())
	assert.True(t, stored.HostedBy(host.ID))
	assert.Contains(t, stored.RoomImage, "room_media/")
}

func TestUpdateAndDeleteRoomRequireHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.register(t, "host")
	other := f.register(t, "other")
	room := f.room(t, host, "Gophers")

	_, err := f.svc.UpdateRoom(ctx, other.ID, room.ID, forms.RoomForm{Name: "Mine now", Topic: "Go"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, "You are not allowed to edit this room.", apperrors.Message(err, ""))

	updated, err := f.svc.UpdateRoom(ctx, host.ID, room.ID, forms.RoomForm{Name: "Gophers United", Topic: "Golang"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Golang", updated.TopicName())

	_, err = f.svc.DeleteRoom(ctx, other.ID, room.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, "You are not allowed to delete this room.", apperrors.Message(err, ""))

	deleted, err := f.svc.DeleteRoom(ctx, host.ID, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gophers United", deleted.Name)

	_, err = f.svc.DeleteRoom(ctx, host.ID, room.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, []ws.EventType{ws.EventRoomUpdated, ws.EventRoomDeleted}, f.events.types())
}

func TestPostMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.register(t, "host")
	alice := f.register(t, "alice")
	room := f.room(t, host, "Gophers")

	_, err := f.svc.PostMessage(ctx, alice.ID, room.ID, forms.MessageForm{Body: "  "}, Uploads{})
	errs := formErrors(t, err)
	assert.Equal(t, []string{"Please provide either a message, image, or document."}, errs.Get(forms.NonField))

	msg, err := f.svc.PostMessage(ctx, alice.ID, room.ID, forms.MessageForm{}, Uploads{
		Image: fileHeader(t, "pic.png", pngBytes),
		Extra: []*multipart.FileHeader{fileHeader(t, "notes.txt", []byte("plain text notes"))},
	})
	require.NoError(t, err)
	assert.Equal(t, "", msg.Body)
	assert.True(t, msg.HasAttachments())
	require.Len(t, msg.Attachments, 2)

	types := map[models.AttachmentType]bool{}
	for _, a := range msg.Attachments {
		types[a.FileType] = true
		_, statErr := os.Stat(filepath.Join(f.files.Root(), filepath.FromSlash(a.File)))
		assert.NoError(t, statErr)
	}
	assert.True(t, types[models.AttachmentImage])
	assert.True(t, types[models.AttachmentDocument])

	r, err := f.db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.ParticipantCount)
	assert.Equal(t, []ws.EventType{ws.EventParticipantJoined, ws.EventMessageCreated}, f.events.types())

	_, err = f.svc.PostMessage(ctx, alice.ID, uuid.New(), forms.MessageForm{Body: "hi"}, Uploads{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEmptyUploadsAreFieldErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.register(t, "host")
	room := f.room(t, host, "Gophers")

	_, err := f.svc.PostMessage(ctx, host.ID, room.ID, forms.MessageForm{}, Uploads{
		Image:    fileHeader(t, "pic.png", pngBytes),
		Document: fileHeader(t, "blank.pdf", nil),
	})
	errs := formErrors(t, err)
	assert.Equal(t, []string{EmptyUploadMessage}, errs.Get("document"))

	// the image saved before the failure is not left behind
	var leftover []string
	require.NoError(t, filepath.WalkDir(f.files.Root(), func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			leftover = append(leftover, path)
		}
		return err
	}))
	assert.Empty(t, leftover)

	_, err = f.svc.CreateRoom(ctx, host.ID, forms.RoomForm{Name: "Empty art", Topic: "Go"}, fileHeader(t, "cover.png", nil))
	assert.Equal(t, []string{EmptyUploadMessage}, formErrors(t, err).Get("room_image"))

	_, err = f.svc.UpdateProfile(ctx, host.ID, forms.UserForm{Username: "host", Email: "host@example.com"}, fileHeader(t, "me.png", nil))
	assert.Equal(t, []string{EmptyUploadMessage}, formErrors(t, err).Get("avatar"))
}

func TestDeleteMessageAuthorOrHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.register(t, "host")
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	room := f.room(t, host, "Gophers")

	post := func() *models.Message {
		m, err := f.svc.PostMessage(ctx, alice.ID, room.ID, forms.MessageForm{Body: "hello"}, Uploads{})
		require.NoError(t, err)
		return m
	}

	m := post()
	_, err := f.svc.DeleteMessage(ctx, bob.ID, m.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, "You are not allowed to delete this message.", apperrors.Message(err, ""))

	_, err = f.svc.DeleteMessage(ctx, alice.ID, m.ID)
	require.NoError(t, err)

	m = post()
	deleted, err := f.svc.DeleteMessage(ctx, host.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, deleted.RoomID)

	_, err = f.svc.DeleteMessage(ctx, host.ID, m.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestJoinLeaveIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.register(t, "host")
	alice := f.register(t, "alice")
	room := f.room(t, host, "Gophers")

	require.NoError(t, f.svc.JoinRoom(ctx, alice.ID, room.ID))
	require.NoError(t, f.svc.JoinRoom(ctx, alice.ID, room.ID))
	require.NoError(t, f.svc.LeaveRoom(ctx, host.ID, room.ID))

	r, err := f.db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.ParticipantCount)
	assert.Equal(t, []ws.EventType{ws.EventParticipantJoined}, f.events.types())

	require.NoError(t, f.svc.LeaveRoom(ctx, alice.ID, room.ID))
	assert.ErrorIs(t, f.svc.JoinRoom(ctx, alice.ID, uuid.New()), apperrors.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	f.register(t, "bob")

	_, err := f.svc.UpdateProfile(ctx, alice.ID, forms.UserForm{Username: "bob", Email: "alice@example.com"}, nil)
	errs := formErrors(t, err)
	assert.NotEmpty(t, errs.Get("username"))

	updated, err := f.svc.UpdateProfile(ctx, alice.ID, forms.UserForm{
		Name:     "Alice Liddell",
		Username: "alice",
		Email:    "alice@wonderland.example",
		Bio:      "curious",
	}, fileHeader(t, "me.png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.DisplayName())
	assert.Contains(t, updated.Avatar, "avatars/")

	stored, err := f.db.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@wonderland.example", stored.Email)
}

func TestDeleteUserKeepsHostedRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.register(t, "host")
	room := f.room(t, host, "Gophers")
	m, err := f.svc.PostMessage(ctx, host.ID, room.ID, forms.MessageForm{Body: "bye"}, Uploads{})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, host.ID))

	_, err = f.db.GetMessage(ctx, m.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	r, err := f.db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Nil(t, r.HostID)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, host.ID), apperrors.ErrNotFound)
}
