package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMessagePreview(t *testing.T) {
	short := Message{Body: "hello"}
	assert.Equal(t, "hello", short.Preview())

	long := Message{Body: strings.Repeat("é", 60)}
	assert.Equal(t, strings.Repeat("é", 50)+"...", long.Preview())
}

func TestMessageHasAttachments(t *testing.T) {
	assert.False(t, (&Message{Body: "x"}).HasAttachments())
	assert.True(t, (&Message{Image: "message_attachments/2026/10/a.png"}).HasAttachments())
	assert.True(t, (&Message{Document: "message_attachments/2026/10/a.pdf"}).HasAttachments())
}

func TestAttachmentSizeDisplay(t *testing.T) {
	cases := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for size, want := range cases {
		a := Attachment{FileSize: size}
		assert.Equal(t, want, a.SizeDisplay(), "size %d", size)
	}
}

func TestAttachmentRejectsNegativeSize(t *testing.T) {
	a := Attachment{FileSize: -1}
	assert.Error(t, a.BeforeCreate(nil))
}

func TestRoomHostedBy(t *testing.T) {
	host := uuid.New()
	room := Room{HostID: &host}
	assert.True(t, room.HostedBy(host))
	assert.False(t, room.HostedBy(uuid.New()))
	assert.False(t, (&Room{}).HostedBy(host))
}

func TestUserNames(t *testing.T) {
	u := User{Username: "alice", Email: "alice@example.com"}
	assert.Equal(t, "alice", u.DisplayName())
	assert.Equal(t, "alice@example.com", u.String())
	u.Name = "Alice"
	assert.Equal(t, "Alice", u.DisplayName())
	assert.Equal(t, "alice", (&User{Username: "alice"}).String())
	assert.True(t, AttachmentAudio.Valid())
	assert.False(t, AttachmentType("zip").Valid())
}
