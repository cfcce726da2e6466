package admin

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/models"
)

// Listing is one page of an admin list view.
type Listing[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	NumPages int   `json:"num_pages"`
	Results  []T   `json:"results"`
}

type UserRow struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"is_active"`
	IsStaff    bool       `json:"is_staff"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
}

type TopicRow struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	RoomCount int64     `json:"room_count"`
	Created   time.Time `json:"created"`
}

type RoomRow struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Host             string    `json:"host"`
	Topic            string    `json:"topic"`
	ParticipantCount int64     `json:"participant_count"`
	MessageCount     int64     `json:"message_count"`
	Created          time.Time `json:"created"`
}

type MessageRow struct {
	ID             uuid.UUID `json:"id"`
	Message        string    `json:"message"`
	User           string    `json:"user"`
	Room           string    `json:"room"`
	HasAttachments bool      `json:"has_attachments"`
	Created        time.Time `json:"created"`
}

type AttachmentRow struct {
	ID              uuid.UUID             `json:"id"`
	FileName        string                `json:"file_name"`
	FileType        models.AttachmentType `json:"file_type"`
	User            string                `json:"user"`
	Room            string                `json:"room"`
	FileSize        int64                 `json:"file_size"`
	FileSizeDisplay string                `json:"file_size_display"`
	UploadedAt      time.Time             `json:"uploaded_at"`
}

func userRow(u *models.User) UserRow {
	return UserRow{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Name:       u.Name,
		IsActive:   u.IsActive,
		IsStaff:    u.IsStaff,
		DateJoined: u.DateJoined,
		LastLogin:  u.LastLogin,
	}
}

func topicRow(t *models.Topic) TopicRow {
	return TopicRow{ID: t.ID, Name: t.Name, RoomCount: t.RoomCount, Created: t.CreatedAt}
}

func roomRow(r *models.Room) RoomRow {
	row := RoomRow{
		ID:               r.ID,
		Name:             r.Name,
		Topic:            r.TopicName(),
		ParticipantCount: r.ParticipantCount,
		MessageCount:     r.MessageCount,
		Created:          r.CreatedAt,
	}
	if r.Host != nil {
		row.Host = r.Host.String()
	}
	return row
}

func messageRow(m *models.Message) MessageRow {
	return MessageRow{
		ID:             m.ID,
		Message:        m.Preview(),
		User:           m.User.String(),
		Room:           m.Room.Name,
		HasAttachments: m.HasAttachments(),
		Created:        m.CreatedAt,
	}
}

func attachmentRow(a *models.Attachment) AttachmentRow {
	row := AttachmentRow{
		ID:              a.ID,
		FileName:        a.FileName,
		FileType:        a.FileType,
		FileSize:        a.FileSize,
		FileSizeDisplay: a.SizeDisplay(),
		UploadedAt:      a.UploadedAt,
	}
	if a.Message != nil {
		row.User = a.Message.User.Username
		row.Room = a.Message.Room.Name
	}
	return row
}

func rows[M any, R any](items []M, row func(*M) R) []R {
	out := make([]R, len(items))
	for i := range items {
		out[i] = row(&items[i])
	}
	return out
}
