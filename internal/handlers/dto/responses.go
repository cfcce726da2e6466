package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/models"
)

// MediaURL maps a stored file path to the URL it is served from.
type MediaURL func(path string) string

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Bio        string    `json:"bio"`
	Avatar     string    `json:"avatar"`
	DateJoined time.Time `json:"date_joined"`
}

type TopicResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Created   time.Time `json:"created"`
	RoomCount int64     `json:"room_count"`
}

type AttachmentResponse struct {
	ID         uuid.UUID             `json:"id"`
	File       string                `json:"file"`
	FileType   models.AttachmentType `json:"file_type"`
	FileName   string                `json:"file_name"`
	FileSize   int64                 `json:"file_size"`
	UploadedAt time.Time             `json:"uploaded_at"`
}

type MessageResponse struct {
	ID             uuid.UUID            `json:"id"`
	User           UserResponse         `json:"user"`
	Body           string               `json:"body"`
	Image          *string              `json:"image"`
	Document       *string              `json:"document"`
	Attachments    []AttachmentResponse `json:"attachments"`
	HasAttachments bool                 `json:"has_attachments"`
	Created        time.Time            `json:"created"`
	Updated        time.Time            `json:"updated"`
}

type RoomResponse struct {
	ID               uuid.UUID         `json:"id"`
	Host             *UserResponse     `json:"host"`
	Topic            *TopicResponse    `json:"topic"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	RoomImage        *string           `json:"room_image"`
	Participants     []UserResponse    `json:"participants"`
	ParticipantCount int64             `json:"participant_count"`
	Messages         []MessageResponse `json:"messages"`
	Created          time.Time         `json:"created"`
	Updated          time.Time         `json:"updated"`
}

// RoomListItem is the condensed room used in listings; host and topic are
// their display strings.
type RoomListItem struct {
	ID               uuid.UUID `json:"id"`
	Host             *string   `json:"host"`
	Topic            *string   `json:"topic"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	RoomImage        *string   `json:"room_image"`
	ParticipantCount int64     `json:"participant_count"`
	Created          time.Time `json:"created"`
	Updated          time.Time `json:"updated"`
}

// Paginated is the envelope of every paged listing.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Serializer renders models as API payloads.
type Serializer struct {
	media MediaURL
}

func NewSerializer(media MediaURL) *Serializer {
	return &Serializer{media: media}
}

// file renders an optional file field; empty paths become null.
func (s *Serializer) file(path string) *string {
	if path == "" {
		return nil
	}
	url := s.media(path)
	return &url
}

func (s *Serializer) User(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Email:      u.Email,
		Bio:        u.Bio,
		Avatar:     s.media(u.Avatar),
		DateJoined: u.DateJoined,
	}
}

func (s *Serializer) Users(users []models.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = s.User(&users[i])
	}
	return out
}

func (s *Serializer) Topic(t *models.Topic) TopicResponse {
	return TopicResponse{ID: t.ID, Name: t.Name, Created: t.CreatedAt, RoomCount: t.RoomCount}
}

func (s *Serializer) Topics(topics []models.Topic) []TopicResponse {
	out := make([]TopicResponse, len(topics))
	for i := range topics {
		out[i] = s.Topic(&topics[i])
	}
	return out
}

func (s *Serializer) Attachment(a *models.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID,
		File:       s.media(a.File),
		FileType:   a.FileType,
		FileName:   a.FileName,
		FileSize:   a.FileSize,
		UploadedAt: a.UploadedAt,
	}
}

func (s *Serializer) Message(m *models.Message) MessageResponse {
	attachments := make([]AttachmentResponse, len(m.Attachments))
	for i := range m.Attachments {
		attachments[i] = s.Attachment(&m.Attachments[i])
	}
	return MessageResponse{
		ID:             m.ID,
		User:           s.User(&m.User),
		Body:           m.Body,
		Image:          s.file(m.Image),
		Document:       s.file(m.Document),
		Attachments:    attachments,
		HasAttachments: m.HasAttachments(),
		Created:        m.CreatedAt,
		Updated:        m.UpdatedAt,
	}
}

func (s *Serializer) Messages(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, len(messages))
	for i := range messages {
		out[i] = s.Message(&messages[i])
	}
	return out
}

// Room renders the full room; messages is the room's conversation.
func (s *Serializer) Room(r *models.Room, messages []models.Message) RoomResponse {
	resp := RoomResponse{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		RoomImage:        s.file(r.RoomImage),
		Participants:     s.Users(r.Participants),
		ParticipantCount: r.ParticipantCount,
		Messages:         s.Messages(messages),
		Created:          r.CreatedAt,
		Updated:          r.UpdatedAt,
	}
	if r.Host != nil {
		host := s.User(r.Host)
		resp.Host = &host
	}
	if r.Topic != nil {
		topic := s.Topic(r.Topic)
		resp.Topic = &topic
	}
	return resp
}

func (s *Serializer) RoomListItem(r *models.Room) RoomListItem {
	item := RoomListItem{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		RoomImage:        s.file(r.RoomImage),
		ParticipantCount: r.ParticipantCount,
		Created:          r.CreatedAt,
		Updated:          r.UpdatedAt,
	}
	if r.Host != nil {
		host := r.Host.String()
		item.Host = &host
	}
	if r.Topic != nil {
		topic := r.Topic.Name
		item.Topic = &topic
	}
	return item
}

func (s *Serializer) RoomList(rooms []models.Room) []RoomListItem {
	out := make([]RoomListItem, len(rooms))
	for i := range rooms {
		out[i] = s.RoomListItem(&rooms[i])
	}
	return out
}
