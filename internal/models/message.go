package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const previewLength = 50

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Body      string    `gorm:"type:text"`
	Image     string
	Document  string
	UpdatedAt time.Time
	CreatedAt time.Time

	// Relations
	User        User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Room        Room         `gorm:"foreignKey:RoomID"`
	Attachments []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Message) HasAttachments() bool {
	return m.Image != "" || m.Document != ""
}

// Preview truncates the body to 50 characters.
func (m *Message) Preview() string {
	if utf8.RuneCountInString(m.Body) <= previewLength {
		return m.Body
	}
	runes := []rune(m.Body)
	return string(runes[:previewLength]) + "..."
}
