package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentDocument AttachmentType = "document"
	AttachmentVideo    AttachmentType = "video"
	AttachmentAudio    AttachmentType = "audio"
)

func (t AttachmentType) Valid() bool {
	switch t {
	case AttachmentImage, AttachmentDocument, AttachmentVideo, AttachmentAudio:
		return true
	}
	return false
}

type Attachment struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	MessageID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	File       string         `gorm:"not null"`
	FileType   AttachmentType `gorm:"size:20;not null"`
	FileName   string         `gorm:"size:255;not null"`
	FileSize   int64          `gorm:"not null;check:file_size >= 0"`
	UploadedAt time.Time      `gorm:"autoCreateTime"`

	Message *Message `gorm:"foreignKey:MessageID"`
}

func (a *Attachment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.FileSize < 0 {
		return fmt.Errorf("attachment size must not be negative")
	}
	return nil
}

// SizeDisplay renders the size as B, KB or MB.
func (a *Attachment) SizeDisplay() string {
	switch {
	case a.FileSize < 1024:
		return fmt.Sprintf("%d B", a.FileSize)
	case a.FileSize < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(a.FileSize)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(a.FileSize)/(1024*1024))
	}
}
