package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/models"
	"gorm.io/gorm"
)

// AttachmentQuery filters the attachment listing of the admin console.
// Search matches file name, the author's username and the room name.
type AttachmentQuery struct {
	Search   string
	FileType models.AttachmentType
	Page     PageRequest
}

func (q AttachmentQuery) scope(db *gorm.DB) *gorm.DB {
	if q.Search != "" {
		db = db.
			Joins("JOIN messages ON messages.id = attachments.message_id").
			Joins("JOIN users authors ON authors.id = messages.user_id").
			Joins("JOIN rooms ON rooms.id = messages.room_id").
			Scopes(containsAny(q.Search, "attachments.file_name", "authors.username", "rooms.name"))
	}
	if q.FileType != "" {
		db = db.Where("attachments.file_type = ?", q.FileType)
	}
	return db
}

// ListAttachments returns one page of attachments, newest uploads first.
func (d *Database) ListAttachments(ctx context.Context, q AttachmentQuery) (Page[models.Attachment], error) {
	var total int64
	if err := d.db.WithContext(ctx).Model(&models.Attachment{}).Scopes(q.scope).Count(&total).Error; err != nil {
		return Page[models.Attachment]{}, err
	}

	page := newPage[models.Attachment](q.Page, total)
	err := d.db.WithContext(ctx).
		Model(&models.Attachment{}).
		Scopes(q.scope).
		Select("attachments.*").
		Order("attachments.uploaded_at DESC").
		Offset(page.offset()).
		Limit(page.Size).
		Preload("Message.User").
		Preload("Message.Room").
		Find(&page.Items).Error
	if err != nil {
		return Page[models.Attachment]{}, err
	}
	return page, nil
}

func (d *Database) GetAttachment(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := d.db.WithContext(ctx).Preload("Message.User").Preload("Message.Room").First(&attachment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &attachment, nil
}

func (d *Database) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	res := d.db.WithContext(ctx).Delete(&models.Attachment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Counts is the per-entity row count shown on the admin index.
type Counts struct {
	Users       int64 `json:"users"`
	Topics      int64 `json:"topics"`
	Rooms       int64 `json:"rooms"`
	Messages    int64 `json:"messages"`
	Attachments int64 `json:"attachments"`
}

func (d *Database) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &c.Users},
		{&models.Topic{}, &c.Topics},
		{&models.Room{}, &c.Rooms},
		{&models.Message{}, &c.Messages},
		{&models.Attachment{}, &c.Attachments},
	}
	for _, t := range targets {
		if err := d.db.WithContext(ctx).Model(t.model).Count(t.dst).Error; err != nil {
			return Counts{}, err
		}
	}
	return c, nil
}
