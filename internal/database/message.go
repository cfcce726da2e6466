package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageQuery filters message listings. TopicSearch matches the room's topic
// name; Search matches body, author username or email and room name.
type MessageQuery struct {
	RoomID      *uuid.UUID
	UserID      *uuid.UUID
	TopicID     *uuid.UUID
	TopicSearch string
	Search      string
	Page        PageRequest
}

func (q MessageQuery) scope(db *gorm.DB) *gorm.DB {
	db = db.
		Joins("JOIN users authors ON authors.id = messages.user_id").
		Joins("JOIN rooms ON rooms.id = messages.room_id").
		Joins("LEFT JOIN topics ON topics.id = rooms.topic_id")
	if q.RoomID != nil {
		db = db.Where("messages.room_id = ?", *q.RoomID)
	}
	if q.UserID != nil {
		db = db.Where("messages.user_id = ?", *q.UserID)
	}
	if q.TopicID != nil {
		db = db.Where("rooms.topic_id = ?", *q.TopicID)
	}
	if q.TopicSearch != "" {
		db = db.Scopes(containsAny(q.TopicSearch, "topics.name"))
	}
	if q.Search != "" {
		db = db.Scopes(containsAny(q.Search, "messages.body", "authors.username", "authors.email", "rooms.name"))
	}
	return db
}

func (d *Database) messageListing(ctx context.Context, q MessageQuery) *gorm.DB {
	return d.db.WithContext(ctx).
		Model(&models.Message{}).
		Scopes(q.scope).
		Select("messages.*").
		Order("messages.created_at DESC").
		Preload("User").
		Preload("Room.Topic").
		Preload("Attachments", attachmentsInOrder)
}

// ListMessages returns one page of messages, newest first.
func (d *Database) ListMessages(ctx context.Context, q MessageQuery) (Page[models.Message], error) {
	var total int64
	if err := d.db.WithContext(ctx).Model(&models.Message{}).Scopes(q.scope).Count(&total).Error; err != nil {
		return Page[models.Message]{}, err
	}

	page := newPage[models.Message](q.Page, total)
	err := d.messageListing(ctx, q).Offset(page.offset()).Limit(page.Size).Find(&page.Items).Error
	if err != nil {
		return Page[models.Message]{}, err
	}
	return page, nil
}

// RecentMessages returns at most limit messages, newest first.
func (d *Database) RecentMessages(ctx context.Context, q MessageQuery, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := d.messageListing(ctx, q).Limit(limit).Find(&messages).Error
	return messages, err
}

func (d *Database) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := d.db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		Preload("Attachments", attachmentsInOrder).
		First(&message, "messages.id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &message, nil
}

// CreateMessage stores the message with its attachments and makes the author a
// participant of the room, all in one transaction. The flag reports whether
// the author joined the room with this message.
func (d *Database) CreateMessage(ctx context.Context, message *models.Message) (bool, error) {
	joined := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Room").Create(message).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.RoomParticipant{RoomID: message.RoomID, UserID: message.UserID})
		if res.Error != nil {
			return res.Error
		}
		joined = res.RowsAffected > 0
		return nil
	})
	return joined, err
}

// DeleteMessage removes the message and its attachments.
func (d *Database) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Message{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

func attachmentsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("attachments.uploaded_at ASC")
}
