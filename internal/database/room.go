package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const roomColumns = "rooms.*, " +
	"(SELECT COUNT(*) FROM room_participants rp WHERE rp.room_id = rooms.id) AS participant_count, " +
	"(SELECT COUNT(*) FROM messages m WHERE m.room_id = rooms.id) AS message_count"

const roomOrder = "rooms.updated_at DESC, rooms.created_at DESC"

// RoomQuery filters room listings. Search matches room name, description or
// topic name; HostSearch matches room name, description, host username or email.
type RoomQuery struct {
	Search     string
	HostSearch string
	TopicID    *uuid.UUID
	HostID     *uuid.UUID
	Page       PageRequest
}

func (q RoomQuery) scope(db *gorm.DB) *gorm.DB {
	db = db.
		Joins("LEFT JOIN topics ON topics.id = rooms.topic_id").
		Joins("LEFT JOIN users hosts ON hosts.id = rooms.host_id")
	if q.Search != "" {
		db = db.Scopes(containsAny(q.Search, "topics.name", "rooms.name", "rooms.description"))
	}
	if q.HostSearch != "" {
		db = db.Scopes(containsAny(q.HostSearch, "rooms.name", "rooms.description", "hosts.username", "hosts.email"))
	}
	if q.TopicID != nil {
		db = db.Where("rooms.topic_id = ?", *q.TopicID)
	}
	if q.HostID != nil {
		db = db.Where("rooms.host_id = ?", *q.HostID)
	}
	return db
}

// ListRooms returns one page of rooms, most recently updated first, with
// participant and message counts filled in.
func (d *Database) ListRooms(ctx context.Context, q RoomQuery) (Page[models.Room], error) {
	var total int64
	if err := d.db.WithContext(ctx).Model(&models.Room{}).Scopes(q.scope).Count(&total).Error; err != nil {
		return Page[models.Room]{}, err
	}

	page := newPage[models.Room](q.Page, total)
	err := d.db.WithContext(ctx).
		Model(&models.Room{}).
		Scopes(q.scope).
		Select(roomColumns).
		Order(roomOrder).
		Offset(page.offset()).
		Limit(page.Size).
		Preload("Host").
		Preload("Topic").
		Find(&page.Items).Error
	if err != nil {
		return Page[models.Room]{}, err
	}
	return page, nil
}

// UserHostedRooms lists every room hosted by userID.
func (d *Database) UserHostedRooms(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.WithContext(ctx).
		Select(roomColumns).
		Where("rooms.host_id = ?", userID).
		Order(roomOrder).
		Preload("Topic").
		Find(&rooms).Error
	return rooms, err
}

func (d *Database) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := d.db.WithContext(ctx).
		Select(roomColumns).
		Preload("Host").
		Preload("Topic", topicWithRoomCount).
		Preload("Participants").
		First(&room, "rooms.id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// RoomMessages returns the conversation of a room, oldest first.
func (d *Database) RoomMessages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Preload("User").
		Preload("Attachments", attachmentsInOrder).
		Find(&messages).Error
	return messages, err
}

func (d *Database) CreateRoom(ctx context.Context, room *models.Room) error {
	return d.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error
}

func (d *Database) UpdateRoom(ctx context.Context, room *models.Room) error {
	return d.db.WithContext(ctx).Omit(clause.Associations).Save(room).Error
}

// DeleteRoom removes the room with its messages, their attachments and the
// participant rows.
func (d *Database) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roomMessages := tx.Model(&models.Message{}).Select("id").Where("room_id = ?", id)
		if err := tx.Where("message_id IN (?)", roomMessages).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&models.RoomParticipant{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Room{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// JoinRoom adds userID to the room's participants. Joining twice is a no-op;
// the returned flag reports whether a row was added.
func (d *Database) JoinRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RoomParticipant{RoomID: roomID, UserID: userID})
	return res.RowsAffected > 0, res.Error
}

// LeaveRoom removes userID from the participants. Leaving a room the user
// never joined is a no-op.
func (d *Database) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	res := d.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomParticipant{})
	return res.RowsAffected > 0, res.Error
}
