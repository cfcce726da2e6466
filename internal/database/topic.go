package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const topicColumns = "topics.*, (SELECT COUNT(*) FROM rooms r WHERE r.topic_id = topics.id) AS room_count"

func topicWithRoomCount(db *gorm.DB) *gorm.DB {
	return db.Select(topicColumns)
}

// TopicQuery filters topic listings by name. Limit 0 means no limit.
type TopicQuery struct {
	Search string
	Limit  int
}

// ListTopics returns topics with their room counts, busiest first, then by name.
func (d *Database) ListTopics(ctx context.Context, q TopicQuery) ([]models.Topic, error) {
	db := d.db.WithContext(ctx).Model(&models.Topic{}).Select(topicColumns)
	if q.Search != "" {
		db = db.Scopes(containsAny(q.Search, "topics.name"))
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var topics []models.Topic
	err := db.Order("room_count DESC, topics.name ASC").Find(&topics).Error
	return topics, err
}

func (d *Database) GetTopic(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	var topic models.Topic
	if err := d.db.WithContext(ctx).Select(topicColumns).First(&topic, "topics.id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &topic, nil
}

// GetOrCreateTopic resolves name to a topic, inserting it when absent. The
// insert is keyed on the unique name and skips on conflict, so concurrent
// callers with the same new name end up sharing one row.
func (d *Database) GetOrCreateTopic(ctx context.Context, name string) (*models.Topic, bool, error) {
	candidate := models.Topic{Name: name}
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&candidate).Error
	if err != nil {
		return nil, false, err
	}

	var topic models.Topic
	if err := d.db.WithContext(ctx).First(&topic, "name = ?", name).Error; err != nil {
		return nil, false, notFound(err)
	}
	return &topic, topic.ID == candidate.ID, nil
}

// DeleteTopic removes the topic; rooms under it keep existing without one.
func (d *Database) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Room{}).Where("topic_id = ?", id).UpdateColumn("topic_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Topic{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
