package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Room struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	HostID      *uuid.UUID `gorm:"type:uuid;index"`
	TopicID     *uuid.UUID `gorm:"type:uuid;index"`
	Name        string     `gorm:"size:200;not null"`
	Description string     `gorm:"type:text"`
	RoomImage   string
	UpdatedAt   time.Time
	CreatedAt   time.Time

	// Relations
	Host         *User     `gorm:"foreignKey:HostID;constraint:OnDelete:SET NULL"`
	Topic        *Topic    `gorm:"foreignKey:TopicID;constraint:OnDelete:SET NULL"`
	Participants []User    `gorm:"many2many:room_participants"`
	Messages     []Message `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`

	// Filled only by queries that annotate them.
	ParticipantCount int64 `gorm:"->;-:migration"`
	MessageCount     int64 `gorm:"->;-:migration"`
}

func (r *Room) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HostedBy reports whether userID is the room's host.
func (r *Room) HostedBy(userID uuid.UUID) bool {
	return r.HostID != nil && *r.HostID == userID
}

// TopicName is empty for rooms whose topic was removed.
func (r *Room) TopicName() string {
	if r.Topic == nil {
		return ""
	}
	return r.Topic.Name
}

// RoomParticipant is the join row behind Room.Participants.
type RoomParticipant struct {
	RoomID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (RoomParticipant) TableName() string {
	return "room_participants"
}
