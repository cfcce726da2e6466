package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultAvatar = "avatar.svg"

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"size:254;uniqueIndex;not null"`
	Username     string    `gorm:"size:150;uniqueIndex;not null"`
	Name         string    `gorm:"size:200"`
	Bio          string    `gorm:"type:text"`
	Avatar       string    `gorm:"default:'avatar.svg'"`
	PasswordHash string    `gorm:"not null"`
	IsStaff      bool      `gorm:"not null"`
	IsActive     bool      `gorm:"not null"`
	DateJoined   time.Time `gorm:"autoCreateTime"`
	LastLogin    *time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName is the name shown next to rooms and messages.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// String mirrors how the user is referenced in listings: email, else username.
func (u *User) String() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Username
}
