package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/models"
	"gorm.io/gorm"
)

// UserQuery filters user listings. Search matches username, email or name.
type UserQuery struct {
	Search   string
	IsActive *bool
	IsStaff  *bool
	Page     PageRequest
}

func (q UserQuery) scope(db *gorm.DB) *gorm.DB {
	if q.Search != "" {
		db = db.Scopes(containsAny(q.Search, "users.username", "users.email", "users.name"))
	}
	if q.IsActive != nil {
		db = db.Where("users.is_active = ?", *q.IsActive)
	}
	if q.IsStaff != nil {
		db = db.Where("users.is_staff = ?", *q.IsStaff)
	}
	return db
}

// ListUsers returns one page of users, newest accounts first.
func (d *Database) ListUsers(ctx context.Context, q UserQuery) (Page[models.User], error) {
	var total int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Scopes(q.scope).Count(&total).Error; err != nil {
		return Page[models.User]{}, err
	}

	page := newPage[models.User](q.Page, total)
	err := d.db.WithContext(ctx).
		Scopes(q.scope).
		Order("users.date_joined DESC").
		Offset(page.offset()).
		Limit(page.Size).
		Find(&page.Items).Error
	if err != nil {
		return Page[models.User]{}, err
	}
	return page, nil
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindUserByEmail expects email already lower-cased.
func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (d *Database) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// EmailTaken reports whether another account than except uses email.
func (d *Database) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	return d.taken(ctx, "email", email, except)
}

// UsernameTaken reports whether another account than except uses username.
func (d *Database) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	return d.taken(ctx, "username", username, except)
}

func (d *Database) taken(ctx context.Context, column, value string, except uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, except).
		Count(&count).Error
	return count > 0, err
}

func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	return d.db.WithContext(ctx).Create(user).Error
}

func (d *Database) UpdateUser(ctx context.Context, user *models.User) error {
	return d.db.WithContext(ctx).Save(user).Error
}

func (d *Database) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login", at).Error
}

// SetUserFlags updates the staff and active flags. Nil leaves a flag as is.
func (d *Database) SetUserFlags(ctx context.Context, id uuid.UUID, isStaff, isActive *bool) error {
	updates := map[string]interface{}{}
	if isStaff != nil {
		updates["is_staff"] = *isStaff
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}
	if len(updates) == 0 {
		return nil
	}
	res := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteUser removes the account with everything it wrote. Rooms it hosted
// stay and lose their host.
func (d *Database) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		written := tx.Model(&models.Message{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("message_id IN (?)", written).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RoomParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Room{}).Where("host_id = ?", id).UpdateColumn("host_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
