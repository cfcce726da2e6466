package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/thereayou/studybud/internal/config"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite:"

// Connect opens the configured database and migrates the schema.
func Connect(cfg *config.Config) (*Database, error) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, sqlitePrefix) {
		dialector = OpenSQLite(strings.TrimPrefix(dsn, sqlitePrefix))
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Gorm(200 * time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	d := NewDatabase(db)
	if err := d.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return d, nil
}

// Migrate creates or updates every table the application uses.
func (d *Database) Migrate() error {
	if err := d.db.SetupJoinTable(&models.Room{}, "Participants", &models.RoomParticipant{}); err != nil {
		return err
	}
	return d.db.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Room{},
		&models.RoomParticipant{},
		&models.Message{},
		&models.Attachment{},
	)
}
