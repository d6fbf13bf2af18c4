package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kindredapp/kindred-backend/internal/config"
)

// NewDB initializes the database connection using DSN from config.
//
// TranslateError is on so unique-index violations surface as
// gorm.ErrDuplicatedKey regardless of driver — the error mapper and the
// match/like conflict handling depend on it.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(
		&User{}, &Photo{}, &Preference{},
		&Like{}, &Pass{},
		&Match{}, &MatchParticipant{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
