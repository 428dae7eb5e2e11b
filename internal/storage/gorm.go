// Package storage implements the durable persistence store on SQLite via
// gorm: exact-match and set-membership queries over users and messages,
// plus time-based expiry handled by the janitor.
package storage

import (
	"fmt"

	"github.com/tidechat/tidechat/internal/domain/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQLite database and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Map driver duplicate-key errors to gorm.ErrDuplicatedKey so the
		// repositories can translate them to domain errors.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Message{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
