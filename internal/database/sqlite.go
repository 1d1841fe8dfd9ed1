package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/teamline-io/teamline/internal/activity"
	"github.com/teamline-io/teamline/internal/comments"
	"github.com/teamline-io/teamline/internal/directory"
	"github.com/teamline-io/teamline/internal/meetings"
	"github.com/teamline-io/teamline/internal/notify"
	"github.com/teamline-io/teamline/internal/scanner"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&directory.Project{},
		&directory.TeamMember{},
		&directory.Task{},
		&activity.Record{},
		&comments.Comment{},
		&meetings.Meeting{},
		&meetings.ActionItem{},
		&meetings.Decision{},
		&notify.Notification{},
		&scanner.ReminderMarker{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
