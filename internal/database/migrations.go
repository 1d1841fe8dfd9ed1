package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationNormalizeMemberEmails = "2026-07-30_normalize_member_emails"
	migrationClearOrphanedReplies  = "2026-08-12_clear_orphaned_replies"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeMemberEmails, apply: normalizeMemberEmails},
		{name: migrationClearOrphanedReplies, apply: clearOrphanedReplies},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Member addresses are matched case-insensitively at lookup time; stored
// copies from before that change are folded once here.
func normalizeMemberEmails(db *gorm.DB) error {
	return db.Exec("UPDATE team_members SET email = lower(trim(email)) WHERE email <> lower(trim(email));").Error
}

// Replies whose root comment was deleted before deletes became transactional
// are unreachable from any thread; drop them.
func clearOrphanedReplies(db *gorm.DB) error {
	return db.Exec(`DELETE FROM project_comments
		WHERE parent_comment_id IS NOT NULL
		AND parent_comment_id NOT IN (SELECT id FROM project_comments WHERE parent_comment_id IS NULL);`).Error
}
