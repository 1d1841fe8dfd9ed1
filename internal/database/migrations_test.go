package database

import (
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/teamline-io/teamline/internal/comments"
	"github.com/teamline-io/teamline/internal/directory"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsNormalizesMemberEmails(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&directory.TeamMember{}, &comments.Comment{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	member := directory.TeamMember{
		ProjectID: 1,
		Name:      "Minh Tran",
		Email:     " Minh.Tran@Example.COM ",
	}
	if err := database.Create(&member).Error; err != nil {
		testContext.Fatalf("failed to insert member: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored directory.TeamMember
	if err := database.Where("id = ?", member.ID).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload member: %v", err)
	}
	if stored.Email != "minh.tran@example.com" {
		testContext.Fatalf("expected folded address, got %q", stored.Email)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationNormalizeMemberEmails).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestApplyMigrationsClearsOrphanedReplies(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&directory.TeamMember{}, &comments.Comment{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	root := comments.Comment{ProjectID: 1, AuthorName: "Lan", Text: "root", CreatedAtS: 100}
	if err := database.Create(&root).Error; err != nil {
		testContext.Fatalf("failed to insert root: %v", err)
	}
	reply := comments.Comment{ProjectID: 1, AuthorName: "Minh", Text: "reply", ParentID: &root.ID, CreatedAtS: 101}
	if err := database.Create(&reply).Error; err != nil {
		testContext.Fatalf("failed to insert reply: %v", err)
	}
	missingParent := uint(999)
	orphan := comments.Comment{ProjectID: 1, AuthorName: "Minh", Text: "orphan", ParentID: &missingParent, CreatedAtS: 102}
	if err := database.Create(&orphan).Error; err != nil {
		testContext.Fatalf("failed to insert orphan: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var remaining []comments.Comment
	if err := database.Order("id ASC").Find(&remaining).Error; err != nil {
		testContext.Fatalf("failed to list comments: %v", err)
	}
	if len(remaining) != 2 {
		testContext.Fatalf("expected orphan to be removed, got %d comments", len(remaining))
	}
	for _, comment := range remaining {
		if comment.Text == "orphan" {
			testContext.Fatalf("orphaned reply survived the migration")
		}
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		testContext.Fatalf("expected error for empty path")
	}
}

func TestOpenSQLiteMigratesSchema(testContext *testing.T) {
	databasePath := filepath.Join(testContext.TempDir(), "teamline.db")
	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	for _, table := range []string{
		"projects", "team_members", "tasks", "activity_log", "project_comments",
		"meeting_minutes", "action_items", "decision_log", "notifications",
		"reminder_markers", "db_migrations",
	} {
		if !database.Migrator().HasTable(table) {
			testContext.Fatalf("expected table %q to exist", table)
		}
	}
}
