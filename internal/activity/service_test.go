package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "activity.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, clock func() time.Time) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func TestQueryReturnsMostRecentFirstAndScopedToProject(t *testing.T) {
	db := openTestDatabase(t)
	current := time.Unix(1700000000, 0)
	service := newTestService(t, db, func() time.Time { return current })

	ctx := context.Background()
	entries := []struct {
		project uint
		kind    Kind
		desc    string
	}{
		{1, KindProjectCreated, "created project"},
		{1, KindCommentPosted, "posted a comment"},
		{2, KindCommentPosted, "other project noise"},
		{1, KindTaskCompleted, "finished the task"},
	}
	for _, entry := range entries {
		if _, err := service.Append(ctx, entry.project, "Minh", entry.kind, entry.desc, nil); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
		current = current.Add(time.Minute)
	}

	records, err := service.Query(ctx, 1, 0, QueryFilter{})
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records for project 1, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAtS > records[i-1].CreatedAtS {
			t.Fatalf("records not in non-increasing timestamp order: %v", records)
		}
	}
	if records[0].Kind != KindTaskCompleted {
		t.Fatalf("expected most recent record first, got %s", records[0].Kind)
	}
	for _, record := range records {
		if record.ProjectID != 1 {
			t.Fatalf("query leaked record from project %d", record.ProjectID)
		}
	}
}

func TestQueryAppliesLimitAndKindFilter(t *testing.T) {
	db := openTestDatabase(t)
	current := time.Unix(1700000000, 0)
	service := newTestService(t, db, func() time.Time { return current })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		kind := KindCommentPosted
		if i%2 == 0 {
			kind = KindTaskAdded
		}
		if _, err := service.Append(ctx, 7, "Lan", kind, "entry", nil); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
		current = current.Add(time.Second)
	}

	limited, err := service.Query(ctx, 7, 2, QueryFilter{})
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(limited))
	}

	filtered, err := service.Query(ctx, 7, 0, QueryFilter{Kind: KindTaskAdded})
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(filtered) != 3 {
		t.Fatalf("expected 3 task_added records, got %d", len(filtered))
	}
}

func TestAppendStoresEntityReference(t *testing.T) {
	db := openTestDatabase(t)
	service := newTestService(t, db, func() time.Time { return time.Unix(1700000000, 0) })

	id, err := service.Append(context.Background(), 3, "Lan", KindDecisionMade, "decided something", &EntityRef{Type: "meeting", ID: 42})
	if err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	var stored Record
	if err := db.Where("id = ?", id).Take(&stored).Error; err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if stored.EntityType != "meeting" || stored.EntityID != 42 {
		t.Fatalf("entity reference not stored: %+v", stored)
	}
}

func TestAppendRejectsMissingProjectAndKind(t *testing.T) {
	db := openTestDatabase(t)
	service := newTestService(t, db, nil)

	if _, err := service.Append(context.Background(), 0, "Lan", KindCommentPosted, "x", nil); err == nil {
		t.Fatalf("expected error for missing project")
	}
	if _, err := service.Append(context.Background(), 1, "Lan", "", "x", nil); err == nil {
		t.Fatalf("expected error for missing kind")
	}
}
