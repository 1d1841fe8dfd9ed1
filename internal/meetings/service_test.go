package meetings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/teamline-io/teamline/internal/activity"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, clock func() time.Time) (*Service, *gorm.DB) {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "meetings.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Meeting{}, &ActionItem{}, &Decision{}, &activity.Record{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	recorder, err := activity.NewService(activity.ServiceConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("unexpected recorder error: %v", err)
	}
	service, err := NewService(ServiceConfig{Database: db, Clock: clock, Recorder: recorder})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service, db
}

func fixedClock(seconds int64) func() time.Time {
	return func() time.Time { return time.Unix(seconds, 0) }
}

func TestCreateMeetingStoresChildRowsAndEmitsActivity(t *testing.T) {
	service, db := newTestService(t, fixedClock(1700000000))
	ctx := context.Background()

	meetingID, err := service.CreateMeeting(ctx, 1, MeetingInput{
		Title:     "Kickoff",
		Date:      "2026-08-20",
		Location:  "Room 301",
		CreatedBy: "Lan",
		ActionItems: []ActionItemInput{
			{Description: "Collect baseline data", Assignee: "Minh", DueDate: "2026-09-01"},
			{Description: "Draft charter", Assignee: "Lan", DueDate: "2026-08-25", Priority: PriorityHigh},
		},
		Decisions: []DecisionInput{
			{Description: "Scope limited to ER intake", DecisionMaker: "Dr. Pham", Rationale: "Largest delay source"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	items, err := service.ActionItems(ctx, 1, "")
	if err != nil {
		t.Fatalf("unexpected action items error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 action items, got %d", len(items))
	}
	for _, item := range items {
		if item.MeetingID != meetingID {
			t.Fatalf("action item not linked to meeting: %+v", item)
		}
		if item.Status != StatusOpen {
			t.Fatalf("new action items must start Open, got %s", item.Status)
		}
		if item.MeetingDate != "2026-08-20" {
			t.Fatalf("action item must carry the parent meeting date, got %q", item.MeetingDate)
		}
	}

	decisions, err := service.Decisions(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected decisions error: %v", err)
	}
	if len(decisions) != 1 || decisions[0].MeetingDate != "2026-08-20" {
		t.Fatalf("unexpected decisions: %+v", decisions)
	}

	kinds := map[activity.Kind]int64{}
	for _, kind := range []activity.Kind{activity.KindMeetingAdded, activity.KindActionItemCreated, activity.KindDecisionMade} {
		var count int64
		if err := db.Model(&activity.Record{}).Where("kind = ?", kind).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		kinds[kind] = count
	}
	if kinds[activity.KindMeetingAdded] != 1 || kinds[activity.KindActionItemCreated] != 2 || kinds[activity.KindDecisionMade] != 1 {
		t.Fatalf("unexpected activity counts: %v", kinds)
	}
}

func TestCreateMeetingRequiresTitleAndDate(t *testing.T) {
	service, _ := newTestService(t, fixedClock(1700000000))
	ctx := context.Background()

	if _, err := service.CreateMeeting(ctx, 1, MeetingInput{Date: "2026-08-20"}); err == nil {
		t.Fatalf("expected error for missing title")
	}
	if _, err := service.CreateMeeting(ctx, 1, MeetingInput{Title: "Kickoff"}); err == nil {
		t.Fatalf("expected error for missing date")
	}
}

func TestUpdateActionItemStatusManagesCompletionTimestamp(t *testing.T) {
	service, db := newTestService(t, fixedClock(1700000000))
	ctx := context.Background()

	if _, err := service.CreateMeeting(ctx, 1, MeetingInput{
		Title:       "Review",
		Date:        "2026-08-20",
		CreatedBy:   "Lan",
		ActionItems: []ActionItemInput{{Description: "Fix intake form", Assignee: "Minh"}},
	}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	var item ActionItem
	if err := db.Take(&item).Error; err != nil {
		t.Fatalf("failed to load action item: %v", err)
	}

	if err := service.UpdateActionItemStatus(ctx, item.ID, StatusCompleted, "done early", "Minh"); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if err := db.Where("id = ?", item.ID).Take(&item).Error; err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if item.CompletedAtS == nil || *item.CompletedAtS != 1700000000 {
		t.Fatalf("completion timestamp must be set on Completed, got %v", item.CompletedAtS)
	}
	if item.Notes != "done early" {
		t.Fatalf("notes must be stored, got %q", item.Notes)
	}

	// Reverting away from Completed clears the timestamp.
	if err := service.UpdateActionItemStatus(ctx, item.ID, StatusOpen, "", "Minh"); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if err := db.Where("id = ?", item.ID).Take(&item).Error; err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if item.CompletedAtS != nil {
		t.Fatalf("completion timestamp must be cleared when leaving Completed")
	}

	var count int64
	if err := db.Model(&activity.Record{}).Where("kind = ?", activity.KindActionItemUpdated).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 action_item_updated records, got %d", count)
	}
}

func TestUpdateActionItemStatusUnknownItem(t *testing.T) {
	service, _ := newTestService(t, fixedClock(1700000000))
	if err := service.UpdateActionItemStatus(context.Background(), 999, StatusCompleted, "", "Minh"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActionItemsFiltersByStatus(t *testing.T) {
	service, db := newTestService(t, fixedClock(1700000000))
	ctx := context.Background()

	if _, err := service.CreateMeeting(ctx, 1, MeetingInput{
		Title:     "Planning",
		Date:      "2026-08-20",
		CreatedBy: "Lan",
		ActionItems: []ActionItemInput{
			{Description: "one"}, {Description: "two"}, {Description: "three"},
		},
	}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	var first ActionItem
	if err := db.Order("id ASC").Take(&first).Error; err != nil {
		t.Fatalf("failed to load item: %v", err)
	}
	if err := service.UpdateActionItemStatus(ctx, first.ID, StatusCompleted, "", "Lan"); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	completed, err := service.ActionItems(ctx, 1, StatusCompleted)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed item, got %d", len(completed))
	}
	open, err := service.ActionItems(ctx, 1, StatusOpen)
	if err != nil {
		t.Fatalf("unexpected query error: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open items, got %d", len(open))
	}
}

func TestOverdueReturnsPastDueOpenAndInProgressOnly(t *testing.T) {
	service, db := newTestService(t, fixedClock(1700000000))
	ctx := context.Background()

	if _, err := service.CreateMeeting(ctx, 1, MeetingInput{
		Title:     "Planning",
		Date:      "2026-08-01",
		CreatedBy: "Lan",
		ActionItems: []ActionItemInput{
			{Description: "past due open", DueDate: "2026-08-10"},
			{Description: "past due completed", DueDate: "2026-08-10"},
			{Description: "future", DueDate: "2026-09-10"},
			{Description: "garbage date", DueDate: "not-a-date"},
		},
	}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	var completedItem ActionItem
	if err := db.Where("item_description = ?", "past due completed").Take(&completedItem).Error; err != nil {
		t.Fatalf("failed to load item: %v", err)
	}
	if err := service.UpdateActionItemStatus(ctx, completedItem.ID, StatusCompleted, "", "Lan"); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}

	today := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	overdue, err := service.Overdue(ctx, 1, today)
	if err != nil {
		t.Fatalf("unexpected overdue error: %v", err)
	}
	if len(overdue) != 1 {
		t.Fatalf("expected exactly one overdue item, got %d", len(overdue))
	}
	if overdue[0].Description != "past due open" {
		t.Fatalf("unexpected overdue item: %+v", overdue[0])
	}
}

func TestDeleteMeetingRemovesChildren(t *testing.T) {
	service, db := newTestService(t, fixedClock(1700000000))
	ctx := context.Background()

	meetingID, err := service.CreateMeeting(ctx, 1, MeetingInput{
		Title:       "Retro",
		Date:        "2026-08-20",
		CreatedBy:   "Lan",
		ActionItems: []ActionItemInput{{Description: "follow up"}},
		Decisions:   []DecisionInput{{Description: "keep cadence"}},
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if err := service.DeleteMeeting(ctx, meetingID, "Lan"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	for name, model := range map[string]interface{}{"meetings": &Meeting{}, "action_items": &ActionItem{}, "decisions": &Decision{}} {
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected %s to be empty after delete, got %d", name, count)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"open", StatusOpen, true},
		{"In Progress", StatusInProgress, true},
		{"inprogress", StatusInProgress, true},
		{"Completed", StatusCompleted, true},
		{"cancelled", StatusCancelled, true},
		{"canceled", StatusCancelled, true},
		{"done", "", false},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.raw)
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("ParseStatus(%q) = %v, %v; want %v", tt.raw, got, err, tt.want)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("ParseStatus(%q) should fail with ErrInvalidStatus, got %v", tt.raw, err)
		}
	}
}
