package notify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type recordingProvider struct {
	sent []Email
	err  error
}

func (p *recordingProvider) Send(_ context.Context, email Email) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, email)
	return nil
}

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "notify.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Notification{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestDispatcher(t *testing.T, db *gorm.DB, provider Provider) *Dispatcher {
	t.Helper()
	dispatcher, err := NewDispatcher(DispatcherConfig{
		Database:    db,
		Provider:    provider,
		Clock:       func() time.Time { return time.Unix(1700000000, 0) },
		FromAddress: "noreply@teamline.local",
		FromName:    "Teamline",
	})
	if err != nil {
		t.Fatalf("unexpected dispatcher error: %v", err)
	}
	return dispatcher
}

func TestDispatchSendsAndPersistsRecord(t *testing.T) {
	db := openTestDatabase(t)
	provider := &recordingProvider{}
	dispatcher := newTestDispatcher(t, db, provider)

	ok := dispatcher.Dispatch(context.Background(), 4, "minh@example.com", TypeMention, MentionPayload{
		MentionedBy: "Lan",
		Comment:     "please review",
		ProjectName: "ER Wait Times",
		URL:         "http://localhost/projects/4",
	})
	if !ok {
		t.Fatalf("expected dispatch to succeed")
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(provider.sent))
	}
	if provider.sent[0].Subject != "Lan mentioned you" {
		t.Fatalf("unexpected subject %q", provider.sent[0].Subject)
	}

	var stored Notification
	if err := db.Take(&stored).Error; err != nil {
		t.Fatalf("expected a persisted notification: %v", err)
	}
	if stored.Recipient != "minh@example.com" || stored.Type != TypeMention {
		t.Fatalf("unexpected persisted row: %+v", stored)
	}
	if stored.IsRead {
		t.Fatalf("new notification must be unread")
	}
	if stored.MessageID == "" {
		t.Fatalf("expected a message id on the persisted row")
	}
}

func TestDispatchProviderFailureReturnsFalseAndPersistsNothing(t *testing.T) {
	db := openTestDatabase(t)
	provider := &recordingProvider{err: errors.New("smtp unreachable")}
	dispatcher := newTestDispatcher(t, db, provider)

	ok := dispatcher.Dispatch(context.Background(), 4, "minh@example.com", TypeMention, MentionPayload{MentionedBy: "Lan"})
	if ok {
		t.Fatalf("expected dispatch to report failure")
	}

	var count int64
	if err := db.Model(&Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no row should be persisted on failure, found %d", count)
	}
}

func TestDispatchRejectsMismatchedPayload(t *testing.T) {
	db := openTestDatabase(t)
	provider := &recordingProvider{}
	dispatcher := newTestDispatcher(t, db, provider)

	if dispatcher.Dispatch(context.Background(), 1, "minh@example.com", TypeTaskDeadline, MentionPayload{}) {
		t.Fatalf("expected render failure for mismatched payload")
	}
	if len(provider.sent) != 0 {
		t.Fatalf("nothing should have been sent")
	}
}

func TestDispatchRejectsEmptyRecipient(t *testing.T) {
	db := openTestDatabase(t)
	dispatcher := newTestDispatcher(t, db, &recordingProvider{})

	if dispatcher.Dispatch(context.Background(), 1, "", TypeMention, MentionPayload{MentionedBy: "Lan"}) {
		t.Fatalf("expected dispatch to refuse empty recipient")
	}
}

func TestUnreadAndMarkReadAndSummary(t *testing.T) {
	db := openTestDatabase(t)
	provider := &recordingProvider{}
	dispatcher := newTestDispatcher(t, db, provider)
	ctx := context.Background()

	dispatcher.Dispatch(ctx, 1, "minh@example.com", TypeMention, MentionPayload{MentionedBy: "Lan"})
	dispatcher.Dispatch(ctx, 1, "minh@example.com", TypeTaskDeadline, TaskDeadlinePayload{TaskName: "Map process", DaysLeft: 3})
	dispatcher.Dispatch(ctx, 1, "other@example.com", TypeMention, MentionPayload{MentionedBy: "Lan"})

	unread, err := dispatcher.Unread(ctx, "minh@example.com")
	if err != nil {
		t.Fatalf("unexpected unread error: %v", err)
	}
	if len(unread) != 2 {
		t.Fatalf("expected 2 unread notifications, got %d", len(unread))
	}

	if err := dispatcher.MarkRead(ctx, unread[0].ID); err != nil {
		t.Fatalf("unexpected mark read error: %v", err)
	}

	summary, err := dispatcher.RecipientSummary(ctx, "minh@example.com")
	if err != nil {
		t.Fatalf("unexpected summary error: %v", err)
	}
	if summary.Total != 2 || summary.Unread != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ByType[TypeMention] != 1 || summary.ByType[TypeTaskDeadline] != 1 {
		t.Fatalf("unexpected by-type counts: %+v", summary.ByType)
	}

	if err := dispatcher.MarkRead(ctx, 9999); err == nil {
		t.Fatalf("expected error marking unknown notification")
	}
}
