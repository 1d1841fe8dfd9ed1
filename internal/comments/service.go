// Package comments persists threaded project discussions and fans out
// mention notifications.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamline-io/teamline/internal/activity"
	"github.com/teamline-io/teamline/internal/directory"
	"github.com/teamline-io/teamline/internal/mention"
	"github.com/teamline-io/teamline/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrParentNotFound indicates the reply target does not exist in the
	// same project.
	ErrParentNotFound = errors.New("comments: parent comment not found in project")

	errMissingDatabase = errors.New("database handle is required")
	errMissingText     = errors.New("comment text is required")
	errMissingAuthor   = errors.New("comment author is required")
	noOpLogger         = zap.NewNop()
)

const (
	opServiceNew = "comments.service.new"
	opAdd        = "comments.add"
	opList       = "comments.list"
	opThread     = "comments.thread"
	opEdit       = "comments.edit"
	opDelete     = "comments.delete"

	commentPreviewLength = 50
)

// ServiceError carries a dotted operation code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error { return e.err }

func (e *ServiceError) Code() string { return e.code }

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// NotificationSender is the dispatcher seam; failures never surface here.
type NotificationSender interface {
	Dispatch(ctx context.Context, projectID uint, recipient string, notificationType notify.Type, payload any) bool
}

// Directory supplies project metadata and the roster for mention resolution.
type Directory interface {
	Project(ctx context.Context, projectID uint) (directory.Project, error)
	Roster(ctx context.Context, projectID uint) ([]directory.TeamMember, error)
}

type ServiceConfig struct {
	Database  *gorm.DB
	Clock     func() time.Time
	Logger    *zap.Logger
	Recorder  activity.Recorder
	Notifier  NotificationSender
	Directory Directory
	BaseURL   string
}

// Service is the comment store.
type Service struct {
	db        *gorm.DB
	clock     func() time.Time
	logger    *zap.Logger
	recorder  activity.Recorder
	notifier  NotificationSender
	directory Directory
	baseURL   string
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		db:        cfg.Database,
		clock:     clock,
		logger:    logger,
		recorder:  cfg.Recorder,
		notifier:  cfg.Notifier,
		directory: cfg.Directory,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Add persists a comment, writes the comment_posted audit record in the same
// transaction, and then fans out one mention notification per resolved
// mention. Notification failures never fail the post.
func (s *Service) Add(ctx context.Context, projectID uint, author, text string, parentID *uint) (uint, error) {
	if strings.TrimSpace(text) == "" {
		return 0, newServiceError(opAdd, "missing_text", errMissingText)
	}
	if strings.TrimSpace(author) == "" {
		return 0, newServiceError(opAdd, "missing_author", errMissingAuthor)
	}

	if parentID != nil {
		var parent Comment
		err := s.db.WithContext(ctx).
			Where("id = ? AND project_id = ?", *parentID, projectID).
			Take(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, newServiceError(opAdd, "parent_not_found", ErrParentNotFound)
		}
		if err != nil {
			s.logError(opAdd, "parent_select_failed", err, zap.Uint("project_id", projectID))
			return 0, newServiceError(opAdd, "parent_select_failed", err)
		}
	}

	tokens := mention.Extract(text)
	now := s.clock().UTC()
	comment := Comment{
		ProjectID:  projectID,
		AuthorName: author,
		Text:       text,
		ParentID:   parentID,
		Mentions:   strings.Join(tokens, ","),
		CreatedAtS: now.Unix(),
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return newServiceError(opAdd, "insert_failed", err)
		}
		record := activity.Record{
			ProjectID:   projectID,
			ActorName:   author,
			Kind:        activity.KindCommentPosted,
			Description: fmt.Sprintf("Posted a comment: %s", preview(text)),
			EntityType:  "comment",
			EntityID:    comment.ID,
			CreatedAtS:  now.Unix(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return newServiceError(opAdd, "activity_insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opAdd, "transaction_failed", txErr, zap.Uint("project_id", projectID))
		return 0, txErr
	}

	s.notifyMentions(ctx, projectID, author, text, tokens)
	return comment.ID, nil
}

// List returns a project's comments. newestFirst selects the ordering.
func (s *Service) List(ctx context.Context, projectID uint, newestFirst bool) ([]Comment, error) {
	order := "created_at_s ASC, id ASC"
	if newestFirst {
		order = "created_at_s DESC, id DESC"
	}
	var result []Comment
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order(order).
		Find(&result).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.Uint("project_id", projectID))
		return nil, newServiceError(opList, "query_failed", err)
	}
	return result, nil
}

// Thread returns the root comment followed by its replies in non-decreasing
// creation order.
func (s *Service) Thread(ctx context.Context, rootID uint) ([]Comment, error) {
	var root Comment
	err := s.db.WithContext(ctx).Where("id = ?", rootID).Take(&root).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newServiceError(opThread, "root_not_found", gorm.ErrRecordNotFound)
	}
	if err != nil {
		s.logError(opThread, "root_select_failed", err, zap.Uint("comment_id", rootID))
		return nil, newServiceError(opThread, "root_select_failed", err)
	}

	var replies []Comment
	if err := s.db.WithContext(ctx).
		Where("parent_comment_id = ?", rootID).
		Order("created_at_s ASC, id ASC").
		Find(&replies).Error; err != nil {
		s.logError(opThread, "replies_query_failed", err, zap.Uint("comment_id", rootID))
		return nil, newServiceError(opThread, "replies_query_failed", err)
	}

	thread := make([]Comment, 0, len(replies)+1)
	thread = append(thread, root)
	thread = append(thread, replies...)
	return thread, nil
}

// Edit replaces a comment's text. Only the author may edit; a denial is a
// false result, not an error. Mentions are re-extracted and only addresses
// not mentioned in the previous revision are notified.
func (s *Service) Edit(ctx context.Context, commentID uint, newText, requester string) (bool, error) {
	if strings.TrimSpace(newText) == "" {
		return false, newServiceError(opEdit, "missing_text", errMissingText)
	}

	var comment Comment
	err := s.db.WithContext(ctx).Where("id = ?", commentID).Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		s.logError(opEdit, "select_failed", err, zap.Uint("comment_id", commentID))
		return false, newServiceError(opEdit, "select_failed", err)
	}
	if comment.AuthorName != requester {
		s.logger.Info("comment edit denied",
			zap.String("operation", opEdit),
			zap.String("requester", requester),
			zap.String("author", comment.AuthorName))
		return false, nil
	}

	previousTokens := mention.Extract(comment.Text)
	newTokens := mention.Extract(newText)
	editedAt := s.clock().UTC().Unix()

	updates := map[string]interface{}{
		"comment_text": newText,
		"mentions":     strings.Join(newTokens, ","),
		"edited_at_s":  editedAt,
	}
	if err := s.db.WithContext(ctx).
		Model(&Comment{}).
		Where("id = ?", commentID).
		Updates(updates).Error; err != nil {
		s.logError(opEdit, "update_failed", err, zap.Uint("comment_id", commentID))
		return false, newServiceError(opEdit, "update_failed", err)
	}

	introduced := tokensIntroduced(previousTokens, newTokens)
	s.notifyMentions(ctx, comment.ProjectID, requester, newText, introduced)
	return true, nil
}

// Delete removes a comment and its replies. Only the author may delete; a
// denial is a false result, not an error.
func (s *Service) Delete(ctx context.Context, commentID uint, requester string) (bool, error) {
	var comment Comment
	err := s.db.WithContext(ctx).Where("id = ?", commentID).Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		s.logError(opDelete, "select_failed", err, zap.Uint("comment_id", commentID))
		return false, newServiceError(opDelete, "select_failed", err)
	}
	if comment.AuthorName != requester {
		s.logger.Info("comment delete denied",
			zap.String("operation", opDelete),
			zap.String("requester", requester),
			zap.String("author", comment.AuthorName))
		return false, nil
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_comment_id = ?", commentID).Delete(&Comment{}).Error; err != nil {
			return newServiceError(opDelete, "replies_delete_failed", err)
		}
		if err := tx.Where("id = ?", commentID).Delete(&Comment{}).Error; err != nil {
			return newServiceError(opDelete, "delete_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opDelete, "transaction_failed", txErr, zap.Uint("comment_id", commentID))
		return false, txErr
	}
	return true, nil
}

// notifyMentions resolves tokens against the roster and dispatches one
// mention notification per resolved address. Unresolved tokens are silent.
func (s *Service) notifyMentions(ctx context.Context, projectID uint, author, text string, tokens []string) {
	if len(tokens) == 0 || s.notifier == nil || s.directory == nil {
		return
	}

	project, err := s.directory.Project(ctx, projectID)
	if err != nil {
		s.logger.Warn("mention fan-out skipped, project lookup failed",
			zap.Uint("project_id", projectID), zap.Error(err))
		return
	}
	members, err := s.directory.Roster(ctx, projectID)
	if err != nil {
		s.logger.Warn("mention fan-out skipped, roster lookup failed",
			zap.Uint("project_id", projectID), zap.Error(err))
		return
	}

	roster := make([]mention.RosterEntry, 0, len(members))
	for _, member := range members {
		roster = append(roster, mention.RosterEntry{Name: member.Name, Address: member.Email})
	}

	projectURL := fmt.Sprintf("%s/projects/%d", s.baseURL, projectID)
	for token, address := range mention.Resolve(tokens, roster) {
		s.notifier.Dispatch(ctx, projectID, address, notify.TypeMention, notify.MentionPayload{
			MentionedBy: author,
			Comment:     text,
			ProjectName: project.Name,
			URL:         projectURL,
		})
		if s.recorder != nil {
			description := fmt.Sprintf("Mentioned %s in a comment", token)
			if _, err := s.recorder.Append(ctx, projectID, author, activity.KindUserMentioned, description, nil); err != nil {
				s.logger.Warn("mention activity record failed", zap.Error(err))
			}
		}
	}
}

func tokensIntroduced(previous, current []string) []string {
	seen := make(map[string]struct{}, len(previous))
	for _, token := range previous {
		seen[strings.ToLower(token)] = struct{}{}
	}
	var introduced []string
	for _, token := range current {
		if _, ok := seen[strings.ToLower(token)]; !ok {
			introduced = append(introduced, token)
		}
	}
	return introduced
}

func preview(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > commentPreviewLength {
		return string(runes[:commentPreviewLength]) + "..."
	}
	return string(runes)
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("comments service error", attrs...)
}
