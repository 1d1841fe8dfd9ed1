// Package meetings tracks meeting minutes with their action items and
// decision log.
package meetings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamline-io/teamline/internal/activity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the meeting or action item does not exist.
	ErrNotFound = errors.New("meetings: not found")
	// ErrInvalidStatus indicates an unrecognized action item status.
	ErrInvalidStatus = errors.New("meetings: invalid action item status")

	errMissingDatabase = errors.New("database handle is required")
	errMissingTitle    = errors.New("meeting title is required")
	errMissingDate     = errors.New("meeting date is required")
	noOpLogger         = zap.NewNop()
)

const (
	opServiceNew   = "meetings.service.new"
	opCreate       = "meetings.create"
	opDelete       = "meetings.delete"
	opUpdateStatus = "meetings.update_action_status"

	descriptionPreviewLength = 50
)

// ParseStatus validates a raw status string at the boundary.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "open":
		return StatusOpen, nil
	case "inprogress", "in progress", "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

// ActionItemInput describes one action item supplied at meeting creation.
type ActionItemInput struct {
	Description string
	Assignee    string
	DueDate     string
	Priority    Priority
	Notes       string
}

// DecisionInput describes one decision supplied at meeting creation.
type DecisionInput struct {
	Description   string
	DecisionMaker string
	Rationale     string
}

// MeetingInput describes a meeting to record.
type MeetingInput struct {
	Title       string
	Date        string
	Time        string
	Location    string
	DurationM   int
	Attendees   string
	Agenda      string
	Notes       string
	CreatedBy   string
	ActionItems []ActionItemInput
	Decisions   []DecisionInput
}

type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Recorder activity.Recorder
	Logger   *zap.Logger
}

// Service is the meeting and action tracker.
type Service struct {
	db       *gorm.DB
	clock    func() time.Time
	recorder activity.Recorder
	logger   *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("%s.missing_database: %w", opServiceNew, errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, recorder: cfg.Recorder, logger: logger}, nil
}

// CreateMeeting stores the meeting with its action item and decision child
// rows in one transaction, then emits meeting_added, one decision_made per
// decision, and one action_item_created per item.
func (s *Service) CreateMeeting(ctx context.Context, projectID uint, input MeetingInput) (uint, error) {
	if strings.TrimSpace(input.Title) == "" {
		return 0, fmt.Errorf("%s.missing_title: %w", opCreate, errMissingTitle)
	}
	if strings.TrimSpace(input.Date) == "" {
		return 0, fmt.Errorf("%s.missing_date: %w", opCreate, errMissingDate)
	}

	now := s.clock().UTC().Unix()
	meeting := Meeting{
		ProjectID:  projectID,
		Title:      input.Title,
		Date:       input.Date,
		Time:       input.Time,
		Location:   input.Location,
		DurationM:  input.DurationM,
		Attendees:  input.Attendees,
		Agenda:     input.Agenda,
		Notes:      input.Notes,
		CreatedBy:  input.CreatedBy,
		CreatedAtS: now,
	}

	var items []ActionItem
	var decisions []Decision
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&meeting).Error; err != nil {
			return fmt.Errorf("%s.insert_failed: %w", opCreate, err)
		}
		for _, itemInput := range input.ActionItems {
			if strings.TrimSpace(itemInput.Description) == "" {
				continue
			}
			priority := itemInput.Priority
			if priority == "" {
				priority = PriorityMedium
			}
			item := ActionItem{
				MeetingID:   meeting.ID,
				ProjectID:   projectID,
				Description: itemInput.Description,
				Assignee:    itemInput.Assignee,
				DueDate:     itemInput.DueDate,
				Priority:    priority,
				Status:      StatusOpen,
				Notes:       itemInput.Notes,
				CreatedAtS:  now,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("%s.action_item_insert_failed: %w", opCreate, err)
			}
			items = append(items, item)
		}
		for _, decisionInput := range input.Decisions {
			if strings.TrimSpace(decisionInput.Description) == "" {
				continue
			}
			decision := Decision{
				MeetingID:     meeting.ID,
				ProjectID:     projectID,
				Description:   decisionInput.Description,
				DecisionMaker: decisionInput.DecisionMaker,
				Rationale:     decisionInput.Rationale,
				CreatedAtS:    now,
			}
			if err := tx.Create(&decision).Error; err != nil {
				return fmt.Errorf("%s.decision_insert_failed: %w", opCreate, err)
			}
			decisions = append(decisions, decision)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opCreate, txErr, zap.Uint("project_id", projectID))
		return 0, txErr
	}

	s.record(ctx, projectID, input.CreatedBy, activity.KindMeetingAdded,
		fmt.Sprintf("Added meeting minutes for %s", input.Date),
		&activity.EntityRef{Type: "meeting", ID: meeting.ID})
	for _, item := range items {
		s.record(ctx, projectID, input.CreatedBy, activity.KindActionItemCreated,
			fmt.Sprintf("Created action item for %s: %s", item.Assignee, preview(item.Description)),
			&activity.EntityRef{Type: "action_item", ID: item.ID})
	}
	for _, decision := range decisions {
		s.record(ctx, projectID, input.CreatedBy, activity.KindDecisionMade,
			fmt.Sprintf("Decision: %s", preview(decision.Description)),
			&activity.EntityRef{Type: "decision", ID: decision.ID})
	}
	return meeting.ID, nil
}

// Meetings returns a project's meetings, most recent date first.
func (s *Service) Meetings(ctx context.Context, projectID uint) ([]Meeting, error) {
	var meetings []Meeting
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("meeting_date DESC, id DESC").
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// Meeting returns one meeting by id.
func (s *Service) Meeting(ctx context.Context, meetingID uint) (Meeting, error) {
	var meeting Meeting
	err := s.db.WithContext(ctx).Where("id = ?", meetingID).Take(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Meeting{}, ErrNotFound
	}
	if err != nil {
		return Meeting{}, err
	}
	return meeting, nil
}

// DeleteMeeting removes a meeting with its child rows and logs meeting_deleted.
func (s *Service) DeleteMeeting(ctx context.Context, meetingID uint, deletedBy string) error {
	meeting, err := s.Meeting(ctx, meetingID)
	if err != nil {
		return err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&ActionItem{}).Error; err != nil {
			return fmt.Errorf("%s.action_items_delete_failed: %w", opDelete, err)
		}
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&Decision{}).Error; err != nil {
			return fmt.Errorf("%s.decisions_delete_failed: %w", opDelete, err)
		}
		if err := tx.Where("id = ?", meetingID).Delete(&Meeting{}).Error; err != nil {
			return fmt.Errorf("%s.delete_failed: %w", opDelete, err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opDelete, txErr, zap.Uint("meeting_id", meetingID))
		return txErr
	}

	s.record(ctx, meeting.ProjectID, deletedBy, activity.KindMeetingDeleted,
		fmt.Sprintf("Deleted meeting %q", meeting.Title),
		&activity.EntityRef{Type: "meeting", ID: meetingID})
	return nil
}

// ActionItems returns a project's action items, each annotated with its
// parent meeting's date. An empty status returns every item.
func (s *Service) ActionItems(ctx context.Context, projectID uint, status Status) ([]ActionItem, error) {
	query := s.db.WithContext(ctx).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var items []ActionItem
	if err := query.Order("due_date ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	if err := s.annotateMeetingDates(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Decisions returns a project's decision log, annotated with meeting dates.
func (s *Service) Decisions(ctx context.Context, projectID uint) ([]Decision, error) {
	var decisions []Decision
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at_s ASC, id ASC").
		Find(&decisions).Error; err != nil {
		return nil, err
	}

	dates, err := s.meetingDates(ctx, decisionMeetingIDs(decisions))
	if err != nil {
		return nil, err
	}
	for i := range decisions {
		decisions[i].MeetingDate = dates[decisions[i].MeetingID]
	}
	return decisions, nil
}

// UpdateActionItemStatus applies a status transition. The completion
// timestamp is set when entering Completed and cleared when leaving it; any
// transition between states is allowed.
func (s *Service) UpdateActionItemStatus(ctx context.Context, actionID uint, newStatus Status, notes, updatedBy string) error {
	var item ActionItem
	err := s.db.WithContext(ctx).Where("id = ?", actionID).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"status": newStatus}
	if notes != "" {
		updates["notes"] = notes
	}
	switch {
	case newStatus == StatusCompleted:
		updates["completed_at_s"] = s.clock().UTC().Unix()
	case item.Status == StatusCompleted:
		updates["completed_at_s"] = nil
	}

	if err := s.db.WithContext(ctx).
		Model(&ActionItem{}).
		Where("id = ?", actionID).
		Updates(updates).Error; err != nil {
		s.logError(opUpdateStatus, err, zap.Uint("action_id", actionID))
		return err
	}

	s.record(ctx, item.ProjectID, updatedBy, activity.KindActionItemUpdated,
		fmt.Sprintf("Updated action item to %s: %s", newStatus, preview(item.Description)),
		&activity.EntityRef{Type: "action_item", ID: actionID})
	return nil
}

// Overdue returns items still Open or InProgress whose due date has passed.
// A zero projectID spans all projects. Items with unparseable due dates are
// skipped, not fatal.
func (s *Service) Overdue(ctx context.Context, projectID uint, today time.Time) ([]ActionItem, error) {
	query := s.db.WithContext(ctx).Where("status IN ?", []Status{StatusOpen, StatusInProgress})
	if projectID != 0 {
		query = query.Where("project_id = ?", projectID)
	}
	var items []ActionItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	day := today.Truncate(24 * time.Hour)
	var overdue []ActionItem
	for _, item := range items {
		due, err := time.Parse("2006-01-02", item.DueDate)
		if err != nil {
			continue
		}
		if due.Before(day) {
			overdue = append(overdue, item)
		}
	}
	if err := s.annotateMeetingDates(ctx, overdue); err != nil {
		return nil, err
	}
	return overdue, nil
}

func (s *Service) annotateMeetingDates(ctx context.Context, items []ActionItem) error {
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.MeetingID]; !ok {
			seen[item.MeetingID] = struct{}{}
			ids = append(ids, item.MeetingID)
		}
	}
	dates, err := s.meetingDates(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].MeetingDate = dates[items[i].MeetingID]
	}
	return nil
}

func (s *Service) meetingDates(ctx context.Context, meetingIDs []uint) (map[uint]string, error) {
	dates := make(map[uint]string, len(meetingIDs))
	if len(meetingIDs) == 0 {
		return dates, nil
	}
	var meetings []Meeting
	if err := s.db.WithContext(ctx).Where("id IN ?", meetingIDs).Find(&meetings).Error; err != nil {
		return nil, err
	}
	for _, meeting := range meetings {
		dates[meeting.ID] = meeting.Date
	}
	return dates, nil
}

func decisionMeetingIDs(decisions []Decision) []uint {
	ids := make([]uint, 0, len(decisions))
	seen := make(map[uint]struct{}, len(decisions))
	for _, decision := range decisions {
		if _, ok := seen[decision.MeetingID]; !ok {
			seen[decision.MeetingID] = struct{}{}
			ids = append(ids, decision.MeetingID)
		}
	}
	return ids
}

func preview(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > descriptionPreviewLength {
		return string(runes[:descriptionPreviewLength]) + "..."
	}
	return string(runes)
}

func (s *Service) record(ctx context.Context, projectID uint, actor string, kind activity.Kind, description string, ref *activity.EntityRef) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Append(ctx, projectID, actor, kind, description, ref); err != nil {
		s.logger.Warn("meetings activity record failed",
			zap.String("kind", string(kind)),
			zap.Uint("project_id", projectID),
			zap.Error(err))
	}
}

func (s *Service) logError(operation string, err error, fields ...zap.Field) {
	attrs := []zap.Field{zap.String("operation", operation), zap.Error(err)}
	attrs = append(attrs, fields...)
	s.logger.Error("meetings service error", attrs...)
}
