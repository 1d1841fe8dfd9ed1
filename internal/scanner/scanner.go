// Package scanner walks every project's task list once a day and sends
// deadline reminders at fixed day-out thresholds. A persisted marker per
// task and threshold keeps repeat runs from re-sending the same reminder.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/teamline-io/teamline/internal/directory"
	"github.com/teamline-io/teamline/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrScanInProgress indicates an overlapping scan was rejected.
	ErrScanInProgress = errors.New("scanner: scan already in progress")

	errMissingDatabase   = errors.New("database handle is required")
	errMissingDirectory  = errors.New("directory source is required")
	errMissingDispatcher = errors.New("notification sender is required")

	// reminderThresholds are the days-until-due values that trigger a reminder.
	reminderThresholds = []int{7, 3, 1}

	noOpLogger = zap.NewNop()
)

const (
	opScan       = "scanner.scan"
	opScannerNew = "scanner.new"

	dueDateLayout = "2006-01-02"
)

// ReminderMarker records that a reminder for one task at one threshold has
// been sent. The unique index makes the dedup hold across restarts.
type ReminderMarker struct {
	ID         uint  `gorm:"column:id;primaryKey;autoIncrement"`
	TaskID     uint  `gorm:"column:task_id;not null;uniqueIndex:idx_reminder_task_threshold"`
	Threshold  int   `gorm:"column:threshold_days;not null;uniqueIndex:idx_reminder_task_threshold"`
	SentAtS    int64 `gorm:"column:sent_at_s;not null"`
	ProjectID  uint  `gorm:"column:project_id;not null;index"`
	NotifiedOK bool  `gorm:"column:notified_ok;not null"`
}

func (ReminderMarker) TableName() string {
	return "reminder_markers"
}

// TaskSource is the slice of the directory the scanner reads.
type TaskSource interface {
	Projects(ctx context.Context) ([]directory.Project, error)
	TasksForProject(ctx context.Context, projectID uint) ([]directory.Task, error)
	LookupEmail(ctx context.Context, projectID uint, name string) (string, error)
}

// Sender dispatches the rendered reminder.
type Sender interface {
	Dispatch(ctx context.Context, projectID uint, recipient string, notificationType notify.Type, payload any) bool
}

// Report summarizes one scan run.
type Report struct {
	ProjectsScanned   int
	TasksExamined     int
	RemindersSent     int
	DuplicatesSkipped int
	MissingAddresses  int
	SendFailures      int
}

type ScannerConfig struct {
	Database   *gorm.DB
	Directory  TaskSource
	Dispatcher Sender
	Clock      func() time.Time
	Logger     *zap.Logger
	BaseURL    string
}

// Scanner is the deadline reminder job.
type Scanner struct {
	db         *gorm.DB
	directory  TaskSource
	dispatcher Sender
	clock      func() time.Time
	logger     *zap.Logger
	baseURL    string
	running    sync.Mutex
}

func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("%s.missing_database: %w", opScannerNew, errMissingDatabase)
	}
	if cfg.Directory == nil {
		return nil, fmt.Errorf("%s.missing_directory: %w", opScannerNew, errMissingDirectory)
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("%s.missing_dispatcher: %w", opScannerNew, errMissingDispatcher)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Scanner{
		db:         cfg.Database,
		directory:  cfg.Directory,
		dispatcher: cfg.Dispatcher,
		clock:      clock,
		logger:     logger,
		baseURL:    cfg.BaseURL,
	}, nil
}

// Scan walks every project and sends at most one reminder per task and
// threshold. Overlapping calls are rejected with ErrScanInProgress. Per-task
// problems are counted, not fatal: the scan always finishes the walk.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	if !s.running.TryLock() {
		return Report{}, ErrScanInProgress
	}
	defer s.running.Unlock()

	var report Report
	today := truncateToDay(s.clock().UTC())

	projects, err := s.directory.Projects(ctx)
	if err != nil {
		return report, fmt.Errorf("%s.projects_failed: %w", opScan, err)
	}

	for _, project := range projects {
		report.ProjectsScanned++
		tasks, err := s.directory.TasksForProject(ctx, project.ID)
		if err != nil {
			s.logger.Error("task list unavailable, project skipped",
				zap.String("operation", opScan),
				zap.Uint("project_id", project.ID),
				zap.Error(err))
			continue
		}
		for _, task := range tasks {
			report.TasksExamined++
			s.scanTask(ctx, project, task, today, &report)
		}
	}

	s.logger.Info("deadline scan finished",
		zap.Int("projects", report.ProjectsScanned),
		zap.Int("tasks", report.TasksExamined),
		zap.Int("sent", report.RemindersSent),
		zap.Int("duplicates", report.DuplicatesSkipped),
		zap.Int("missing_addresses", report.MissingAddresses))
	return report, nil
}

func (s *Scanner) scanTask(ctx context.Context, project directory.Project, task directory.Task, today time.Time, report *Report) {
	if isFinished(task.Status) || strings.TrimSpace(task.DueDate) == "" {
		return
	}
	due, err := time.Parse(dueDateLayout, task.DueDate)
	if err != nil {
		s.logger.Warn("unparseable due date, task skipped",
			zap.String("operation", opScan),
			zap.Uint("task_id", task.ID),
			zap.String("due_date", task.DueDate))
		return
	}

	daysLeft := int(due.Sub(today).Hours() / 24)
	if !isThreshold(daysLeft) {
		return
	}

	sent, err := s.alreadySent(ctx, task.ID, daysLeft)
	if err != nil {
		s.logger.Error("reminder marker lookup failed",
			zap.String("operation", opScan),
			zap.Uint("task_id", task.ID),
			zap.Error(err))
		return
	}
	if sent {
		report.DuplicatesSkipped++
		return
	}

	address, err := s.directory.LookupEmail(ctx, project.ID, task.Assignee)
	if err != nil {
		report.MissingAddresses++
		s.logger.Warn("no address for assignee, reminder skipped",
			zap.String("operation", opScan),
			zap.Uint("task_id", task.ID),
			zap.String("assignee", task.Assignee))
		return
	}

	delivered := s.dispatcher.Dispatch(ctx, project.ID, address, notify.TypeTaskDeadline, notify.TaskDeadlinePayload{
		TaskName:    task.Name,
		ProjectName: project.Name,
		Deadline:    task.DueDate,
		DaysLeft:    daysLeft,
		Progress:    task.Progress,
		Owner:       task.Assignee,
		URL:         s.taskURL(project.ID),
	})
	if !delivered {
		report.SendFailures++
		return
	}
	report.RemindersSent++

	marker := ReminderMarker{
		TaskID:     task.ID,
		Threshold:  daysLeft,
		SentAtS:    s.clock().UTC().Unix(),
		ProjectID:  project.ID,
		NotifiedOK: true,
	}
	if err := s.db.WithContext(ctx).Create(&marker).Error; err != nil {
		// The reminder went out; a failed marker write only risks one
		// duplicate on the next run.
		s.logger.Warn("reminder marker write failed",
			zap.String("operation", opScan),
			zap.Uint("task_id", task.ID),
			zap.Int("threshold", daysLeft),
			zap.Error(err))
	}
}

func (s *Scanner) alreadySent(ctx context.Context, taskID uint, threshold int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&ReminderMarker{}).
		Where("task_id = ? AND threshold_days = ?", taskID, threshold).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Scanner) taskURL(projectID uint) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/projects/%d/tasks", strings.TrimRight(s.baseURL, "/"), projectID)
}

func isFinished(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "done", "cancelled", "canceled":
		return true
	default:
		return false
	}
}

func isThreshold(daysLeft int) bool {
	for _, threshold := range reminderThresholds {
		if daysLeft == threshold {
			return true
		}
	}
	return false
}

func truncateToDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
