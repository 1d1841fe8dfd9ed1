// Package directory reads the project, roster, and task records owned by the
// surrounding project-management application. The collaboration core consumes
// this data; it does not own it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/teamline-io/teamline/internal/activity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the requested project or member does not exist.
	ErrNotFound = errors.New("directory: not found")

	errMissingDatabase = errors.New("database handle is required")
)

type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Recorder activity.Recorder
	Logger   *zap.Logger
}

// Service resolves rosters, tasks, and project metadata. Creation paths emit
// activity records through the Recorder decided at construction time.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	recorder   activity.Recorder
	logger     *zap.Logger
	emailCache sync.Map
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("directory: %w", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, recorder: cfg.Recorder, logger: logger}, nil
}

// Project returns metadata for one project.
func (s *Service) Project(ctx context.Context, projectID uint) (Project, error) {
	var project Project
	err := s.db.WithContext(ctx).Where("id = ?", projectID).Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, err
	}
	return project, nil
}

// Projects returns every project, for scanner iteration.
func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Roster returns the team members of a project.
func (s *Service) Roster(ctx context.Context, projectID uint) ([]TeamMember, error) {
	var members []TeamMember
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// LookupEmail resolves a member's address by exact full name, case-insensitively.
// A miss returns ErrNotFound; members without an address are misses too.
func (s *Service) LookupEmail(ctx context.Context, projectID uint, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrNotFound
	}

	cacheKey := fmt.Sprintf("%d:%s", projectID, strings.ToLower(trimmed))
	if cached, ok := s.emailCache.Load(cacheKey); ok {
		if address, ok := cached.(string); ok {
			return address, nil
		}
	}

	members, err := s.Roster(ctx, projectID)
	if err != nil {
		return "", err
	}
	for _, member := range members {
		if strings.EqualFold(strings.TrimSpace(member.Name), trimmed) && member.Email != "" {
			s.emailCache.Store(cacheKey, member.Email)
			return member.Email, nil
		}
	}
	return "", ErrNotFound
}

// TasksForProject returns the tasks the scanner inspects.
func (s *Service) TasksForProject(ctx context.Context, projectID uint) ([]Task, error) {
	var tasks []Task
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateProject stores a project and records project_created.
func (s *Service) CreateProject(ctx context.Context, name, createdBy string) (uint, error) {
	project := Project{
		Name:       strings.TrimSpace(name),
		Status:     "Active",
		CreatedBy:  createdBy,
		CreatedAtS: s.clock().UTC().Unix(),
	}
	if project.Name == "" {
		return 0, fmt.Errorf("directory: project name is required")
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return 0, err
	}
	s.record(ctx, project.ID, createdBy, activity.KindProjectCreated,
		fmt.Sprintf("Created project %q", project.Name), &activity.EntityRef{Type: "project", ID: project.ID})
	return project.ID, nil
}

// AddMember stores a roster entry and records member_added.
func (s *Service) AddMember(ctx context.Context, projectID uint, name, email, role, addedBy string) (uint, error) {
	member := TeamMember{
		ProjectID:  projectID,
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
		Role:       role,
		CreatedAtS: s.clock().UTC().Unix(),
	}
	if member.Name == "" {
		return 0, fmt.Errorf("directory: member name is required")
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		return 0, err
	}
	s.emailCache.Delete(fmt.Sprintf("%d:%s", projectID, strings.ToLower(member.Name)))
	s.record(ctx, projectID, addedBy, activity.KindMemberAdded,
		fmt.Sprintf("Added member %s as %s", member.Name, role), &activity.EntityRef{Type: "member", ID: member.ID})
	return member.ID, nil
}

// AddTask stores a task and records task_added.
func (s *Service) AddTask(ctx context.Context, projectID uint, name, dueDate, status, assignee, createdBy string) (uint, error) {
	task := Task{
		ProjectID:  projectID,
		Name:       strings.TrimSpace(name),
		DueDate:    strings.TrimSpace(dueDate),
		Status:     status,
		Assignee:   strings.TrimSpace(assignee),
		CreatedAtS: s.clock().UTC().Unix(),
	}
	if task.Name == "" {
		return 0, fmt.Errorf("directory: task name is required")
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return 0, err
	}
	s.record(ctx, projectID, createdBy, activity.KindTaskAdded,
		fmt.Sprintf("Added task %q", task.Name), &activity.EntityRef{Type: "task", ID: task.ID})
	return task.ID, nil
}

func (s *Service) record(ctx context.Context, projectID uint, actor string, kind activity.Kind, description string, ref *activity.EntityRef) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Append(ctx, projectID, actor, kind, description, ref); err != nil {
		s.logger.Warn("directory activity record failed",
			zap.String("kind", string(kind)),
			zap.Uint("project_id", projectID),
			zap.Error(err))
	}
}
