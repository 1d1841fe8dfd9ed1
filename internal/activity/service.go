// Package activity keeps the append-only audit trail of domain events.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingProject  = errors.New("project identifier is required")
	errMissingKind     = errors.New("activity kind is required")
	noOpLogger         = zap.NewNop()
)

const (
	opServiceNew = "activity.service.new"
	opAppend     = "activity.append"
	opQuery      = "activity.query"
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

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// Recorder is the event-emission seam consumed by the other services and by
// the storage layer. Wiring happens at construction time, never by patching
// methods after the fact.
type Recorder interface {
	Append(ctx context.Context, projectID uint, actor string, kind Kind, description string, ref *EntityRef) (uint, error)
}

type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service persists and queries activity records.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
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
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Append writes one record and returns its identifier.
func (s *Service) Append(ctx context.Context, projectID uint, actor string, kind Kind, description string, ref *EntityRef) (uint, error) {
	if projectID == 0 {
		return 0, newServiceError(opAppend, "missing_project", errMissingProject)
	}
	if kind == "" {
		return 0, newServiceError(opAppend, "missing_kind", errMissingKind)
	}

	record := Record{
		ProjectID:   projectID,
		ActorName:   actor,
		Kind:        kind,
		Description: description,
		CreatedAtS:  s.clock().UTC().Unix(),
	}
	if ref != nil {
		record.EntityType = ref.Type
		record.EntityID = ref.ID
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opAppend, "insert_failed", err, zap.Uint("project_id", projectID), zap.String("kind", string(kind)))
		return 0, newServiceError(opAppend, "insert_failed", err)
	}
	return record.ID, nil
}

// QueryFilter narrows a timeline query. Zero values mean no filtering.
type QueryFilter struct {
	Kind  Kind
	Actor string
}

// Query returns records for one project, most recent first. A non-positive
// limit returns everything. Records from other projects never appear.
func (s *Service) Query(ctx context.Context, projectID uint, limit int, filter QueryFilter) ([]Record, error) {
	if projectID == 0 {
		return nil, newServiceError(opQuery, "missing_project", errMissingProject)
	}

	query := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at_s DESC, id DESC")
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Actor != "" {
		query = query.Where("actor_name = ?", filter.Actor)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []Record
	if err := query.Find(&records).Error; err != nil {
		s.logError(opQuery, "query_failed", err, zap.Uint("project_id", projectID))
		return nil, newServiceError(opQuery, "query_failed", err)
	}
	return records, nil
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
	s.logger.Error("activity service error", attrs...)
}
