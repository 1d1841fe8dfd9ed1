// Package notify renders typed notification payloads and fans them out
// through a configurable mail provider, keeping a persisted record of every
// successful send for unread tracking.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingProvider = errors.New("mail provider is required")
)

const (
	opDispatcherNew = "notify.dispatcher.new"
	opDispatch      = "notify.dispatch"
	opUnread        = "notify.unread"
	opMarkRead      = "notify.mark_read"
	opSummary       = "notify.summary"

	defaultSendTimeout = 10 * time.Second
)

type DispatcherConfig struct {
	Database    *gorm.DB
	Provider    Provider
	Catalog     *Catalog
	Clock       func() time.Time
	Logger      *zap.Logger
	FromAddress string
	FromName    string
	SendTimeout time.Duration
}

// Dispatcher is the single notification sender for the whole process,
// constructed once at startup and passed explicitly to its callers.
type Dispatcher struct {
	db          *gorm.DB
	provider    Provider
	catalog     *Catalog
	clock       func() time.Time
	logger      *zap.Logger
	fromAddress string
	fromName    string
	sendTimeout time.Duration
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("%s.missing_database: %w", opDispatcherNew, errMissingDatabase)
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("%s.missing_provider: %w", opDispatcherNew, errMissingProvider)
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = NewCatalog()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{
		db:          cfg.Database,
		provider:    cfg.Provider,
		catalog:     catalog,
		clock:       clock,
		logger:      logger,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		sendTimeout: timeout,
	}, nil
}

// Dispatch renders the payload and sends it to the recipient. It never
// panics and never returns an error: provider and render failures are
// logged and reported as false so the triggering operation always proceeds.
// A Notification row is persisted only after a successful send.
func (d *Dispatcher) Dispatch(ctx context.Context, projectID uint, recipient string, notificationType Type, payload any) bool {
	if recipient == "" {
		d.logger.Warn("notification dropped, empty recipient",
			zap.String("operation", opDispatch),
			zap.String("type", string(notificationType)))
		return false
	}

	subject, htmlBody, textBody, err := d.catalog.Render(notificationType, payload)
	if err != nil {
		d.logger.Error("notification template render failed",
			zap.String("operation", opDispatch),
			zap.String("type", string(notificationType)),
			zap.Error(err))
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	email := Email{
		To:       recipient,
		From:     d.fromAddress,
		FromName: d.fromName,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if err := d.provider.Send(sendCtx, email); err != nil {
		d.logger.Error("notification send failed",
			zap.String("operation", opDispatch),
			zap.String("type", string(notificationType)),
			zap.String("recipient", recipient),
			zap.Error(err))
		return false
	}

	record := Notification{
		ProjectID: projectID,
		Type:      notificationType,
		Recipient: recipient,
		Title:     subject,
		Body:      textBody,
		MessageID: d.newMessageID(),
		SentAtS:   d.clock().UTC().Unix(),
	}
	if err := d.db.WithContext(ctx).Create(&record).Error; err != nil {
		// The mail went out; losing the unread-tracking row is tolerable.
		d.logger.Warn("notification record insert failed",
			zap.String("operation", opDispatch),
			zap.String("recipient", recipient),
			zap.Error(err))
	}
	return true
}

// Unread returns a recipient's unread notifications, newest first.
func (d *Dispatcher) Unread(ctx context.Context, recipient string) ([]Notification, error) {
	var notifications []Notification
	if err := d.db.WithContext(ctx).
		Where("recipient_email = ? AND is_read = ?", recipient, false).
		Order("sent_at_s DESC, id DESC").
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("%s.query_failed: %w", opUnread, err)
	}
	return notifications, nil
}

// MarkRead flips one notification to read.
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID uint) error {
	result := d.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", notificationID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("%s.update_failed: %w", opMarkRead, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s.not_found: notification %d", opMarkRead, notificationID)
	}
	return nil
}

// RecipientSummary aggregates totals for a recipient's badge view.
func (d *Dispatcher) RecipientSummary(ctx context.Context, recipient string) (Summary, error) {
	var notifications []Notification
	if err := d.db.WithContext(ctx).
		Where("recipient_email = ?", recipient).
		Find(&notifications).Error; err != nil {
		return Summary{}, fmt.Errorf("%s.query_failed: %w", opSummary, err)
	}

	summary := Summary{ByType: make(map[Type]int)}
	for _, notification := range notifications {
		summary.Total++
		if !notification.IsRead {
			summary.Unread++
		}
		summary.ByType[notification.Type]++
	}
	return summary, nil
}

func (d *Dispatcher) newMessageID() string {
	value, err := uuid.NewV7()
	if err != nil {
		return ""
	}
	return value.String()
}
