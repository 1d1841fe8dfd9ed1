package notify

// Type names a template in the catalog.
type Type string

const (
	TypeTaskDeadline Type = "task_deadline"
	TypeMention      Type = "mention"
	TypeSignoff      Type = "signoff"
	TypeMilestone    Type = "milestone"
)

// Notification is the persisted record of a dispatched send, kept for unread
// tracking. Rows are created by the dispatcher and later flipped to read;
// normal flow never deletes them.
type Notification struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID uint   `gorm:"column:project_id;index"`
	Type      Type   `gorm:"column:notification_type;size:64;not null"`
	Recipient string `gorm:"column:recipient_email;size:190;not null;index"`
	Title     string `gorm:"column:title;size:255;not null"`
	Body      string `gorm:"column:body;type:text"`
	IsRead    bool   `gorm:"column:is_read;not null;default:false"`
	MessageID string `gorm:"column:message_id;size:64"`
	SentAtS   int64  `gorm:"column:sent_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// Email is a rendered message handed to a provider.
type Email struct {
	To       string
	From     string
	FromName string
	Subject  string
	HTMLBody string
	TextBody string
}

// Summary aggregates a recipient's notifications for badge views.
type Summary struct {
	Total  int
	Unread int
	ByType map[Type]int
}
