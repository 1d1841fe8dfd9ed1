package activity

// Kind enumerates the domain events recorded in the audit trail.
type Kind string

const (
	KindProjectCreated    Kind = "project_created"
	KindProjectUpdated    Kind = "project_updated"
	KindStatusChanged     Kind = "status_changed"
	KindMemberAdded       Kind = "member_added"
	KindMemberRemoved     Kind = "member_removed"
	KindTaskAdded         Kind = "task_added"
	KindTaskCompleted     Kind = "task_completed"
	KindSignoffCompleted  Kind = "signoff_completed"
	KindPhaseCompleted    Kind = "phase_completed"
	KindMilestoneAchieved Kind = "milestone_achieved"
	KindCommentPosted     Kind = "comment_posted"
	KindUserMentioned     Kind = "user_mentioned"
	KindMeetingAdded      Kind = "meeting_added"
	KindMeetingDeleted    Kind = "meeting_deleted"
	KindDecisionMade      Kind = "decision_made"
	KindActionItemCreated Kind = "action_item_created"
	KindActionItemUpdated Kind = "action_item_updated"
)

// Record is one immutable audit-trail entry. Once written it is history;
// the service exposes no update or delete surface for it.
type Record struct {
	ID          uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID   uint   `gorm:"column:project_id;not null;index:idx_activity_project_time,priority:1"`
	ActorName   string `gorm:"column:actor_name;size:190;not null"`
	Kind        Kind   `gorm:"column:kind;size:64;not null"`
	Description string `gorm:"column:description;type:text;not null"`
	EntityType  string `gorm:"column:entity_type;size:64"`
	EntityID    uint   `gorm:"column:entity_id"`
	CreatedAtS  int64  `gorm:"column:created_at_s;not null;index:idx_activity_project_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "activity_log"
}

// EntityRef optionally points a record at the entity it describes.
type EntityRef struct {
	Type string
	ID   uint
}
