package meetings

// Status enumerates the action item lifecycle. Completed and Cancelled are
// not terminal: any transition between states is permitted.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Priority ranks an action item.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Meeting is one recorded meeting. Action items and decisions live in
// normalized child tables rather than serialized blobs so they can be
// queried and filtered on their own.
type Meeting struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID  uint   `gorm:"column:project_id;not null;index"`
	Title      string `gorm:"column:meeting_title;size:255;not null"`
	Date       string `gorm:"column:meeting_date;size:32;not null"`
	Time       string `gorm:"column:meeting_time;size:16"`
	Location   string `gorm:"column:location;size:255"`
	DurationM  int    `gorm:"column:duration_minutes"`
	Attendees  string `gorm:"column:attendees;type:text"`
	Agenda     string `gorm:"column:agenda;type:text"`
	Notes      string `gorm:"column:notes;type:text"`
	CreatedBy  string `gorm:"column:created_by;size:190"`
	CreatedAtS int64  `gorm:"column:created_at_s;not null"`
}

func (Meeting) TableName() string {
	return "meeting_minutes"
}

// ActionItem is a tracked follow-up originating from a meeting.
// CompletedAtS is non-nil exactly when Status is Completed.
type ActionItem struct {
	ID           uint     `gorm:"column:id;primaryKey;autoIncrement"`
	MeetingID    uint     `gorm:"column:meeting_id;not null;index"`
	ProjectID    uint     `gorm:"column:project_id;not null;index"`
	Description  string   `gorm:"column:item_description;type:text;not null"`
	Assignee     string   `gorm:"column:assigned_to;size:190"`
	DueDate      string   `gorm:"column:due_date;size:32"`
	Priority     Priority `gorm:"column:priority;size:16;not null;default:'Medium'"`
	Status       Status   `gorm:"column:status;size:32;not null;default:'Open'"`
	Notes        string   `gorm:"column:notes;type:text"`
	CompletedAtS *int64   `gorm:"column:completed_at_s"`
	CreatedAtS   int64    `gorm:"column:created_at_s;not null"`

	// MeetingDate annotates query results with the parent meeting's date.
	// It is not a column.
	MeetingDate string `gorm:"-"`
}

func (ActionItem) TableName() string {
	return "action_items"
}

// Decision is immutable once recorded; there is no edit surface.
type Decision struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	MeetingID     uint   `gorm:"column:meeting_id;not null;index"`
	ProjectID     uint   `gorm:"column:project_id;not null;index"`
	Description   string `gorm:"column:description;type:text;not null"`
	DecisionMaker string `gorm:"column:decision_maker;size:190"`
	Rationale     string `gorm:"column:rationale;type:text"`
	CreatedAtS    int64  `gorm:"column:created_at_s;not null"`

	// MeetingDate annotates query results; not a column.
	MeetingDate string `gorm:"-"`
}

func (Decision) TableName() string {
	return "decision_log"
}
