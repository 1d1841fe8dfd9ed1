package directory

// Project metadata consumed for templating and scoping. The wider
// project-management CRUD surface lives outside this service; these tables
// hold only what the collaboration core reads.
type Project struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string `gorm:"column:project_name;size:190;not null"`
	Status     string `gorm:"column:status;size:64"`
	CreatedBy  string `gorm:"column:created_by;size:190"`
	CreatedAtS int64  `gorm:"column:created_at_s;not null"`
}

func (Project) TableName() string {
	return "projects"
}

// TeamMember is one roster entry: full display name to contact address.
type TeamMember struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID  uint   `gorm:"column:project_id;not null;index"`
	Name       string `gorm:"column:name;size:190;not null"`
	Email      string `gorm:"column:email;size:190"`
	Role       string `gorm:"column:role;size:120"`
	CreatedAtS int64  `gorm:"column:created_at_s;not null"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

// Task is the slice of the task table the deadline scanner walks.
type Task struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID  uint   `gorm:"column:project_id;not null;index"`
	Name       string `gorm:"column:task_name;size:190;not null"`
	DueDate    string `gorm:"column:due_date;size:32"`
	Status     string `gorm:"column:status;size:64"`
	Progress   int    `gorm:"column:progress;not null;default:0"`
	Assignee   string `gorm:"column:assignee;size:190"`
	CreatedAtS int64  `gorm:"column:created_at_s;not null"`
}

func (Task) TableName() string {
	return "tasks"
}
