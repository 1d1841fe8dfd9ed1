package comments

// Comment is one entry in a project discussion. ParentID threads replies
// under a root comment; a reply's parent always lives in the same project.
type Comment struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID  uint   `gorm:"column:project_id;not null;index:idx_comments_project_time,priority:1"`
	AuthorName string `gorm:"column:author_name;size:190;not null"`
	Text       string `gorm:"column:comment_text;type:text;not null"`
	ParentID   *uint  `gorm:"column:parent_comment_id;index"`
	Mentions   string `gorm:"column:mentions;type:text"`
	CreatedAtS int64  `gorm:"column:created_at_s;not null;index:idx_comments_project_time,priority:2"`
	EditedAtS  *int64 `gorm:"column:edited_at_s"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "project_comments"
}
