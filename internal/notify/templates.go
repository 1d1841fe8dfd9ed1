package notify

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// TaskDeadlinePayload fills the task_deadline template. Field names are part
// of the external contract and stay stable.
type TaskDeadlinePayload struct {
	TaskName    string
	ProjectName string
	Deadline    string
	DaysLeft    int
	Progress    int
	Owner       string
	URL         string
}

// MentionPayload fills the mention template.
type MentionPayload struct {
	MentionedBy string
	Comment     string
	ProjectName string
	URL         string
}

// SignoffPayload fills the signoff template.
type SignoffPayload struct {
	ProjectName string
	Role        string
	SignedBy    string
	URL         string
}

// MilestonePayload fills the milestone template.
type MilestonePayload struct {
	ProjectName string
	Milestone   string
	AchievedBy  string
	URL         string
}

const taskDeadlineHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #4A90E2; color: white; padding: 20px; border-radius: 5px;">
      <h2>Task Deadline Reminder</h2>
    </div>
    <div style="background: #f9f9f9; padding: 20px; margin: 20px 0;">
      <p>Hello <strong>{{.Owner}}</strong>,</p>
      <p>Task "<strong>{{.TaskName}}</strong>" in project "<strong>{{.ProjectName}}</strong>" is approaching its deadline:</p>
      <div style="background: white; padding: 15px; margin: 10px 0; border-left: 4px solid {{urgencyColor .DaysLeft}};">
        <p style="font-size: 24px;"><strong>{{.DaysLeft}} day(s) left</strong></p>
        <p>Deadline: {{.Deadline}}</p>
        <p>Progress: {{.Progress}}%</p>
      </div>
      <p><a href="{{.URL}}" style="display: inline-block; padding: 10px 20px; background: #4A90E2; color: white; text-decoration: none; border-radius: 5px;">View details</a></p>
    </div>
  </div>
</body>
</html>`

const mentionHTML = `<div style="max-width: 600px; margin: 0 auto; font-family: Arial;">
  <div style="background: #7C4DFF; color: white; padding: 20px;">
    <h2>You Were Mentioned</h2>
  </div>
  <div style="padding: 20px;">
    <p><strong>{{.MentionedBy}}</strong> mentioned you in "{{.ProjectName}}":</p>
    <div style="background: #f0f0f0; padding: 15px; margin: 10px 0; font-style: italic;">
      "{{.Comment}}"
    </div>
    <p><a href="{{.URL}}" style="display: inline-block; padding: 10px 20px; background: #7C4DFF; color: white; text-decoration: none;">Reply</a></p>
  </div>
</div>`

const signoffHTML = `<div style="max-width: 600px; margin: 0 auto; font-family: Arial;">
  <div style="background: #28a745; color: white; padding: 20px;">
    <h2>Sign-off Recorded</h2>
  </div>
  <div style="padding: 20px;">
    <p><strong>{{.SignedBy}}</strong> signed off on "{{.ProjectName}}" as <strong>{{.Role}}</strong>.</p>
    <p><a href="{{.URL}}">View project</a></p>
  </div>
</div>`

const milestoneHTML = `<div style="max-width: 600px; margin: 0 auto; font-family: Arial;">
  <div style="background: #28a745; color: white; padding: 20px;">
    <h2>Milestone Achieved</h2>
  </div>
  <div style="padding: 20px;">
    <p>Project <strong>{{.ProjectName}}</strong> reached the milestone <strong>{{.Milestone}}</strong>, completed by {{.AchievedBy}}.</p>
    <p><a href="{{.URL}}">View project</a></p>
  </div>
</div>`

const (
	taskDeadlineText = `Task {{.TaskName}} - Deadline in {{.DaysLeft}} days ({{.Deadline}}). Progress: {{.Progress}}%. View: {{.URL}}`
	mentionText      = `{{.MentionedBy}} mentioned you: {{.Comment}}. Reply: {{.URL}}`
	signoffText      = `{{.SignedBy}} signed off on {{.ProjectName}} as {{.Role}}. View: {{.URL}}`
	milestoneText    = `{{.ProjectName}} reached milestone {{.Milestone}} ({{.AchievedBy}}). View: {{.URL}}`
)

func urgencyColor(daysLeft int) string {
	switch {
	case daysLeft <= 1:
		return "#dc3545"
	case daysLeft <= 3:
		return "#ffc107"
	default:
		return "#28a745"
	}
}

type catalogEntry struct {
	subject func(payload any) (string, error)
	html    *template.Template
	text    *texttemplate.Template
}

// Catalog renders typed payloads into (subject, html, text) tuples.
type Catalog struct {
	entries map[Type]catalogEntry
}

// NewCatalog builds the fixed template catalog.
func NewCatalog() *Catalog {
	funcs := template.FuncMap{"urgencyColor": urgencyColor}
	return &Catalog{entries: map[Type]catalogEntry{
		TypeTaskDeadline: {
			subject: func(payload any) (string, error) {
				p, ok := payload.(TaskDeadlinePayload)
				if !ok {
					return "", fmt.Errorf("task_deadline expects TaskDeadlinePayload, got %T", payload)
				}
				return fmt.Sprintf("Task deadline in %d days - %s", p.DaysLeft, p.ProjectName), nil
			},
			html: template.Must(template.New("task_deadline").Funcs(funcs).Parse(taskDeadlineHTML)),
			text: texttemplate.Must(texttemplate.New("task_deadline").Parse(taskDeadlineText)),
		},
		TypeMention: {
			subject: func(payload any) (string, error) {
				p, ok := payload.(MentionPayload)
				if !ok {
					return "", fmt.Errorf("mention expects MentionPayload, got %T", payload)
				}
				return fmt.Sprintf("%s mentioned you", p.MentionedBy), nil
			},
			html: template.Must(template.New("mention").Parse(mentionHTML)),
			text: texttemplate.Must(texttemplate.New("mention").Parse(mentionText)),
		},
		TypeSignoff: {
			subject: func(payload any) (string, error) {
				p, ok := payload.(SignoffPayload)
				if !ok {
					return "", fmt.Errorf("signoff expects SignoffPayload, got %T", payload)
				}
				return fmt.Sprintf("Sign-off recorded: %s", p.ProjectName), nil
			},
			html: template.Must(template.New("signoff").Parse(signoffHTML)),
			text: texttemplate.Must(texttemplate.New("signoff").Parse(signoffText)),
		},
		TypeMilestone: {
			subject: func(payload any) (string, error) {
				p, ok := payload.(MilestonePayload)
				if !ok {
					return "", fmt.Errorf("milestone expects MilestonePayload, got %T", payload)
				}
				return fmt.Sprintf("Milestone achieved: %s", p.Milestone), nil
			},
			html: template.Must(template.New("milestone").Parse(milestoneHTML)),
			text: texttemplate.Must(texttemplate.New("milestone").Parse(milestoneText)),
		},
	}}
}

// Render produces the subject, HTML body, and text body for a payload.
func (c *Catalog) Render(notificationType Type, payload any) (subject, htmlBody, textBody string, err error) {
	entry, ok := c.entries[notificationType]
	if !ok {
		return "", "", "", fmt.Errorf("unknown notification type %q", notificationType)
	}

	subject, err = entry.subject(payload)
	if err != nil {
		return "", "", "", err
	}

	var htmlBuffer bytes.Buffer
	if err := entry.html.Execute(&htmlBuffer, payload); err != nil {
		return "", "", "", err
	}
	var textBuffer bytes.Buffer
	if err := entry.text.Execute(&textBuffer, payload); err != nil {
		return "", "", "", err
	}
	return subject, htmlBuffer.String(), textBuffer.String(), nil
}
