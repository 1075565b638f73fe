package mailer

import "strings"

// EmailJob is one queued message. A named Template rendered from Data wins;
// otherwise Subject/Text/HTML are sent as given.
type EmailJob struct {
	To       string         `json:"to"`
	UserID   string         `json:"userId,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
}

// NewTemplateJob builds a templated job for one user.
func NewTemplateJob(to, userID, template string, data map[string]any) EmailJob {
	return EmailJob{To: to, UserID: userID, Template: template, Data: data}
}

// TemplateName is the normalized template key, or "" for a raw job.
func (j *EmailJob) TemplateName() string {
	return strings.ToLower(strings.TrimSpace(j.Template))
}

// HasBody reports whether a raw job carries something to send.
func (j *EmailJob) HasBody() bool {
	return j.Text != "" || j.HTML != ""
}
