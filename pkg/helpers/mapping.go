package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/greenloop/pkg/mailer"
	mailtpl "github.com/oksasatya/greenloop/pkg/mailer/templates"
)

var ErrEmptyEmail = errors.New("email job has no recipient or body")

// EnsureRecipientAndEmail copies job.To into the template data when absent.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// RenderEmailJob resolves a queued job into subject, text and html.
func RenderEmailJob(job *mailer.EmailJob) (subject, text, html string, err error) {
	if strings.TrimSpace(job.To) == "" {
		return "", "", "", ErrEmptyEmail
	}
	EnsureRecipientAndEmail(job)
	name := job.TemplateName()
	if name == "" {
		if !job.HasBody() {
			return "", "", "", ErrEmptyEmail
		}
		subject = job.Subject
		if subject == "" {
			subject = "Notification"
		}
		return subject, job.Text, job.HTML, nil
	}
	if !mailtpl.Known(name) {
		return "", "", "", fmt.Errorf("unknown email template %q", job.Template)
	}
	subject, text, html, err = mailtpl.Render(name, job.Data)
	if err != nil {
		return "", "", "", err
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	return subject, text, html, nil
}
