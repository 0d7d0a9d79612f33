package mailer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/account-service/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Html is optional; Text is recommended as fallback.
// You can also use a template by specifying Template and Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "verify_email", "temporary_password"
	Data     map[string]any `json:"data,omitempty"`
}

// JobFromMessage wraps an already rendered message.
func JobFromMessage(msg Message) EmailJob {
	return EmailJob{To: msg.To, Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML}
}

// Message renders the job. Template jobs are rendered from the embedded
// templates with Data; other jobs must carry a subject and a text or html body.
func (j EmailJob) Message() (Message, error) {
	if strings.TrimSpace(j.To) == "" {
		return Message{}, errors.New("email job without recipient")
	}
	if j.Template == "" {
		if j.Subject == "" || (j.Text == "" && j.HTML == "") {
			return Message{}, errors.New("email job needs a template or a subject with text/html")
		}
		return Message{To: j.To, Subject: j.Subject, Text: j.Text, HTML: j.HTML}, nil
	}
	data := j.Data
	if data == nil {
		data = map[string]any{}
	}
	if v, ok := data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		data["Email"] = j.To
	}
	subject, text, html, err := templates.Render(j.Template, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: j.To, Subject: subject, Text: text, HTML: html}, nil
}
