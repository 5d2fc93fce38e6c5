package wandercms

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	gomail "gopkg.in/gomail.v2"
)

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// Validate checks the required fields and returns a ValidationError listing
// everything that is missing.
func (m ContactMessage) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(m.Name) == "" {
		fields["name"] = "Name is required."
	}
	if strings.TrimSpace(m.Email) == "" || !strings.Contains(m.Email, "@") {
		fields["email"] = "A valid email address is required."
	}
	if strings.TrimSpace(m.Body) == "" {
		fields["message"] = "A message is required."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Mailer delivers contact form submissions.
type Mailer interface {
	SendContact(msg ContactMessage) error
}

// SMTPMailer delivers contact mail over SMTP.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	recipient string
}

// NewSMTPMailer builds a mailer from the site configuration.
func NewSMTPMailer(cfg SiteConfig) *SMTPMailer {
	from := cfg.SMTPUsername
	if from == "" {
		from = "noreply@" + cfg.Name
	}
	return &SMTPMailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:      from,
		recipient: cfg.ContactRecipient,
	}
}

// SendContact emails the submission to the configured recipient. Reply-To is
// set to the submitter so staff can answer directly.
func (m *SMTPMailer) SendContact(msg ContactMessage) error {
	subject := msg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "New contact form message"
	}

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.from)
	mail.SetHeader("To", m.recipient)
	mail.SetHeader("Reply-To", msg.Email)
	mail.SetHeader("Subject", subject)
	mail.SetBody("text/plain", fmt.Sprintf(
		"Name: %s\nEmail: %s\n\n%s\n", msg.Name, msg.Email, msg.Body,
	))

	if err := m.dialer.DialAndSend(mail); err != nil {
		return eris.Wrap(err, "sending contact mail")
	}
	return nil
}
