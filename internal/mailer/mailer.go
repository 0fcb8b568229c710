// Package mailer delivers credential emails over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"
)

// Attachment is one file shipped with an email.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Mailer sends HTML email with attachments.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// New creates an SMTP mailer.
func New(host string, port int, user, pass, from string) *Mailer {
	if from == "" {
		from = user
	}
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Send delivers one message. Errors are wrapped so the distribution pipeline
// can persist them as the failure reason.
func (m *Mailer) Send(to, subject, html string, attachments []Attachment) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	for _, att := range attachments {
		content := att.Content
		msg.Attach(att.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(content))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {att.ContentType}}),
		)
	}

	dialer := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer: send to %s failed: %w", to, err)
	}
	return nil
}
