package mailer

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	mailtpl "github.com/oksasatya/go-social-graph/pkg/mailer/templates"
)

// Mailgun sends notification emails through one reusable client.
type Mailgun struct {
	client *mg.MailgunImpl
	Sender string
}

// NewMailgun builds a sender. apiBase overrides the default US endpoint (e.g. mg.APIBaseEU).
func NewMailgun(domain, apiKey, sender, apiBase string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}
	return &Mailgun{client: client, Sender: sender}
}

// Send sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

// Compose fills Subject, Text and HTML from the job's template. Parts already
// set on the job are kept.
func Compose(job EmailJob) (EmailJob, error) {
	if job.Template == "" {
		return job, nil
	}
	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return job, fmt.Errorf("render %s: %w", job.Template, err)
	}
	if job.Subject == "" {
		job.Subject = subject
	}
	if job.Text == "" {
		job.Text = text
	}
	if job.HTML == "" {
		job.HTML = html
	}
	return job, nil
}

// SendJob renders job and sends it.
func (m *Mailgun) SendJob(ctx context.Context, job EmailJob) error {
	job, err := Compose(job)
	if err != nil {
		return err
	}
	return m.Send(ctx, job.To, job.Subject, job.Text, job.HTML)
}
