package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/dentalia/clinic-api/internal/config"
	"github.com/dentalia/clinic-api/internal/model"
)

type mailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

// NewMailer builds an SMTP-backed Service. Links in reminder mail are
// rooted at baseURL.
func NewMailer(cfg config.SMTPConfig, baseURL string) Service {
	return &mailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: baseURL,
	}
}

func (m *mailer) SendConfirmation(ctx context.Context, to string, payload model.NotificationPayload) error {
	subject := fmt.Sprintf("Appointment confirmed for %s", payload.Date)
	body, err := renderConfirmation(payload)
	if err != nil {
		return fmt.Errorf("failed to render confirmation: %w", err)
	}
	return m.send(ctx, to, subject, body)
}

func (m *mailer) SendRescheduled(ctx context.Context, to string, payload model.NotificationPayload) error {
	subject := fmt.Sprintf("Appointment rescheduled to %s", payload.Date)
	body, err := renderRescheduled(payload)
	if err != nil {
		return fmt.Errorf("failed to render reschedule notice: %w", err)
	}
	return m.send(ctx, to, subject, body)
}

func (m *mailer) SendReminder(ctx context.Context, to string, payload model.NotificationPayload) error {
	subject := fmt.Sprintf("Reminder: appointment tomorrow at %s", payload.StartTime)
	body, err := renderReminder(payload, m.baseURL)
	if err != nil {
		return fmt.Errorf("failed to render reminder: %w", err)
	}
	return m.send(ctx, to, subject, body)
}

func (m *mailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
