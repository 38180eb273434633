package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Sender delivers a rendered email
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPConfig holds SMTP server settings for SMTPSender
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends emails with gopkg.in/mail.v2
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send sends an HTML email
func (s *SMTPSender) Send(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// EmailHandler processes email:send tasks
type EmailHandler struct {
	sender Sender
	logger *zap.Logger
}

// NewEmailHandler creates a new email task handler
func NewEmailHandler(sender Sender, logger *zap.Logger) *EmailHandler {
	return &EmailHandler{
		sender: sender,
		logger: logger,
	}
}

// ProcessTask implements asynq.Handler.
// Malformed payloads and unknown templates are not retried.
func (h *EmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode email payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email payload has no recipient: %w", asynq.SkipRetry)
	}

	subject, body, err := Render(payload.Template, payload.Data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := h.sender.Send(payload.To, subject, body); err != nil {
		h.logger.Warn("email delivery failed", zap.String("to", payload.To), zap.String("template", payload.Template), zap.Error(err))
		return err
	}

	h.logger.Info("email sent", zap.String("to", payload.To), zap.String("template", payload.Template))
	return nil
}
