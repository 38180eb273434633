// Package notifications publishes and delivers transactional emails through asynq
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

const (
	// TypeEmailSend is the asynq task type of an outgoing email
	TypeEmailSend = "email:send"
	// QueueEmails is the queue email tasks are published to
	QueueEmails = "emails"
)

// EmailPayload is the body of an email:send task
type EmailPayload struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// Enqueuer publishes tasks, implemented by *asynq.Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier enqueues notification emails.
// Failures are logged and never returned, a lost email must not fail the request that caused it.
type Notifier struct {
	client Enqueuer
	logger *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(client Enqueuer, logger *zap.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger,
	}
}

// Welcome is sent after registration
func (n *Notifier) Welcome(ctx context.Context, user *models.User) {
	n.enqueue(ctx, EmailPayload{
		To:       user.Email,
		Template: TemplateWelcome,
		Data: map[string]any{
			"Name": user.Name,
			"Role": string(user.Role),
		},
	})
}

// EnrollmentConfirmed is sent after a successful enrollment
func (n *Notifier) EnrollmentConfirmed(ctx context.Context, user *models.User, enrollment *models.Enrollment) {
	n.enqueue(ctx, EmailPayload{
		To:       user.Email,
		Template: TemplateEnrollment,
		Data: map[string]any{
			"Name":   user.Name,
			"Course": enrollment.CourseTitle,
			"Amount": enrollment.PaymentAmount.StringFixed(2),
			"Method": string(enrollment.PaymentMethod),
		},
	})
}

// InstructorReviewed is sent when an admin approves or rejects an instructor application
func (n *Notifier) InstructorReviewed(ctx context.Context, app *models.InstructorApplication) {
	n.enqueue(ctx, EmailPayload{
		To:       app.UserEmail,
		Template: TemplateInstructorReview,
		Data: map[string]any{
			"Name":     app.UserName,
			"Approved": app.Status == models.ApplicationStatusApproved,
		},
	})
}

// LeadAcknowledged is sent after a prospective student submits an application
func (n *Notifier) LeadAcknowledged(ctx context.Context, lead *models.Lead, courseTitle string) {
	n.enqueue(ctx, EmailPayload{
		To:       lead.Email,
		Template: TemplateLeadAcknowledgement,
		Data: map[string]any{
			"Name":   lead.Name,
			"Course": courseTitle,
		},
	})
}

// PromotionsExpired tells an admin how many promotions the scheduler switched off
func (n *Notifier) PromotionsExpired(ctx context.Context, to string, coupons, campaigns int64) {
	n.enqueue(ctx, EmailPayload{
		To:       to,
		Template: TemplatePromotionsExpired,
		Data: map[string]any{
			"Coupons":   coupons,
			"Campaigns": campaigns,
		},
	})
}

func (n *Notifier) enqueue(ctx context.Context, payload EmailPayload) {
	task, err := NewEmailTask(payload)
	if err != nil {
		n.logger.Warn("failed to build email task", zap.String("template", payload.Template), zap.Error(err))
		return
	}

	info, err := n.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueEmails),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		n.logger.Warn("failed to enqueue email",
			zap.String("template", payload.Template),
			zap.String("to", payload.To),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("email enqueued", zap.String("task_id", info.ID), zap.String("template", payload.Template))
}

// NewEmailTask encodes the payload into an email:send task
func NewEmailTask(payload EmailPayload) (*asynq.Task, error) {
	if payload.To == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeEmailSend, data), nil
}
