package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntentStatus is the state of a checkout form
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusCompleted IntentStatus = "completed"
	IntentStatusFailed    IntentStatus = "failed"
)

// PaymentIntent is a checkout form created at the payment provider
type PaymentIntent struct {
	ID        int             `json:"id"`
	UserID    int             `json:"userId"`
	CourseID  *int            `json:"courseId,omitempty"`
	OrderID   string          `json:"orderId"`
	Token     string          `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
	Provider  string          `json:"provider"`
	Status    IntentStatus    `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CreatePaymentFormRequest represents a request to create a checkout form
type CreatePaymentFormRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	CourseID *int             `json:"courseId,omitempty" validate:"omitempty,gt=0"`
}

// PaymentFormResponse is returned after a checkout form is created
type PaymentFormResponse struct {
	PaymentForm string `json:"paymentForm"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	OrderID     string `json:"orderId"`
}

// ConfirmPaymentRequest represents a payment confirmation
type ConfirmPaymentRequest struct {
	PaymentToken string `json:"paymentToken"`
	CourseID     *int   `json:"courseId,omitempty" validate:"omitempty,gt=0"`
}

// ConfirmPaymentResponse is returned after a successful confirmation
type ConfirmPaymentResponse struct {
	Message        string      `json:"message"`
	PaymentStatus  string      `json:"paymentStatus"`
	ConversationID string      `json:"conversationId"`
	Enrollment     *Enrollment `json:"enrollment,omitempty"`
}
