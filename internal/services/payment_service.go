package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/payment"
	"go.uber.org/zap"
)

// PaymentIntentRepository is the interface that wraps methods for payment_intents table data access
type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	// GetByToken returns a NotFound error for an unknown token
	GetByToken(ctx context.Context, token string) (*models.PaymentIntent, error)
	// CompletePending moves a pending intent to status and reports false when it was no longer pending.
	// Two concurrent confirmations of one token cannot both succeed.
	CompletePending(ctx context.Context, id int, status models.IntentStatus) (bool, error)
}

// paymentService implements checkout creation and confirmation
type paymentService struct {
	gateway    payment.Gateway
	intentRepo PaymentIntentRepository
	ledger     *enrollmentLedger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	gateway payment.Gateway,
	intentRepo PaymentIntentRepository,
	enrollmentRepo EnrollmentRepository,
	userRepo UserRepository,
	courseRepo CourseRepository,
	notifier Notifier,
	logger *zap.Logger,
) *paymentService {
	return &paymentService{
		gateway:    gateway,
		intentRepo: intentRepo,
		ledger: &enrollmentLedger{
			enrollmentRepo: enrollmentRepo,
			userRepo:       userRepo,
			courseRepo:     courseRepo,
			notifier:       notifier,
			logger:         logger,
			now:            time.Now,
		},
	}
}

// CreatePaymentForm registers a checkout form at the provider and stores it as pending
func (s *paymentService) CreatePaymentForm(ctx context.Context, actor *models.User, req *models.CreatePaymentFormRequest) (*models.PaymentFormResponse, error) {
	if req.Amount == nil || !req.Amount.IsPositive() {
		return nil, apperrors.Validation("amount must be greater than 0")
	}

	itemID, itemName := "payment", "YowaAcademy payment"
	if req.CourseID != nil {
		course, err := s.ledger.courseRepo.GetByID(ctx, *req.CourseID)
		if err != nil {
			return nil, err
		}
		itemID, itemName = "course-"+strconv.Itoa(course.ID), course.Title
	}

	orderID := uuid.NewString()
	checkout, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		OrderID:    orderID,
		Amount:     req.Amount.Round(2),
		BuyerName:  actor.Name,
		BuyerEmail: actor.Email,
		ItemID:     itemID,
		ItemName:   itemName,
	})
	if err != nil {
		s.ledger.logger.Error("failed to create checkout form", zap.String("order_id", orderID), zap.Error(err))
		return nil, apperrors.PaymentProvider(err, "payment provider error: %v", err)
	}

	intent := &models.PaymentIntent{
		UserID:   actor.ID,
		CourseID: req.CourseID,
		OrderID:  orderID,
		Token:    checkout.Token,
		Amount:   req.Amount.Round(2),
		Provider: s.gateway.Name(),
		Status:   models.IntentStatusPending,
	}
	if err := s.intentRepo.Create(ctx, intent); err != nil {
		return nil, err
	}

	return &models.PaymentFormResponse{
		PaymentForm: checkout.Form,
		Token:       checkout.Token,
		RedirectURL: checkout.RedirectURL,
		OrderID:     orderID,
	}, nil
}

// ConfirmPayment checks the checkout result at the provider and enrolls the buyer on success.
// A checkout form is confirmed at most once and only for the course it was created for.
func (s *paymentService) ConfirmPayment(ctx context.Context, actor *models.User, req *models.ConfirmPaymentRequest) (*models.ConfirmPaymentResponse, error) {
	token := strings.TrimSpace(req.PaymentToken)
	if token == "" {
		return nil, apperrors.Validation("payment token is required")
	}

	intent, err := s.intentRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if intent.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("payment belongs to another user")
	}
	if intent.Status != models.IntentStatusPending {
		return nil, apperrors.InvalidState("payment is already %s", intent.Status)
	}

	courseID := intent.CourseID
	if req.CourseID != nil {
		if courseID != nil && *courseID != *req.CourseID {
			return nil, apperrors.Validation("payment was created for course %d", *courseID)
		}
		courseID = req.CourseID
	}

	result, err := s.gateway.RetrievePayment(ctx, intent.OrderID)
	if err != nil {
		s.ledger.logger.Error("failed to retrieve payment", zap.String("order_id", intent.OrderID), zap.Error(err))
		return nil, apperrors.PaymentProvider(err, "payment provider error: %v", err)
	}

	if !result.Success {
		if _, err := s.intentRepo.CompletePending(ctx, intent.ID, models.IntentStatusFailed); err != nil {
			s.ledger.logger.Warn("failed to mark payment failed", zap.Int("intent_id", intent.ID), zap.Error(err))
		}
		return nil, apperrors.PaymentFailed("payment failed with status %s", result.Status)
	}

	moved, err := s.intentRepo.CompletePending(ctx, intent.ID, models.IntentStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apperrors.InvalidState("payment is already processed")
	}

	response := &models.ConfirmPaymentResponse{
		Message:        "payment confirmed",
		PaymentStatus:  "SUCCESS",
		ConversationID: intent.OrderID,
	}
	if courseID == nil {
		return response, nil
	}

	course, err := s.ledger.courseRepo.GetByID(ctx, *courseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("course %d not found", *courseID)
		}
		return nil, err
	}

	buyer := actor
	if intent.UserID != actor.ID {
		buyer, err = s.ledger.userRepo.GetByID(ctx, intent.UserID)
		if err != nil {
			return nil, err
		}
	}

	amount := intent.Amount
	if result.PaidAmount.IsPositive() {
		amount = result.PaidAmount
	}

	enrollment, err := s.ledger.enroll(ctx, buyer, course, amount, models.PaymentMethod(s.gateway.Name()))
	if err != nil {
		return nil, err
	}

	response.Message = fmt.Sprintf("payment confirmed, enrolled in %s", course.Title)
	response.Enrollment = enrollment
	return response, nil
}
