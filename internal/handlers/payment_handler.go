package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// PaymentService is the interface that wraps the checkout flow
type PaymentService interface {
	// Method CreatePaymentForm asks the payment provider for a checkout form and stores a pending intent.
	//
	// If the amount is missing or not positive a Validation error is returned before the provider is called.
	CreatePaymentForm(ctx context.Context, actor *models.User, req *models.CreatePaymentFormRequest) (*models.PaymentFormResponse, error)
	// Method ConfirmPayment checks the payment result and enrolls the actor when a course is attached.
	//
	// A failed payment is a PaymentFailed error, a repeated confirmation for the same course is an AlreadyEnrolled error.
	ConfirmPayment(ctx context.Context, actor *models.User, req *models.ConfirmPaymentRequest) (*models.ConfirmPaymentResponse, error)
}

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	BaseHandler
	paymentService PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		paymentService: paymentService,
	}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/payment", func(r chi.Router) {
		r.Use(guards.Auth)
		r.Post("/create-payment-form", h.CreatePaymentForm)
		r.Post("/confirm-payment", h.ConfirmPayment)
	})
}

// CreatePaymentForm handles POST /payment/create-payment-form
// @Summary Create checkout form
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreatePaymentFormRequest true "Amount and optional course"
// @Success 201 {object} models.PaymentFormResponse
// @Failure 400 {object} map[string]string "Invalid amount or provider error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /payment/create-payment-form [post]
func (h *PaymentHandler) CreatePaymentForm(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentFormRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	resp, err := h.paymentService.CreatePaymentForm(r.Context(), currentUser(r), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, resp)
}

// ConfirmPayment handles POST /payment/confirm-payment
// @Summary Confirm payment
// @Description Retrieve the payment result and enroll the user into the paid course.
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ConfirmPaymentRequest true "Payment token and optional course"
// @Success 200 {object} models.ConfirmPaymentResponse
// @Failure 400 {object} map[string]string "Payment failed or already enrolled"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /payment/confirm-payment [post]
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmPaymentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	resp, err := h.paymentService.ConfirmPayment(r.Context(), currentUser(r), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, resp)
}
