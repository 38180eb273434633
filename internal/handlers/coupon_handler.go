package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// CouponService is the interface that wraps methods for discount coupons
type CouponService interface {
	// Method Create validates and stores a coupon. The code is normalized to uppercase.
	Create(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error)
	// Method Validate checks that a coupon can be redeemed now.
	//
	// An unknown code is a NotFound error, an inactive, expired or exhausted coupon is an InvalidState error.
	Validate(ctx context.Context, code string) (*models.CouponValidationResult, error)
	// Method GetAll returns every coupon.
	GetAll(ctx context.Context) ([]models.Coupon, error)
	// Method Update applies the provided fields with the create rules.
	Update(ctx context.Context, id int, req *models.UpdateCouponRequest) (*models.Coupon, error)
	// Method Delete removes a coupon unless it is active and already used.
	Delete(ctx context.Context, id int) error
}

// CouponHandler handles coupon HTTP requests
type CouponHandler struct {
	BaseHandler
	couponService CouponService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService CouponService, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		couponService: couponService,
	}
}

// RegisterRoutes registers coupon routes
func (h *CouponHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/coupons", func(r chi.Router) {
		r.With(guards.Auth).Get("/validate/{code}", h.Validate)

		r.Group(func(r chi.Router) {
			r.Use(guards.Admin()...)
			r.Get("/", h.GetAll)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Validate handles GET /coupons/validate/{code}
// @Summary Validate coupon
// @Tags coupons
// @Produce json
// @Security BearerAuth
// @Param code path string true "Coupon code"
// @Success 200 {object} models.CouponValidationResult
// @Failure 400 {object} map[string]string "Coupon inactive, expired or exhausted"
// @Failure 404 {object} map[string]string "Coupon not found"
// @Router /coupons/validate/{code} [get]
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.couponService.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, result)
}

// GetAll handles GET /coupons
// @Summary List coupons
// @Tags coupons
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Coupon
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /coupons [get]
func (h *CouponHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.GetAll(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	h.RespondJSON(w, http.StatusOK, coupons)
}

// Create handles POST /coupons
// @Summary Create coupon
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCouponRequest true "Coupon"
// @Success 201 {object} models.Coupon
// @Failure 400 {object} map[string]string "Invalid coupon or code taken"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /coupons [post]
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCouponRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	coupon, err := h.couponService.Create(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, coupon)
}

// Update handles PUT /coupons/{id}
// @Summary Update coupon
// @Tags coupons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coupon ID"
// @Param request body models.UpdateCouponRequest true "Coupon fields"
// @Success 200 {object} models.Coupon
// @Failure 400 {object} map[string]string "Invalid coupon"
// @Failure 404 {object} map[string]string "Coupon not found"
// @Router /coupons/{id} [put]
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.UpdateCouponRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	coupon, err := h.couponService.Update(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, coupon)
}

// Delete handles DELETE /coupons/{id}
// @Summary Delete coupon
// @Tags coupons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coupon ID"
// @Success 200 {object} map[string]string "Coupon deleted"
// @Failure 400 {object} map[string]string "Coupon is active and used"
// @Failure 404 {object} map[string]string "Coupon not found"
// @Router /coupons/{id} [delete]
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.couponService.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondMessage(w, http.StatusOK, "coupon deleted successfully")
}
