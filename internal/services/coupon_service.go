package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// CouponRepository is the interface that wraps methods for discount_coupons table data access
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id int) (*models.Coupon, error)
	// GetByCode expects an already normalized code
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	// ExistsByCode ignores the coupon with "excludeID"
	ExistsByCode(ctx context.Context, code string, excludeID int) (bool, error)
	GetAll(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id int) error
}

const (
	minCouponCodeLength = 4
	defaultUsageLimit   = 100
)

type couponService struct {
	repo   CouponRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewCouponService creates a new coupon service
func NewCouponService(repo CouponRepository, logger *zap.Logger) *couponService {
	return &couponService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create adds a coupon. Codes are stored uppercase and compared case-insensitively.
func (s *couponService) Create(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error) {
	coupon := &models.Coupon{
		Code:          normalizeCouponCode(req.Code),
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		ExpiryDate:    req.ExpiryDate,
		IsActive:      true,
		UsageLimit:    defaultUsageLimit,
		Description:   strings.TrimSpace(req.Description),
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = *req.UsageLimit
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.validate(coupon); err != nil {
		return nil, err
	}
	if !coupon.ExpiryDate.After(s.now()) {
		return nil, apperrors.Validation("expiry date must be in the future")
	}
	if err := s.checkCode(ctx, coupon.Code, 0); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Validate checks that a coupon can be redeemed now
func (s *couponService) Validate(ctx context.Context, code string) (*models.CouponValidationResult, error) {
	code = normalizeCouponCode(code)
	if code == "" {
		return nil, apperrors.Validation("coupon code is required")
	}

	coupon, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	switch {
	case !coupon.IsActive:
		return nil, apperrors.InvalidState("coupon is not active")
	case !coupon.ExpiryDate.After(s.now()):
		return nil, apperrors.InvalidState("coupon has expired")
	case coupon.TimesUsed >= coupon.UsageLimit:
		return nil, apperrors.InvalidState("coupon usage limit has been reached")
	}

	return &models.CouponValidationResult{
		IsValid:      true,
		Code:         coupon.Code,
		DiscountType: coupon.DiscountType,
		Discount:     coupon.DiscountValue,
	}, nil
}

func (s *couponService) GetAll(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.GetAll(ctx)
}

// Update applies the provided fields and re-validates the coupon
func (s *couponService) Update(ctx context.Context, id int, req *models.UpdateCouponRequest) (*models.Coupon, error) {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		coupon.Code = normalizeCouponCode(*req.Code)
	}
	if req.DiscountType != nil {
		coupon.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.ExpiryDate != nil {
		if !req.ExpiryDate.After(s.now()) {
			return nil, apperrors.Validation("expiry date must be in the future")
		}
		coupon.ExpiryDate = *req.ExpiryDate
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = *req.UsageLimit
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.Description != nil {
		coupon.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.validate(coupon); err != nil {
		return nil, err
	}
	if coupon.UsageLimit < coupon.TimesUsed {
		return nil, apperrors.Validation("usage limit cannot be lower than times used (%d)", coupon.TimesUsed)
	}
	if req.Code != nil {
		if err := s.checkCode(ctx, coupon.Code, coupon.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes a coupon that is not in active use
func (s *couponService) Delete(ctx context.Context, id int) error {
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if coupon.IsActive && coupon.TimesUsed > 0 {
		return apperrors.Conflict("cannot delete an active coupon that has been used, deactivate it instead")
	}
	return s.repo.Delete(ctx, id)
}

func (s *couponService) validate(coupon *models.Coupon) error {
	if len(coupon.Code) < minCouponCodeLength {
		return apperrors.Validation("coupon code must be at least %d characters", minCouponCodeLength)
	}

	hundred := decimal.NewFromInt(100)
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		if !coupon.DiscountValue.IsPositive() || coupon.DiscountValue.GreaterThan(hundred) {
			return apperrors.Validation("percentage discount must be greater than 0 and at most 100")
		}
	case models.DiscountTypeFixed:
		if !coupon.DiscountValue.IsPositive() {
			return apperrors.Validation("fixed discount must be greater than 0")
		}
	default:
		return apperrors.Validation("discount type must be percentage or fixed")
	}

	if coupon.UsageLimit < 1 {
		return apperrors.Validation("usage limit must be at least 1")
	}
	return nil
}

func (s *couponService) checkCode(ctx context.Context, code string, excludeID int) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.AlreadyExists("coupon code already exists")
	}
	return nil
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
