package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType represents how a coupon discount is applied
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Coupon represents a discount coupon
type Coupon struct {
	ID            int             `json:"id"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	ExpiryDate    time.Time       `json:"expiryDate"`
	IsActive      bool            `json:"isActive"`
	UsageLimit    int             `json:"usageLimit"`
	TimesUsed     int             `json:"timesUsed"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CreateCouponRequest represents a request to create a coupon
type CreateCouponRequest struct {
	Code          string          `json:"code" validate:"required"`
	DiscountType  DiscountType    `json:"discountType" validate:"required"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	ExpiryDate    time.Time       `json:"expiryDate" validate:"required"`
	UsageLimit    *int            `json:"usageLimit"`
	IsActive      *bool           `json:"isActive"`
	Description   string          `json:"description" validate:"max=500"`
}

// UpdateCouponRequest represents a partial coupon update
type UpdateCouponRequest struct {
	Code          *string          `json:"code,omitempty"`
	DiscountType  *DiscountType    `json:"discountType,omitempty"`
	DiscountValue *decimal.Decimal `json:"discountValue,omitempty"`
	ExpiryDate    *time.Time       `json:"expiryDate,omitempty"`
	UsageLimit    *int             `json:"usageLimit,omitempty"`
	IsActive      *bool            `json:"isActive,omitempty"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=500"`
}

// CouponValidationResult is returned when a coupon code is checked
type CouponValidationResult struct {
	IsValid      bool            `json:"isValid"`
	Code         string          `json:"code"`
	DiscountType DiscountType    `json:"discountType"`
	Discount     decimal.Decimal `json:"discount"`
}
